package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Config is the runtime configuration of the swcache proxy.
type Config struct {
	Listen  ListenConfig  `koanf:"listen"`
	Origin  string        `koanf:"origin"`
	Logging LoggingConfig `koanf:"logging"`
	Cache   CacheConfig   `koanf:"cache"`
	Store   StoreConfig   `koanf:"store"`
	Metrics MetricsConfig `koanf:"metrics"`
}

type ListenConfig struct {
	Address string `koanf:"address"`
	Port    int    `koanf:"port"`
}

// Addr is the host:port the proxy listens on.
func (l ListenConfig) Addr() string { return fmt.Sprintf("%s:%d", l.Address, l.Port) }

type LoggingConfig struct {
	Level string `koanf:"level"` // debug, info, warn, error
	// Backend selects the logging library: zap, zerolog, logrus or slog.
	Backend string `koanf:"backend"`
}

// CacheConfig describes the deployed cache version.
type CacheConfig struct {
	Namespace           string         `koanf:"namespace"`
	Version             string         `koanf:"version"`
	Manifest            []string       `koanf:"manifest"`
	Activation          string         `koanf:"activation"` // eager or manual
	PrecacheConcurrency int            `koanf:"precacheConcurrency"`
	Codec               string         `koanf:"codec"`         // cbor, cbor-deterministic, msgpack, json, proto
	MaxEntryBytes       int            `koanf:"maxEntryBytes"` // 0 = no limit on cached bodies or decoded entries
	Patterns            PatternsConfig `koanf:"patterns"`
}

type PatternsConfig struct {
	Critical    []string `koanf:"critical"`
	Images      []string `koanf:"images"`
	Audio       []string `koanf:"audio"`
	Fonts       []string `koanf:"fonts"`
	AssetPrefix string   `koanf:"assetPrefix"`
}

type StoreConfig struct {
	Backend   string          `koanf:"backend"` // memory, ristretto, bigcache, redis, sqlite
	SQLite    SQLiteConfig    `koanf:"sqlite"`
	Redis     RedisConfig     `koanf:"redis"`
	Ristretto RistrettoConfig `koanf:"ristretto"`
	Bigcache  BigcacheConfig  `koanf:"bigcache"`
}

type SQLiteConfig struct {
	Path string `koanf:"path"`
}

type RedisConfig struct {
	Address  string `koanf:"address"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
	Prefix   string `koanf:"prefix"`
}

type RistrettoConfig struct {
	MaxCostMB int64 `koanf:"maxCostMB"`
}

type BigcacheConfig struct {
	HardMaxMB int `koanf:"hardMaxMB"`
}

type MetricsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path"`
}

// DefaultConfig returns the baseline every file and env override applies to.
func DefaultConfig() Config {
	return Config{
		Listen:  ListenConfig{Address: "0.0.0.0", Port: 8080},
		Logging: LoggingConfig{Level: "info", Backend: "zap"},
		Cache: CacheConfig{
			Namespace:           "swcache",
			Version:             "v1",
			Manifest:            []string{"/"},
			Activation:          "eager",
			PrecacheConcurrency: 6,
			Codec:               "cbor",
		},
		Store: StoreConfig{
			Backend:   "memory",
			SQLite:    SQLiteConfig{Path: "swcache.db"},
			Redis:     RedisConfig{Address: "127.0.0.1:6379", Prefix: "swcache"},
			Ristretto: RistrettoConfig{MaxCostMB: 64},
			Bigcache:  BigcacheConfig{HardMaxMB: 64},
		},
		Metrics: MetricsConfig{Enabled: true, Path: "/metrics"},
	}
}

// OriginURL parses Origin.
func (c Config) OriginURL() (*url.URL, error) {
	u, err := url.Parse(c.Origin)
	if err != nil {
		return nil, fmt.Errorf("config: origin: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("config: origin %q must be an absolute http(s) URL", c.Origin)
	}
	return u, nil
}

// Validate rejects configurations the proxy cannot start with.
func (c Config) Validate() error {
	var problems []string
	if c.Origin == "" {
		problems = append(problems, "origin is required")
	} else if _, err := c.OriginURL(); err != nil {
		problems = append(problems, err.Error())
	}
	if c.Listen.Port <= 0 || c.Listen.Port > 65535 {
		problems = append(problems, fmt.Sprintf("listen.port %d out of range", c.Listen.Port))
	}
	if strings.TrimSpace(c.Cache.Namespace) == "" {
		problems = append(problems, "cache.namespace is required")
	}
	if strings.TrimSpace(c.Cache.Version) == "" {
		problems = append(problems, "cache.version is required")
	}
	switch c.Cache.Activation {
	case "eager", "manual":
	default:
		problems = append(problems, fmt.Sprintf("cache.activation %q must be eager or manual", c.Cache.Activation))
	}
	switch c.Cache.Codec {
	case "cbor", "cbor-deterministic", "msgpack", "json", "proto":
	default:
		problems = append(problems, fmt.Sprintf("cache.codec %q is not supported", c.Cache.Codec))
	}
	switch c.Store.Backend {
	case "memory", "ristretto", "bigcache", "redis", "sqlite":
	default:
		problems = append(problems, fmt.Sprintf("store.backend %q is not supported", c.Store.Backend))
	}
	switch c.Logging.Backend {
	case "zap", "zerolog", "logrus", "slog":
	default:
		problems = append(problems, fmt.Sprintf("logging.backend %q is not supported", c.Logging.Backend))
	}
	if len(problems) > 0 {
		return fmt.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}
