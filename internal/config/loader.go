package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Loader builds the configuration with env > file > default precedence.
type Loader struct {
	envPrefix string
	path      string
}

func NewLoader(envPrefix, path string) *Loader {
	return &Loader{envPrefix: envPrefix, path: path}
}

// Path is the watched config file, possibly empty.
func (l *Loader) Path() string { return l.path }

// Load merges defaults, the YAML file and the environment, then validates.
func (l *Loader) Load(ctx context.Context) (Config, error) {
	k := koanf.New(".")
	if err := k.Load(confmap.Provider(structToMap(DefaultConfig()), "."), nil); err != nil {
		return Config{}, fmt.Errorf("config: load defaults: %w", err)
	}

	if l.path != "" {
		if err := ctx.Err(); err != nil {
			return Config{}, err
		}
		if _, err := os.Stat(l.path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return Config{}, fmt.Errorf("config: file %s not found", l.path)
			}
			return Config{}, fmt.Errorf("config: stat %s: %w", l.path, err)
		}
		if err := k.Load(file.Provider(l.path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("config: load file %s: %w", l.path, err)
		}
	}

	if l.envPrefix != "" {
		if err := k.Load(env.Provider(l.envPrefix, ".", l.envKey), nil); err != nil {
			return Config{}, fmt.Errorf("config: load env: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	cfg.Cache.Manifest = splitList(cfg.Cache.Manifest)
	p := &cfg.Cache.Patterns
	p.Critical, p.Images, p.Audio, p.Fonts = splitList(p.Critical), splitList(p.Images), splitList(p.Audio), splitList(p.Fonts)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// camelCase keys the env transform must map back.
var canonical = map[string]string{
	"cache.precacheconcurrency":  "cache.precacheConcurrency",
	"cache.maxentrybytes":        "cache.maxEntryBytes",
	"cache.patterns.assetprefix": "cache.patterns.assetPrefix",
	"store.ristretto.maxcostmb":  "store.ristretto.maxCostMB",
	"store.bigcache.hardmaxmb":   "store.bigcache.hardMaxMB",
}

// envKey maps SWCACHE_CACHE__VERSION to cache.version.
func (l *Loader) envKey(s string) string {
	key := strings.TrimPrefix(s, l.envPrefix+"_")
	key = strings.ToLower(strings.ReplaceAll(key, "__", "."))
	if mapped, ok := canonical[key]; ok {
		return mapped
	}
	return strings.ReplaceAll(key, "_", "")
}

// splitList expands comma separated values coming from env overrides.
func splitList(in []string) []string {
	if len(in) == 0 {
		return in
	}
	out := make([]string, 0, len(in))
	for _, item := range in {
		for _, s := range strings.Split(item, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

func structToMap(cfg Config) map[string]any {
	return map[string]any{
		"listen": map[string]any{
			"address": cfg.Listen.Address,
			"port":    cfg.Listen.Port,
		},
		"origin": cfg.Origin,
		"logging": map[string]any{
			"level":   cfg.Logging.Level,
			"backend": cfg.Logging.Backend,
		},
		"cache": map[string]any{
			"namespace":           cfg.Cache.Namespace,
			"version":             cfg.Cache.Version,
			"manifest":            cfg.Cache.Manifest,
			"activation":          cfg.Cache.Activation,
			"precacheConcurrency": cfg.Cache.PrecacheConcurrency,
			"codec":               cfg.Cache.Codec,
			"maxEntryBytes":       cfg.Cache.MaxEntryBytes,
		},
		"store": map[string]any{
			"backend": cfg.Store.Backend,
			"sqlite":  map[string]any{"path": cfg.Store.SQLite.Path},
			"redis": map[string]any{
				"address":  cfg.Store.Redis.Address,
				"password": cfg.Store.Redis.Password,
				"db":       cfg.Store.Redis.DB,
				"prefix":   cfg.Store.Redis.Prefix,
			},
			"ristretto": map[string]any{"maxCostMB": cfg.Store.Ristretto.MaxCostMB},
			"bigcache":  map[string]any{"hardMaxMB": cfg.Store.Bigcache.HardMaxMB},
		},
		"metrics": map[string]any{
			"enabled": cfg.Metrics.Enabled,
			"path":    cfg.Metrics.Path,
		},
	}
}
