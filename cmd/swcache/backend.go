package main

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/unkn0wn-root/swcache"
	"github.com/unkn0wn-root/swcache/codec"
	"github.com/unkn0wn-root/swcache/internal/config"
	"github.com/unkn0wn-root/swcache/store"
	bigstore "github.com/unkn0wn-root/swcache/store/bigcache"
	"github.com/unkn0wn-root/swcache/store/memory"
	redisstore "github.com/unkn0wn-root/swcache/store/redis"
	ristore "github.com/unkn0wn-root/swcache/store/ristretto"
	"github.com/unkn0wn-root/swcache/store/sqlite"
	"github.com/unkn0wn-root/swcache/versionstore"
)

const mb = 1 << 20

// buildStore opens the partition store and the matching version store.
// Only redis shares version records across processes and restarts.
func buildStore(ctx context.Context, cfg config.StoreConfig) (store.Store, versionstore.Store, error) {
	switch cfg.Backend {
	case "memory":
		return memory.New(), versionstore.NewLocal(), nil
	case "ristretto":
		maxCost := cfg.Ristretto.MaxCostMB * mb
		s, err := ristore.New(ristore.Config{
			NumCounters: maxCost / 1024 * 10, // ~10x expected entries of ~1KiB
			MaxCost:     maxCost,
			BufferItems: 64,
		})
		if err != nil {
			return nil, nil, err
		}
		return s, versionstore.NewLocal(), nil
	case "bigcache":
		return bigstore.New(bigstore.Config{HardMaxCacheSizeMB: cfg.Bigcache.HardMaxMB}), versionstore.NewLocal(), nil
	case "redis":
		rdb := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, fmt.Errorf("redis ping %s: %w", cfg.Redis.Address, err)
		}
		s, err := redisstore.New(redisstore.Config{Client: rdb, Prefix: cfg.Redis.Prefix, CloseClient: true})
		if err != nil {
			_ = rdb.Close()
			return nil, nil, err
		}
		return s, versionstore.NewRedis(rdb, cfg.Redis.Prefix), nil
	case "sqlite":
		s, err := sqlite.Open(cfg.SQLite.Path)
		if err != nil {
			return nil, nil, err
		}
		return s, versionstore.NewLocal(), nil
	default:
		return nil, nil, fmt.Errorf("store.backend %q is not supported", cfg.Backend)
	}
}

// buildCodec resolves the snapshot codec; maxBytes > 0 caps decoded payloads.
func buildCodec(name string, maxBytes int) (codec.Codec[swcache.Snapshot], error) {
	var inner codec.Codec[swcache.Snapshot]
	if name == "proto" {
		inner = swcache.ProtoCodec{}
	} else {
		c, err := codec.ByName[swcache.Snapshot](name)
		if err != nil {
			return nil, err
		}
		inner = c
	}
	if maxBytes <= 0 {
		return inner, nil
	}
	return codec.LimitCodec[swcache.Snapshot]{Inner: inner, MaxDecode: maxBytes}, nil
}

func workerConfig(cfg config.Config) (swcache.WorkerConfig, error) {
	origin, err := cfg.OriginURL()
	if err != nil {
		return swcache.WorkerConfig{}, err
	}
	return swcache.WorkerConfig{
		Version:   cfg.Cache.Version,
		Namespace: cfg.Cache.Namespace,
		Manifest:  cfg.Cache.Manifest,
		Origin:    origin,
		Patterns:  patterns(cfg.Cache.Patterns),
	}, nil
}

// patterns overlays configured groups on the defaults, one group at a time.
func patterns(c config.PatternsConfig) swcache.Patterns {
	p := swcache.DefaultPatterns()
	if len(c.Critical) > 0 {
		p.Critical = c.Critical
	}
	if len(c.Images) > 0 {
		p.Images = c.Images
	}
	if len(c.Audio) > 0 {
		p.Audio = c.Audio
	}
	if len(c.Fonts) > 0 {
		p.Fonts = c.Fonts
	}
	if c.AssetPrefix != "" {
		p.AssetPrefix = c.AssetPrefix
	}
	return p
}
