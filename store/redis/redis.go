package redis

import (
	"context"
	"errors"

	goredis "github.com/redis/go-redis/v9"

	"github.com/unkn0wn-root/swcache/store"
)

var ErrNilClient = errors.New("redis store: nil client")

// Layout (the hash tag keeps every key of a store in one cluster slot, which
// the put script needs):
//
//	{<prefix>}:partitions     SET of partition names
//	{<prefix>}:part:<name>    HASH key -> framed entry
type Redis struct {
	rdb         goredis.UniversalClient
	prefix      string
	closeClient bool
}

var _ store.Store = (*Redis)(nil)

type Config struct {
	Client      goredis.UniversalClient
	Prefix      string // key prefix; "" => "swcache"
	CloseClient bool   // set true only if this store exclusively owns the client
}

// putIfLive writes only while the partition is still registered, so a handle
// held across a partition delete cannot resurrect it.
var putIfLive = goredis.NewScript(`
if redis.call('SISMEMBER', KEYS[1], ARGV[1]) == 0 then
  return -1
end
redis.call('HSET', KEYS[2], ARGV[2], ARGV[3])
return 1
`)

func New(cfg Config) (*Redis, error) {
	if cfg.Client == nil {
		return nil, ErrNilClient
	}
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "swcache"
	}
	return &Redis{rdb: cfg.Client, prefix: prefix, closeClient: cfg.CloseClient}, nil
}

func (s *Redis) namesKey() string            { return "{" + s.prefix + "}:partitions" }
func (s *Redis) partKey(name string) string { return "{" + s.prefix + "}:part:" + name }

func (s *Redis) Open(ctx context.Context, name string) (store.Partition, error) {
	if err := s.rdb.SAdd(ctx, s.namesKey(), name).Err(); err != nil {
		return nil, err
	}
	return &Partition{s: s, name: name, key: s.partKey(name)}, nil
}

func (s *Redis) Names(ctx context.Context) ([]string, error) {
	return s.rdb.SMembers(ctx, s.namesKey()).Result()
}

func (s *Redis) Delete(ctx context.Context, name string) (bool, error) {
	var srem *goredis.IntCmd
	_, err := s.rdb.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		srem = p.SRem(ctx, s.namesKey(), name)
		p.Del(ctx, s.partKey(name))
		return nil
	})
	if err != nil {
		return false, err
	}
	return srem.Val() > 0, nil
}

// Close releases the underlying redis client only when this store owns it.
// Safe to call multiple times; repeated calls become no-ops.
func (s *Redis) Close(context.Context) error {
	if s.closeClient {
		if err := s.rdb.Close(); err != nil && !errors.Is(err, goredis.ErrClosed) {
			return err
		}
	}
	return nil
}

type Partition struct {
	s    *Redis
	name string
	key  string
}

var _ store.Partition = (*Partition)(nil)

func (p *Partition) Name() string { return p.name }

func (p *Partition) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := p.s.rdb.HGet(ctx, p.key, key).Bytes()
	if err == goredis.Nil {
		return nil, false, nil // miss
	}
	if err != nil {
		return nil, false, err // transport/server error
	}
	return b, true, nil
}

func (p *Partition) Put(ctx context.Context, key string, value []byte) error {
	n, err := putIfLive.Run(ctx, p.s.rdb, []string{p.s.namesKey(), p.key}, p.name, key, value).Int64()
	if err != nil {
		return err
	}
	if n < 0 {
		return store.ErrClosed
	}
	return nil
}

func (p *Partition) Delete(ctx context.Context, key string) error {
	return p.s.rdb.HDel(ctx, p.key, key).Err()
}
