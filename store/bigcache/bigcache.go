// Package bigcache backs each partition with its own allegro/bigcache instance.
// BigCache has no per-entry TTL; entries live for Config.LifeWindow.
package bigcache

import (
	"context"
	"errors"
	"sync"
	"time"

	bc "github.com/allegro/bigcache/v3"

	"github.com/unkn0wn-root/swcache/store"
)

type Config struct {
	LifeWindow         time.Duration // 0 => effectively unbounded
	CleanWindow        time.Duration
	MaxEntriesInWindow int
	MaxEntrySize       int
	HardMaxCacheSizeMB int // ~ memory limit per partition; 0 = unlimited
	Shards             int // power of two; 0 => bigcache default
}

// a decade; bigcache needs a finite window and offline shells outlive any sane TTL
const defaultLifeWindow = 10 * 365 * 24 * time.Hour

type Store struct {
	conf bc.Config

	mu     sync.Mutex
	parts  map[string]*Partition
	closed bool
}

var _ store.Store = (*Store)(nil)

func New(cfg Config) *Store {
	life := cfg.LifeWindow
	if life <= 0 {
		life = defaultLifeWindow
	}
	conf := bc.DefaultConfig(life)
	if cfg.CleanWindow > 0 {
		conf.CleanWindow = cfg.CleanWindow
	}
	if cfg.MaxEntriesInWindow > 0 {
		conf.MaxEntriesInWindow = cfg.MaxEntriesInWindow
	}
	if cfg.MaxEntrySize > 0 {
		conf.MaxEntrySize = cfg.MaxEntrySize
	}
	if cfg.HardMaxCacheSizeMB > 0 {
		conf.HardMaxCacheSize = cfg.HardMaxCacheSizeMB
	}
	if cfg.Shards > 0 {
		conf.Shards = cfg.Shards
	}
	conf.Verbose = false
	return &Store{conf: conf, parts: make(map[string]*Partition)}
}

func (s *Store) Open(_ context.Context, name string) (store.Partition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, store.ErrClosed
	}
	if p, ok := s.parts[name]; ok {
		return p, nil
	}
	c, err := bc.NewBigCache(s.conf)
	if err != nil {
		return nil, err
	}
	p := &Partition{name: name, c: c}
	s.parts[name] = p
	return p, nil
}

func (s *Store) Names(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, store.ErrClosed
	}
	out := make([]string, 0, len(s.parts))
	for name := range s.parts {
		out = append(out, name)
	}
	return out, nil
}

func (s *Store) Delete(_ context.Context, name string) (bool, error) {
	s.mu.Lock()
	p, ok := s.parts[name]
	if ok {
		delete(s.parts, name)
	}
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return false, store.ErrClosed
	}
	if !ok {
		return false, nil
	}
	return true, p.close()
}

func (s *Store) Close(_ context.Context) error {
	s.mu.Lock()
	parts := s.parts
	s.parts = make(map[string]*Partition)
	s.closed = true
	s.mu.Unlock()

	var errs []error
	for _, p := range parts {
		if err := p.close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type Partition struct {
	name string

	mu     sync.RWMutex
	c      *bc.BigCache
	closed bool
}

var _ store.Partition = (*Partition)(nil)

func (p *Partition) Name() string { return p.name }

func (p *Partition) Get(_ context.Context, key string) ([]byte, bool, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return nil, false, nil
	}
	b, err := p.c.Get(key)
	if errors.Is(err, bc.ErrEntryNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (p *Partition) Put(_ context.Context, key string, value []byte) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return store.ErrClosed
	}
	// bigcache copies value into its shard ring
	return p.c.Set(key, value)
}

func (p *Partition) Delete(_ context.Context, key string) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return nil
	}
	if err := p.c.Delete(key); err != nil && !errors.Is(err, bc.ErrEntryNotFound) {
		return err
	}
	return nil
}

func (p *Partition) close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.c.Close()
}
