// Package ristretto backs each partition with its own dgraph-io/ristretto cache,
// so dropping a partition is a single Close with no key enumeration.
package ristretto

import (
	"context"
	"errors"
	"sync"

	rc "github.com/dgraph-io/ristretto"

	"github.com/unkn0wn-root/swcache/store"
)

type Config struct {
	// Per-partition sizing.
	NumCounters int64
	MaxCost     int64
	BufferItems int64
	Metrics     bool
	// Cost computes the admission cost of a value; nil => len(value).
	Cost func(value []byte) int64
}

type Store struct {
	cfg Config

	mu     sync.Mutex
	parts  map[string]*Partition
	closed bool
}

var _ store.Store = (*Store)(nil)

func New(cfg Config) (*Store, error) {
	if cfg.NumCounters <= 0 || cfg.MaxCost <= 0 || cfg.BufferItems <= 0 {
		return nil, errors.New("ristretto: invalid config")
	}
	if cfg.Cost == nil {
		cfg.Cost = func(v []byte) int64 { return int64(len(v)) }
	}
	return &Store{cfg: cfg, parts: make(map[string]*Partition)}, nil
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
	c, err := rc.NewCache(&rc.Config{
		NumCounters: s.cfg.NumCounters,
		MaxCost:     s.cfg.MaxCost,
		BufferItems: s.cfg.BufferItems,
		Metrics:     s.cfg.Metrics,
	})
	if err != nil {
		return nil, err
	}
	p := &Partition{name: name, c: c, cost: s.cfg.Cost}
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
	p.close()
	return true, nil
}

func (s *Store) Close(_ context.Context) error {
	s.mu.Lock()
	parts := s.parts
	s.parts = make(map[string]*Partition)
	s.closed = true
	s.mu.Unlock()
	for _, p := range parts {
		p.close()
	}
	return nil
}

// Metrics exposes the ristretto metrics of a partition, if enabled
// (not part of store.Store).
func (s *Store) Metrics(name string) *rc.Metrics {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.parts[name]; ok {
		return p.c.Metrics
	}
	return nil
}

type Partition struct {
	name string
	cost func([]byte) int64

	mu     sync.RWMutex
	c      *rc.Cache
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
	v, ok := p.c.Get(key)
	if !ok {
		return nil, false, nil
	}
	b, _ := v.([]byte)
	if b == nil {
		// self-heal: drop unexpected entry shape
		p.c.Del(key)
		return nil, false, nil
	}
	return b, true, nil
}

func (p *Partition) Put(_ context.Context, key string, value []byte) error {
	b := make([]byte, len(value))
	copy(b, value)

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return store.ErrClosed
	}
	if !p.c.SetWithTTL(key, b, p.cost(b), 0) {
		return store.ErrRejected
	}
	// ristretto applies sets asynchronously; make the write visible to readers
	p.c.Wait()
	return nil
}

func (p *Partition) Delete(_ context.Context, key string) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.closed {
		p.c.Del(key)
	}
	return nil
}

func (p *Partition) close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	p.c.Close()
}
