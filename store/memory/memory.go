// Package memory is the default in-process partition store.
package memory

import (
	"context"
	"sync"

	"github.com/unkn0wn-root/swcache/store"
)

type Store struct {
	mu     sync.RWMutex
	parts  map[string]*Partition
	closed bool
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{parts: make(map[string]*Partition)}
}

func (s *Store) Open(_ context.Context, name string) (store.Partition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, store.ErrClosed
	}
	p, ok := s.parts[name]
	if !ok {
		p = &Partition{name: name, m: make(map[string][]byte)}
		s.parts[name] = p
	}
	return p, nil
}

func (s *Store) Names(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
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
	defer s.mu.Unlock()
	if s.closed {
		return false, store.ErrClosed
	}
	p, ok := s.parts[name]
	if !ok {
		return false, nil
	}
	delete(s.parts, name)
	p.drop()
	return true, nil
}

func (s *Store) Close(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	for name, p := range s.parts {
		p.drop()
		delete(s.parts, name)
	}
	return nil
}

// Partition handles outlive deletion of their partition; once dropped they
// behave as empty and reject writes with store.ErrClosed.
type Partition struct {
	name    string
	mu      sync.RWMutex
	m       map[string][]byte
	dropped bool
}

var _ store.Partition = (*Partition)(nil)

func (p *Partition) Name() string { return p.name }

func (p *Partition) Get(_ context.Context, key string) ([]byte, bool, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	v, ok := p.m[key]
	if !ok {
		return nil, false, nil
	}
	return v, true, nil
}

func (p *Partition) Put(_ context.Context, key string, value []byte) error {
	// own the bytes; callers may reuse their buffer
	b := make([]byte, len(value))
	copy(b, value)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.dropped {
		return store.ErrClosed
	}
	p.m[key] = b
	return nil
}

func (p *Partition) Delete(_ context.Context, key string) error {
	p.mu.Lock()
	delete(p.m, key)
	p.mu.Unlock()
	return nil
}

// Len returns the number of entries currently held.
func (p *Partition) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.m)
}

func (p *Partition) drop() {
	p.mu.Lock()
	p.dropped = true
	p.m = make(map[string][]byte)
	p.mu.Unlock()
}
