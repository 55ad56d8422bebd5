package versionstore

import (
	"context"
	"sync"
	"time"
)

// Local keeps version records in-process (default).
type Local struct {
	mu   sync.RWMutex
	recs map[string]Record
}

var _ Store = (*Local)(nil)

func NewLocal() *Local {
	return &Local{recs: make(map[string]Record)}
}

func (s *Local) Load(_ context.Context, ns string) (Record, bool, error) {
	s.mu.RLock()
	r, ok := s.recs[ns]
	s.mu.RUnlock()
	return r, ok, nil
}

func (s *Local) Commit(_ context.Context, ns, version string) (Record, error) {
	now := time.Now()
	s.mu.Lock()
	r := s.recs[ns]
	r.Version = version
	r.Generation++
	r.ActivatedAt = now
	s.recs[ns] = r
	s.mu.Unlock()
	return r, nil
}

func (s *Local) Close(context.Context) error { return nil }
