// Package asynchook moves hook delivery off the request path.
//
// usage:
//
//	raw := sloghook.New(slog.Default(), sloghook.Options{ServedEvery: 100})
//	hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
//	defer hooks.Close()
//
//	reg, _ := swcache.New(swcache.Options{
//	    Store: memory.New(),
//	    Hooks: hooks, // or `raw` if you don't want async
//	})
package asynchook

import (
	"sync"
	"sync/atomic"

	"github.com/unkn0wn-root/swcache"
)

// Hooks forwards events to inner from a bounded queue. When the queue is full
// the event is dropped and counted.
type Hooks struct {
	inner   swcache.Hooks
	q       chan func()
	wg      sync.WaitGroup
	once    sync.Once
	mu      sync.RWMutex
	closed  bool
	dropped atomic.Uint64
}

var _ swcache.Hooks = (*Hooks)(nil)

func New(inner swcache.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

// Close drains queued events. Events sent after Close are dropped.
func (h *Hooks) Close() {
	h.once.Do(func() {
		h.mu.Lock()
		h.closed = true
		close(h.q)
		h.mu.Unlock()
		h.wg.Wait()
	})
}

// Dropped reports how many events were lost to a full queue or a closed hook.
func (h *Hooks) Dropped() uint64 { return h.dropped.Load() }

func (h *Hooks) try(f func()) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		h.dropped.Add(1)
		return
	}
	select {
	case h.q <- f:
	default:
		h.dropped.Add(1)
	}
}

func (h *Hooks) Served(c swcache.Class, s swcache.Strategy, src swcache.Source) {
	h.try(func() { h.inner.Served(c, s, src) })
}
func (h *Hooks) StoreFailed(p string, err error) { h.try(func() { h.inner.StoreFailed(p, err) }) }
func (h *Hooks) SelfHeal(p, k, r string)         { h.try(func() { h.inner.SelfHeal(p, k, r) }) }
func (h *Hooks) PrecacheFailed(v string, err error) {
	h.try(func() { h.inner.PrecacheFailed(v, err) })
}
func (h *Hooks) PartitionDeleteFailed(n string, err error) {
	h.try(func() { h.inner.PartitionDeleteFailed(n, err) })
}
func (h *Hooks) Activated(v string)       { h.try(func() { h.inner.Activated(v) }) }
func (h *Hooks) UpdateAvailable(v string) { h.try(func() { h.inner.UpdateAvailable(v) }) }
