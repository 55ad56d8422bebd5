package swcache

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/unkn0wn-root/swcache/store"
	vs "github.com/unkn0wn-root/swcache/versionstore"
)

// Trigger keys the lifecycle dispatch table.
type Trigger int

const (
	TriggerInstall Trigger = iota
	TriggerActivate
	TriggerMessage
)

type event struct {
	worker *Worker
	msg    Message
}

type handler func(ctx context.Context, ev event) error

// Registration is the lifecycle manager of one application. It owns every
// partition, installs and activates versions, and answers requests through
// the controlling version.
type Registration struct {
	env      *env
	versions vs.Store
	manual   bool
	handlers map[Trigger]handler

	// jobMu serializes lifecycle jobs (Register, SKIP_WAITING, CLEAR_CACHE).
	// Handlers run under it and must not take it again.
	jobMu sync.Mutex

	mu       sync.RWMutex
	active   *Worker
	waiting  *Worker
	notified map[string]struct{}
	closed   bool
}

var _ http.RoundTripper = (*Registration)(nil)

func newRegistration(e *env, versions vs.Store, manual bool) *Registration {
	r := &Registration{
		env:      e,
		versions: versions,
		manual:   manual,
		notified: make(map[string]struct{}),
	}
	r.handlers = map[Trigger]handler{
		TriggerInstall:  r.onInstall,
		TriggerActivate: r.onActivate,
		TriggerMessage:  r.onMessage,
	}
	return r
}

// dispatch runs the handler for t and returns once all of its work settled.
func (r *Registration) dispatch(ctx context.Context, t Trigger, ev event) error {
	return r.handlers[t](ctx, ev)
}

// Register deploys cfg. A version that is already active or waiting is
// returned as is. A version recorded as active in the version store whose
// core partition still exists is adopted without precaching again.
// Otherwise the version installs and, unless ManualActivation is set, takes
// control immediately. On install failure the previous controller stays in
// place and the error is a *PrecacheError.
func (r *Registration) Register(ctx context.Context, cfg WorkerConfig) (*Worker, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	r.jobMu.Lock()
	defer r.jobMu.Unlock()

	r.mu.RLock()
	closed, active, waiting := r.closed, r.active, r.waiting
	r.mu.RUnlock()
	if closed {
		return nil, ErrClosed
	}
	if active != nil && sameVersion(active.cfg, cfg) {
		return active, nil
	}
	if waiting != nil && sameVersion(waiting.cfg, cfg) {
		return waiting, nil
	}

	w := newWorker(cfg, r.env)
	if active == nil && r.adoptable(ctx, w) {
		w.setState(StateInstalled)
		r.env.log.Info("adopting installed version", Fields{"version": cfg.Version, "partition": w.names.Core})
		if err := r.dispatch(ctx, TriggerActivate, event{worker: w}); err != nil {
			return nil, err
		}
		return w, nil
	}
	if err := r.dispatch(ctx, TriggerInstall, event{worker: w}); err != nil {
		return nil, err
	}
	return w, nil
}

func sameVersion(a, b WorkerConfig) bool {
	return a.Version == b.Version && a.Namespace == b.Namespace
}

func (r *Registration) adoptable(ctx context.Context, w *Worker) bool {
	rec, ok, err := r.versions.Load(ctx, w.cfg.Namespace)
	if err != nil {
		r.env.log.Warn("version store load failed", Fields{"namespace": w.cfg.Namespace, "err": err})
		return false
	}
	if !ok || rec.Version != w.cfg.Version {
		return false
	}
	ok, err = store.Contains(ctx, r.env.store, w.names.Core)
	if err != nil {
		r.env.log.Warn("could not list partitions", Fields{"err": err})
		return false
	}
	return ok
}

// RoundTrip serves req through the controlling version, or straight from the
// network while no version controls the application.
func (r *Registration) RoundTrip(req *http.Request) (*http.Response, error) {
	if w := r.Active(); w != nil {
		return w.RoundTrip(req)
	}
	return r.env.network.RoundTrip(req)
}

// Active returns the controlling version, or nil.
func (r *Registration) Active() *Worker {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active
}

// Waiting returns the installed version waiting for SKIP_WAITING, or nil.
func (r *Registration) Waiting() *Worker {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.waiting
}

// Close waits for background writes, then closes the version store and the
// partition store.
func (r *Registration) Close(ctx context.Context) error {
	r.jobMu.Lock()
	defer r.jobMu.Unlock()

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	active, waiting := r.active, r.waiting
	r.mu.Unlock()

	for _, w := range []*Worker{active, waiting} {
		if w != nil {
			w.retire()
		}
	}
	return errors.Join(r.versions.Close(ctx), r.env.store.Close(ctx))
}
