package swcache

import (
	"context"
)

func (r *Registration) onInstall(ctx context.Context, ev event) error {
	w := ev.worker
	v := w.cfg.Version
	if err := w.install(ctx); err != nil {
		r.env.log.Error("install failed", Fields{"version": v, "err": err})
		r.env.hooks.PrecacheFailed(v, err)
		return err
	}

	r.mu.Lock()
	prev := r.waiting
	r.waiting = w
	notify := false
	if r.active != nil {
		if _, seen := r.notified[v]; !seen {
			r.notified[v] = struct{}{}
			notify = true
		}
	}
	active := r.active
	r.mu.Unlock()

	if prev != nil {
		r.preempt(ctx, prev, active)
	}
	if notify {
		r.env.log.Info("update available", Fields{"version": v})
		r.env.hooks.UpdateAvailable(v)
	}
	if r.manual {
		return nil
	}
	return r.dispatch(ctx, TriggerActivate, event{worker: w})
}

// preempt drops a waiting version replaced by a newer install.
func (r *Registration) preempt(ctx context.Context, old, active *Worker) {
	old.retire()
	if active != nil && active.names.Core == old.names.Core {
		return
	}
	if _, err := r.env.store.Delete(ctx, old.names.Core); err != nil {
		r.env.log.Warn("could not delete preempted version", Fields{"partition": old.names.Core, "err": err})
		r.env.hooks.PartitionDeleteFailed(old.names.Core, err)
	}
}

// onActivate cleans up stale partitions and hands control to ev.worker.
// Cleanup failures are logged and never block the handoff.
func (r *Registration) onActivate(ctx context.Context, ev event) error {
	w := ev.worker
	v := w.cfg.Version
	if err := w.activate(ctx); err != nil {
		r.env.log.Warn("activation cleanup incomplete", Fields{"version": v, "err": err})
	}

	r.mu.Lock()
	prev := r.active
	r.active = w
	if r.waiting == w {
		r.waiting = nil
	}
	r.mu.Unlock()

	if prev != nil && prev != w {
		prev.retire()
	}
	if rec, err := r.versions.Commit(ctx, w.cfg.Namespace, v); err != nil {
		r.env.log.Warn("could not record active version", Fields{"version": v, "err": err})
	} else {
		r.env.log.Info("version activated", Fields{"version": v, "generation": rec.Generation})
	}
	r.env.hooks.Activated(v)
	return nil
}
