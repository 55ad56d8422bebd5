package swcache

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// MessageType is a command sent by the controlling application.
type MessageType string

const (
	MsgSkipWaiting MessageType = "SKIP_WAITING" // activate the waiting version now
	MsgClearCache  MessageType = "CLEAR_CACHE"  // delete every partition
	MsgGetVersion  MessageType = "GET_VERSION"  // reply with the active version
)

// Message is one inbound command. Reply is required for GET_VERSION only and
// should be buffered; the reply is abandoned when ctx ends first.
type Message struct {
	Type  MessageType         `json:"type"`
	Reply chan<- VersionReply `json:"-"`
}

type VersionReply struct {
	Version string `json:"version"`
}

// Post handles one message and returns once its work settled.
func (r *Registration) Post(ctx context.Context, m Message) error {
	r.mu.RLock()
	closed := r.closed
	r.mu.RUnlock()
	if closed {
		return ErrClosed
	}
	if m.Type == MsgSkipWaiting || m.Type == MsgClearCache {
		r.jobMu.Lock()
		defer r.jobMu.Unlock()
		// Close may have run while we waited for the lock.
		r.mu.RLock()
		closed = r.closed
		r.mu.RUnlock()
		if closed {
			return ErrClosed
		}
	}
	return r.dispatch(ctx, TriggerMessage, event{msg: m})
}

// Listen handles every message from msgs as its own task until msgs is
// closed or ctx ends, then waits for in-flight messages. Failures are logged.
func (r *Registration) Listen(ctx context.Context, msgs <-chan Message) error {
	var wg sync.WaitGroup
	defer wg.Wait()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m, ok := <-msgs:
			if !ok {
				return nil
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := r.Post(ctx, m); err != nil {
					r.env.log.Warn("message failed", Fields{"type": string(m.Type), "err": err})
				}
			}()
		}
	}
}

func (r *Registration) onMessage(ctx context.Context, ev event) error {
	switch ev.msg.Type {
	case MsgSkipWaiting:
		return r.skipWaiting(ctx)
	case MsgClearCache:
		return r.clearCache(ctx)
	case MsgGetVersion:
		return r.getVersion(ctx, ev.msg.Reply)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMessage, ev.msg.Type)
	}
}

func (r *Registration) skipWaiting(ctx context.Context) error {
	w := r.Waiting()
	if w == nil {
		r.env.log.Debug("skip waiting: nothing is waiting", nil)
		return nil
	}
	return r.dispatch(ctx, TriggerActivate, event{worker: w})
}

// clearCache deletes every partition in the store, drops the waiting version
// whose precache is gone, and lets the active version start from empty
// partitions.
func (r *Registration) clearCache(ctx context.Context) error {
	names, err := r.env.store.Names(ctx)
	if err != nil {
		return err
	}
	var errs []error
	for _, name := range names {
		if _, err := r.env.store.Delete(ctx, name); err != nil {
			r.env.log.Warn("could not delete partition", Fields{"partition": name, "err": err})
			r.env.hooks.PartitionDeleteFailed(name, err)
			errs = append(errs, &PartitionDeleteError{Name: name, Err: err})
		}
	}
	r.env.log.Info("cache cleared", Fields{"partitions": len(names)})

	r.mu.Lock()
	active, waiting := r.active, r.waiting
	r.waiting = nil
	r.mu.Unlock()

	if waiting != nil {
		waiting.retire()
	}
	if active != nil {
		active.settle()
		if err := active.openPartitions(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (r *Registration) getVersion(ctx context.Context, reply chan<- VersionReply) error {
	if reply == nil {
		return ErrNoReplyChannel
	}
	w := r.Active()
	if w == nil {
		return ErrNoController
	}
	select {
	case reply <- VersionReply{Version: w.cfg.Version}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
