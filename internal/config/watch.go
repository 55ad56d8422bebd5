package config

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const debounce = 50 * time.Millisecond

// Watcher reloads the config file on change. Stop must be called to release
// filesystem resources.
type Watcher struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// Stop halts the watcher and waits for its goroutine to exit.
func (w *Watcher) Stop() {
	if w == nil {
		return
	}
	w.once.Do(func() {
		w.cancel()
		<-w.done
	})
}

// Watch calls onChange with every configuration successfully reloaded after
// the file changed. Invalid edits go to onError and the previous
// configuration stays in effect.
func (l *Loader) Watch(ctx context.Context, onChange func(Config), onError func(error)) (*Watcher, error) {
	if onChange == nil {
		return nil, fmt.Errorf("config: watch requires a change callback")
	}
	if l.path == "" {
		return nil, fmt.Errorf("config: no config file to watch")
	}
	target, err := filepath.Abs(l.path)
	if err != nil {
		return nil, fmt.Errorf("config: resolve %s: %w", l.path, err)
	}
	target = filepath.Clean(target)

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config: watch: %w", err)
	}
	// watch the directory: editors replace files by rename
	if err := fw.Add(filepath.Dir(target)); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("config: watch add %s: %w", filepath.Dir(target), err)
	}

	watchCtx, cancel := context.WithCancel(ctx)
	w := &Watcher{cancel: cancel, done: make(chan struct{})}
	report := func(err error) {
		if onError != nil {
			onError(err)
		}
	}

	go func() {
		defer close(w.done)
		defer func() {
			if err := fw.Close(); err != nil {
				report(fmt.Errorf("config: watch close: %w", err))
			}
		}()

		timer := time.NewTimer(debounce)
		if !timer.Stop() {
			<-timer.C
		}
		defer timer.Stop()

		for {
			select {
			case <-watchCtx.Done():
				return
			case <-timer.C:
				cfg, err := l.Load(watchCtx)
				if err != nil {
					if !errors.Is(err, context.Canceled) {
						report(err)
					}
					continue
				}
				onChange(cfg)
			case ev, ok := <-fw.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				timer.Reset(debounce)
			case err, ok := <-fw.Errors:
				if !ok {
					return
				}
				report(fmt.Errorf("config: watch error: %w", err))
			}
		}
	}()
	return w, nil
}
