package swcache

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/unkn0wn-root/swcache/internal/util"
	"github.com/unkn0wn-root/swcache/internal/wire"
	"github.com/unkn0wn-root/swcache/store"
)

// State is the lifecycle state of one cache version.
type State int32

const (
	StateParsed State = iota
	StateInstalling
	StateInstalled // ready; waiting for activation
	StateActivating
	StateActivated
	StateRedundant // failed install or superseded
)

func (s State) String() string {
	switch s {
	case StateParsed:
		return "parsed"
	case StateInstalling:
		return "installing"
	case StateInstalled:
		return "installed"
	case StateActivating:
		return "activating"
	case StateActivated:
		return "activated"
	default:
		return "redundant"
	}
}

// WorkerConfig is the immutable configuration of one cache version.
type WorkerConfig struct {
	Version   string
	Namespace string   // cache namespace; partitions are "<Namespace>-..."
	Manifest  []string // application shell paths, resolved against Origin
	Origin    *url.URL
	Patterns  Patterns // zero => DefaultPatterns()
}

func (c WorkerConfig) validate() error {
	switch {
	case c.Version == "":
		return fmt.Errorf("swcache: version is required")
	case c.Namespace == "":
		return fmt.Errorf("swcache: namespace is required")
	case c.Version == "runtime" || c.Version == "assets":
		return fmt.Errorf("swcache: version %q collides with the %s partition", c.Version, c.Version)
	case len(c.Manifest) > 0 && (c.Origin == nil || c.Origin.Host == ""):
		return fmt.Errorf("swcache: origin is required to precache a manifest")
	}
	return nil
}

// Partitions names the three partitions a version reads from.
type Partitions struct {
	Core    string // "<ns>-<version>"
	Runtime string // "<ns>-runtime"
	Assets  string // "<ns>-assets"
}

func partitionsFor(ns, version string) Partitions {
	return Partitions{
		Core:    ns + "-" + version,
		Runtime: ns + "-runtime",
		Assets:  ns + "-assets",
	}
}

func (p Partitions) owns(name string) bool {
	return name == p.Core || name == p.Runtime || name == p.Assets
}

// Worker is one cache version. Use it (or the Registration that owns it) as an
// http.RoundTripper.
type Worker struct {
	cfg    WorkerConfig
	names  Partitions
	prefix string
	env    *env
	state  atomic.Int32

	partMu sync.RWMutex
	parts  map[string]store.Partition

	bgMu     sync.Mutex
	bgIdle   *sync.Cond
	inflight int
	bgClosed bool
}

var _ http.RoundTripper = (*Worker)(nil)

func newWorker(cfg WorkerConfig, e *env) *Worker {
	if cfg.Patterns.isZero() {
		cfg.Patterns = DefaultPatterns()
	}
	w := &Worker{
		cfg:    cfg,
		names:  partitionsFor(cfg.Namespace, cfg.Version),
		prefix: cfg.Namespace + "-",
		env:    e,
		parts:  make(map[string]store.Partition, 3),
	}
	w.bgIdle = sync.NewCond(&w.bgMu)
	return w
}

func (w *Worker) Version() string        { return w.cfg.Version }
func (w *Worker) Partitions() Partitions { return w.names }
func (w *Worker) State() State           { return State(w.state.Load()) }
func (w *Worker) setState(s State)       { w.state.Store(int32(s)) }

type staged struct {
	key  string
	snap Snapshot
}

// install precaches the manifest into the core partition. All entries are
// fetched before anything is written; any failure removes the core partition
// so a partially precached version is never left behind.
func (w *Worker) install(ctx context.Context) error {
	w.setState(StateInstalling)
	log := w.env.log
	log.Info("installing version", Fields{"version": w.cfg.Version, "entries": len(w.cfg.Manifest)})

	core, err := w.env.store.Open(ctx, w.names.Core)
	if err != nil {
		w.setState(StateRedundant)
		return &PrecacheError{Version: w.cfg.Version, Err: err}
	}

	entries := make([]staged, len(w.cfg.Manifest))
	var g errgroup.Group
	g.SetLimit(w.env.parallel)
	for i, path := range w.cfg.Manifest {
		g.Go(func() error {
			key, snap, err := w.precacheFetch(ctx, path)
			if err != nil {
				return err
			}
			entries[i] = staged{key: key, snap: snap}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		w.discardCore(ctx)
		w.setState(StateRedundant)
		return err
	}

	for i, e := range entries {
		if err := w.write(ctx, core, e.key, e.snap); err != nil {
			w.discardCore(ctx)
			w.setState(StateRedundant)
			return &PrecacheError{Version: w.cfg.Version, Path: w.cfg.Manifest[i], Err: err}
		}
	}

	w.setState(StateInstalled)
	log.Info("version installed", Fields{"version": w.cfg.Version, "partition": w.names.Core})
	return nil
}

func (w *Worker) precacheFetch(ctx context.Context, path string) (string, Snapshot, error) {
	fail := func(status int, err error) (string, Snapshot, error) {
		return "", Snapshot{}, &PrecacheError{Version: w.cfg.Version, Path: path, Status: status, Err: err}
	}
	ref, err := url.Parse(path)
	if err != nil {
		return fail(0, err)
	}
	u := w.cfg.Origin.ResolveReference(ref)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fail(0, err)
	}
	resp, err := w.fetch(req)
	if err != nil {
		return fail(0, err)
	}
	if resp.StatusCode != http.StatusOK {
		if resp.Body != nil {
			_ = resp.Body.Close()
		}
		return fail(resp.StatusCode, fmt.Errorf("status %d", resp.StatusCode))
	}
	snap, ok, err := snapshotOf(resp, w.env.maxBody)
	if err != nil {
		return fail(0, err)
	}
	if !ok {
		_ = resp.Body.Close()
		return fail(0, fmt.Errorf("body exceeds %d bytes", w.env.maxBody))
	}
	return util.RequestKey(http.MethodGet, u), snap, nil
}

func (w *Worker) discardCore(ctx context.Context) {
	if _, err := w.env.store.Delete(ctx, w.names.Core); err != nil {
		w.env.log.Warn("could not discard partial precache", Fields{"partition": w.names.Core, "err": err})
	}
}

// activate deletes every namespace partition this version does not own, then
// opens its own three. Delete failures are reported and skipped; the returned
// error joins them for the caller to log.
func (w *Worker) activate(ctx context.Context) error {
	w.setState(StateActivating)
	log := w.env.log

	var errs []error
	names, err := w.env.store.Names(ctx)
	if err != nil {
		log.Warn("could not list partitions; skipping cleanup", Fields{"version": w.cfg.Version, "err": err})
		errs = append(errs, err)
	}
	for _, name := range names {
		if !strings.HasPrefix(name, w.prefix) || w.names.owns(name) {
			continue
		}
		if _, err := w.env.store.Delete(ctx, name); err != nil {
			perr := &PartitionDeleteError{Name: name, Err: err}
			log.Warn("could not delete stale partition", Fields{"partition": name, "err": err})
			w.env.hooks.PartitionDeleteFailed(name, err)
			errs = append(errs, perr)
			continue
		}
		log.Info("deleted stale partition", Fields{"partition": name})
	}

	if err := w.openPartitions(ctx); err != nil {
		errs = append(errs, err)
	}
	w.setState(StateActivated)
	return errors.Join(errs...)
}

// openPartitions (re)acquires handles to the three partitions. Called on
// activation and after CLEAR_CACHE dropped them.
func (w *Worker) openPartitions(ctx context.Context) error {
	var errs []error
	parts := make(map[string]store.Partition, 3)
	for _, name := range []string{w.names.Core, w.names.Runtime, w.names.Assets} {
		p, err := w.env.store.Open(ctx, name)
		if err != nil {
			w.env.log.Error("could not open partition", Fields{"partition": name, "err": err})
			errs = append(errs, err)
			continue
		}
		parts[name] = p
	}
	w.partMu.Lock()
	w.parts = parts
	w.partMu.Unlock()
	return errors.Join(errs...)
}

func (w *Worker) partition(name string) store.Partition {
	w.partMu.RLock()
	defer w.partMu.RUnlock()
	return w.parts[name]
}

// retire marks the worker redundant and waits for its background writes.
func (w *Worker) retire() {
	w.setState(StateRedundant)
	w.bgMu.Lock()
	w.bgClosed = true
	for w.inflight > 0 {
		w.bgIdle.Wait()
	}
	w.bgMu.Unlock()
}

// background runs fn off the request path; once retired, fn runs inline.
func (w *Worker) background(fn func()) {
	w.bgMu.Lock()
	if w.bgClosed {
		w.bgMu.Unlock()
		fn()
		return
	}
	w.inflight++
	w.bgMu.Unlock()
	go func() {
		defer func() {
			w.bgMu.Lock()
			w.inflight--
			if w.inflight == 0 {
				w.bgIdle.Broadcast()
			}
			w.bgMu.Unlock()
		}()
		fn()
	}()
}

// settle waits until no background write is in flight.
func (w *Worker) settle() {
	w.bgMu.Lock()
	for w.inflight > 0 {
		w.bgIdle.Wait()
	}
	w.bgMu.Unlock()
}

// write frames and stores a snapshot. Only 200 snapshots are ever written.
func (w *Worker) write(ctx context.Context, p store.Partition, key string, snap Snapshot) error {
	if snap.Status != http.StatusOK {
		return fmt.Errorf("swcache: refusing to store status %d", snap.Status)
	}
	payload, err := w.env.codec.Encode(snap)
	if err != nil {
		return err
	}
	return p.Put(ctx, key, wire.EncodeEntry(time.Now(), payload))
}
