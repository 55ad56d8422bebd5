package swcache

import (
	"context"
	"errors"
	"net/http"

	"github.com/unkn0wn-root/swcache/internal/util"
	"github.com/unkn0wn-root/swcache/internal/wire"
	"github.com/unkn0wn-root/swcache/store"
)

type route struct {
	strategy  Strategy
	partition string
}

// routeFor is the strategy table; first match wins.
func (w *Worker) routeFor(class Class) route {
	switch class {
	case ClassHTML:
		return route{NetworkFirst, w.names.Runtime}
	case ClassCritical:
		return route{CacheFirst, w.names.Core}
	case ClassAsset:
		return route{CacheFirst, w.names.Assets}
	default:
		return route{NetworkFirst, w.names.Runtime}
	}
}

func intercepts(req *http.Request) bool {
	if req.Method != "" && req.Method != http.MethodGet {
		return false
	}
	if req.URL == nil {
		return false
	}
	return req.URL.Scheme == "http" || req.URL.Scheme == "https"
}

// RoundTrip answers GET http(s) requests through the cache strategies. Every
// other request goes straight to the network untouched. Intercepted requests
// never return an error: the worst case is a synthesized 503 or 404.
func (w *Worker) RoundTrip(req *http.Request) (*http.Response, error) {
	if !intercepts(req) {
		return w.env.network.RoundTrip(req)
	}
	class := Classify(w.cfg.Patterns, req.URL.Path, req.Header.Get("Accept"))
	r := w.routeFor(class)

	var (
		resp *http.Response
		src  Source
	)
	if r.strategy == CacheFirst {
		resp, src = w.cacheFirst(req, r.partition)
	} else {
		resp, src = w.networkFirst(req, r.partition)
	}
	w.env.hooks.Served(class, r.strategy, src)
	return resp, nil
}

// networkFirst returns the live network response as soon as headers arrive.
// A 200 body is copied while the caller reads it and persisted in the
// background once fully read.
func (w *Worker) networkFirst(req *http.Request, partition string) (*http.Response, Source) {
	key := util.RequestKey(http.MethodGet, req.URL)
	resp, err := w.fetch(req)
	if err == nil {
		if resp.StatusCode == http.StatusOK {
			ctx := context.WithoutCancel(req.Context())
			teeSnapshot(resp, w.env.maxBody, func(snap Snapshot) {
				w.background(func() { w.persist(ctx, partition, key, snap) })
			})
		}
		return resp, SourceNetwork
	}

	w.env.log.Debug("network failed; trying cache", Fields{"key": key, "partition": partition, "err": err})
	if snap, ok := w.match(req.Context(), partition, key); ok {
		return snap.response(req), SourceCache
	}
	return offlineResponse(req), SourceFallback
}

func (w *Worker) cacheFirst(req *http.Request, partition string) (*http.Response, Source) {
	key := util.RequestKey(http.MethodGet, req.URL)
	if snap, ok := w.match(req.Context(), partition, key); ok {
		return snap.response(req), SourceCache
	}

	resp, err := w.fetch(req)
	if err != nil {
		w.env.log.Debug("cache miss and network failed", Fields{"key": key, "partition": partition, "err": err})
		return unavailableResponse(req), SourceFallback
	}
	if resp.StatusCode != http.StatusOK {
		return resp, SourceNetwork
	}
	snap, ok, err := snapshotOf(resp, w.env.maxBody)
	switch {
	case err != nil:
		w.env.log.Debug("reading response body failed", Fields{"key": key, "err": err})
		return unavailableResponse(req), SourceFallback
	case !ok:
		w.env.log.Debug("response too large to cache", Fields{"key": key, "limit": w.env.maxBody})
		return resp, SourceNetwork
	}
	w.persist(req.Context(), partition, key, snap)
	return resp, SourceNetwork
}

// fetch calls the network primitive. A nil response without an error counts
// as a transport failure.
func (w *Worker) fetch(req *http.Request) (*http.Response, error) {
	resp, err := w.env.network.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, errors.New("swcache: network returned no response")
	}
	return resp, nil
}

// match looks key up in first, then in the other partitions of this version.
// Partitions of other versions are never read.
func (w *Worker) match(ctx context.Context, first, key string) (Snapshot, bool) {
	if snap, ok := w.lookup(ctx, first, key); ok {
		return snap, true
	}
	for _, name := range []string{w.names.Core, w.names.Runtime, w.names.Assets} {
		if name == first {
			continue
		}
		if snap, ok := w.lookup(ctx, name, key); ok {
			return snap, true
		}
	}
	return Snapshot{}, false
}

// lookup reads and decodes an entry. Backend errors count as a miss; entries
// that fail to decode are deleted.
func (w *Worker) lookup(ctx context.Context, partition, key string) (Snapshot, bool) {
	p := w.partition(partition)
	if p == nil {
		return Snapshot{}, false
	}
	b, ok, err := p.Get(ctx, key)
	if err != nil {
		w.env.log.Warn("cache lookup failed; treating as miss", Fields{"partition": partition, "key": key, "err": err})
		return Snapshot{}, false
	}
	if !ok {
		return Snapshot{}, false
	}
	_, payload, err := wire.DecodeEntry(b)
	if err != nil {
		w.heal(ctx, p, key, "corrupt", err)
		return Snapshot{}, false
	}
	snap, err := w.env.codec.Decode(payload)
	if err != nil || snap.Status != http.StatusOK {
		w.heal(ctx, p, key, "decode", err)
		return Snapshot{}, false
	}
	return snap, true
}

func (w *Worker) heal(ctx context.Context, p store.Partition, key, reason string, cause error) {
	w.env.log.Warn("dropping unreadable entry", Fields{"partition": p.Name(), "key": key, "reason": reason, "err": cause})
	if err := p.Delete(ctx, key); err != nil {
		w.env.log.Warn("self-heal delete failed", Fields{"partition": p.Name(), "key": key, "err": err})
	}
	w.env.hooks.SelfHeal(p.Name(), key, reason)
}

// persist writes a 200 snapshot. Failures are reported, never returned: the
// caller already has its response.
func (w *Worker) persist(ctx context.Context, partition, key string, snap Snapshot) {
	p := w.partition(partition)
	if p == nil {
		return
	}
	if err := w.write(ctx, p, key, snap); err != nil {
		w.env.log.Warn("cache write failed", Fields{"partition": partition, "key": key, "err": err})
		w.env.hooks.StoreFailed(partition, err)
	}
}
