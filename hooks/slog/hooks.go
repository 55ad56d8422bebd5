package sloghook

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync/atomic"

	"github.com/unkn0wn-root/swcache"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	ServedEvery   uint64
	SelfHealEvery uint64
	// Optional key redactor. Defaults to SHA-256 prefix.
	// Request keys carry full URLs, query strings included.
	Redact func(string) string
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	servedCtr   atomic.Uint64
	selfHealCtr atomic.Uint64
}

var _ swcache.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func (h *Hooks) redact(k string) string {
	if h.opts.Redact != nil {
		return h.opts.Redact(k)
	}
	sum := sha256.Sum256([]byte(k))
	return hex.EncodeToString(sum[:8])
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) Served(class swcache.Class, strategy swcache.Strategy, src swcache.Source) {
	if h.l == nil || !sample(h.opts.ServedEvery, &h.servedCtr) {
		return
	}
	h.l.Debug("swcache.served",
		"class", class.String(),
		"strategy", strategy.String(),
		"source", string(src))
}

func (h *Hooks) StoreFailed(partition string, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("swcache.store_failed",
		"partition", partition,
		"err", err)
}

func (h *Hooks) SelfHeal(partition, key, reason string) {
	if h.l == nil || !sample(h.opts.SelfHealEvery, &h.selfHealCtr) {
		return
	}
	h.l.Debug("swcache.self_heal",
		"partition", partition,
		"key", h.redact(key),
		"reason", reason)
}

func (h *Hooks) PrecacheFailed(version string, err error) {
	if h.l == nil {
		return
	}
	h.l.Error("swcache.precache_failed",
		"version", version,
		"err", err)
}

func (h *Hooks) PartitionDeleteFailed(name string, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("swcache.partition_delete_failed",
		"partition", name,
		"err", err)
}

func (h *Hooks) Activated(version string) {
	if h.l == nil {
		return
	}
	h.l.Info("swcache.activated", "version", version)
}

func (h *Hooks) UpdateAvailable(version string) {
	if h.l == nil {
		return
	}
	h.l.Info("swcache.update_available", "version", version)
}
