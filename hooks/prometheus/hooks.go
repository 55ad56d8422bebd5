// Package promhook exports swcache events as Prometheus metrics.
package promhook

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/unkn0wn-root/swcache"
)

// Hooks is a swcache.Hooks backed by Prometheus counters. A nil *Hooks is a
// valid no-op.
type Hooks struct {
	gatherer prometheus.Gatherer
	handler  http.Handler

	served         *prometheus.CounterVec
	storeFailures  *prometheus.CounterVec
	selfHeals      *prometheus.CounterVec
	precacheFails  *prometheus.CounterVec
	deleteFailures prometheus.Counter
	activations    prometheus.Counter
	updates        prometheus.Counter
	activeVersion  *prometheus.GaugeVec
}

var _ swcache.Hooks = (*Hooks)(nil)

// New registers the swcache collectors on reg. When reg is nil a dedicated
// registry is created so several instances never collide on the default one.
func New(reg *prometheus.Registry) *Hooks {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	reg.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	h := &Hooks{
		served: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "swcache",
			Name:      "requests_served_total",
			Help:      "Intercepted requests by class, strategy and response source.",
		}, []string{"class", "strategy", "source"}),
		storeFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "swcache",
			Subsystem: "store",
			Name:      "write_failures_total",
			Help:      "Snapshots that could not be written.",
		}, []string{"partition"}),
		selfHeals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "swcache",
			Subsystem: "store",
			Name:      "self_heals_total",
			Help:      "Unreadable entries deleted on read.",
		}, []string{"reason"}),
		precacheFails: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "swcache",
			Subsystem: "lifecycle",
			Name:      "install_failures_total",
			Help:      "Installs rejected because the precache manifest failed.",
		}, []string{"version"}),
		deleteFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "swcache",
			Subsystem: "lifecycle",
			Name:      "partition_delete_failures_total",
			Help:      "Partitions that could not be deleted during cleanup.",
		}),
		activations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "swcache",
			Subsystem: "lifecycle",
			Name:      "activations_total",
			Help:      "Versions that took control.",
		}),
		updates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "swcache",
			Subsystem: "lifecycle",
			Name:      "updates_available_total",
			Help:      "Installed versions announced while another version controlled.",
		}),
		activeVersion: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "swcache",
			Subsystem: "lifecycle",
			Name:      "active_version_info",
			Help:      "1 for the controlling version.",
		}, []string{"version"}),
	}
	reg.MustRegister(h.served, h.storeFailures, h.selfHeals, h.precacheFails,
		h.deleteFailures, h.activations, h.updates, h.activeVersion)

	h.gatherer = reg
	h.handler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	return h
}

// Handler serves the registry in the Prometheus exposition format.
func (h *Hooks) Handler() http.Handler {
	if h == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "metrics unavailable", http.StatusServiceUnavailable)
		})
	}
	return h.handler
}

func (h *Hooks) Gatherer() prometheus.Gatherer {
	if h == nil {
		return prometheus.NewRegistry()
	}
	return h.gatherer
}

func (h *Hooks) Served(c swcache.Class, s swcache.Strategy, src swcache.Source) {
	if h == nil {
		return
	}
	h.served.WithLabelValues(c.String(), s.String(), string(src)).Inc()
}

func (h *Hooks) StoreFailed(partition string, _ error) {
	if h == nil {
		return
	}
	h.storeFailures.WithLabelValues(partition).Inc()
}

func (h *Hooks) SelfHeal(_, _, reason string) {
	if h == nil {
		return
	}
	h.selfHeals.WithLabelValues(reason).Inc()
}

func (h *Hooks) PrecacheFailed(version string, _ error) {
	if h == nil {
		return
	}
	h.precacheFails.WithLabelValues(version).Inc()
}

func (h *Hooks) PartitionDeleteFailed(string, error) {
	if h == nil {
		return
	}
	h.deleteFailures.Inc()
}

func (h *Hooks) Activated(version string) {
	if h == nil {
		return
	}
	h.activations.Inc()
	h.activeVersion.Reset()
	h.activeVersion.WithLabelValues(version).Set(1)
}

func (h *Hooks) UpdateAvailable(string) {
	if h == nil {
		return
	}
	h.updates.Inc()
}
