package promhook

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/unkn0wn-root/swcache"
)

func TestServedCounters(t *testing.T) {
	h := New(nil)
	h.Served(swcache.ClassCritical, swcache.CacheFirst, swcache.SourceCache)
	h.Served(swcache.ClassCritical, swcache.CacheFirst, swcache.SourceCache)
	h.Served(swcache.ClassHTML, swcache.NetworkFirst, swcache.SourceFallback)

	if got := testutil.ToFloat64(h.served.WithLabelValues("critical", "cache-first", "cache")); got != 2 {
		t.Fatalf("critical cache hits=%v want 2", got)
	}
	if got := testutil.ToFloat64(h.served.WithLabelValues("html", "network-first", "fallback")); got != 1 {
		t.Fatalf("html fallbacks=%v want 1", got)
	}
}

func TestLifecycleMetrics(t *testing.T) {
	h := New(nil)
	h.Activated("v1")
	h.UpdateAvailable("v2")
	h.Activated("v2")
	h.PrecacheFailed("v3", errors.New("boom"))
	h.PartitionDeleteFailed("app-v1", errors.New("busy"))
	h.StoreFailed("app-runtime", errors.New("full"))
	h.SelfHeal("app-assets", "k", "corrupt")

	if got := testutil.ToFloat64(h.activations); got != 2 {
		t.Fatalf("activations=%v", got)
	}
	if got := testutil.CollectAndCount(h.activeVersion); got != 1 {
		t.Fatalf("active version series=%d, want only the current one", got)
	}
	if got := testutil.ToFloat64(h.activeVersion.WithLabelValues("v2")); got != 1 {
		t.Fatalf("v2 info=%v", got)
	}
	if testutil.ToFloat64(h.updates) != 1 || testutil.ToFloat64(h.deleteFailures) != 1 {
		t.Fatal("update/delete counters not incremented")
	}
	if testutil.ToFloat64(h.precacheFails.WithLabelValues("v3")) != 1 ||
		testutil.ToFloat64(h.storeFailures.WithLabelValues("app-runtime")) != 1 ||
		testutil.ToFloat64(h.selfHeals.WithLabelValues("corrupt")) != 1 {
		t.Fatal("failure counters not incremented")
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	h := New(nil)
	h.Activated("v1")

	rec := httptest.NewRecorder()
	h.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `swcache_lifecycle_active_version_info{version="v1"} 1`) {
		t.Fatalf("metrics body missing active version:\n%s", body)
	}
}

func TestNilHooksAreSafe(t *testing.T) {
	var h *Hooks
	h.Served(swcache.ClassOther, swcache.NetworkFirst, swcache.SourceNetwork)
	h.Activated("v1")

	rec := httptest.NewRecorder()
	h.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("code=%d", rec.Code)
	}
}
