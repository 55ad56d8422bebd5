package proxy

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

type rtFunc func(*http.Request) (*http.Response, error)

func (f rtFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestProxyRewritesToOrigin(t *testing.T) {
	origin, _ := url.Parse("https://origin.test/app")
	var seen *http.Request
	p := New(Config{
		Origin: origin,
		Transport: rtFunc(func(r *http.Request) (*http.Response, error) {
			seen = r
			return &http.Response{
				StatusCode: 200,
				Header:     http.Header{"Content-Type": {"text/plain"}},
				Body:       io.NopCloser(strings.NewReader("hi")),
				Request:    r,
			}, nil
		}),
		Version: func() string { return "v3" },
	})

	rec := httptest.NewRecorder()
	p.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "http://proxy.local/main.js?x=1", nil))

	if seen == nil {
		t.Fatal("transport not called")
	}
	if got := seen.URL.String(); got != "https://origin.test/app/main.js?x=1" {
		t.Fatalf("upstream url=%s", got)
	}
	if seen.Host != "origin.test" {
		t.Fatalf("host=%s", seen.Host)
	}
	if rec.Code != 200 || rec.Body.String() != "hi" || rec.Header().Get(VersionHeader) != "v3" {
		t.Fatalf("code=%d body=%q headers=%v", rec.Code, rec.Body.String(), rec.Header())
	}
}

func TestProxyTransportErrorIsBadGateway(t *testing.T) {
	origin, _ := url.Parse("https://origin.test")
	p := New(Config{
		Origin:    origin,
		Host:      "virtual.test",
		Transport: rtFunc(func(r *http.Request) (*http.Response, error) {
			if r.Host != "virtual.test" {
				t.Errorf("host override ignored: %s", r.Host)
			}
			return nil, errors.New("connection refused")
		}),
	})
	rec := httptest.NewRecorder()
	p.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "http://proxy.local/api", strings.NewReader("{}")))
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("code=%d", rec.Code)
	}
}
