// Package proxy serves inbound requests from the origin through a caching
// http.RoundTripper.
package proxy

import (
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/unkn0wn-root/swcache"
)

// VersionHeader carries the controlling cache version on proxied responses.
const VersionHeader = "X-Swcache-Version"

type Config struct {
	Origin    *url.URL
	Host      string // Host header override; empty keeps the origin host
	Transport http.RoundTripper
	Logger    swcache.Logger
	// Version reports the controlling version for VersionHeader; optional.
	Version func() string
}

type Proxy struct {
	rp  httputil.ReverseProxy
	log swcache.Logger
}

func New(cfg Config) *Proxy {
	p := &Proxy{log: cfg.Logger}
	if p.log == nil {
		p.log = swcache.NopLogger{}
	}
	p.rp = httputil.ReverseProxy{
		Director:  director(cfg.Origin, cfg.Host),
		Transport: cfg.Transport,
		ModifyResponse: func(res *http.Response) error {
			if cfg.Version != nil {
				if v := cfg.Version(); v != "" {
					res.Header.Set(VersionHeader, v)
				}
			}
			return nil
		},
		ErrorHandler: p.fail,
	}
	return p
}

func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.rp.ServeHTTP(w, r)
}

// fail answers bypassed requests whose network call failed.
func (p *Proxy) fail(w http.ResponseWriter, r *http.Request, err error) {
	p.log.Warn("upstream request failed", swcache.Fields{"method": r.Method, "url": r.URL.String(), "err": err})
	w.WriteHeader(http.StatusBadGateway)
}

func director(origin *url.URL, hostHeader string) func(req *http.Request) {
	return func(req *http.Request) {
		req.URL.Scheme = origin.Scheme
		req.URL.Host = origin.Host
		if origin.Path != "" && origin.Path != "/" {
			req.URL.Path = singleJoin(origin.Path, req.URL.Path)
			req.URL.RawPath = ""
		}
		req.Host = origin.Host
		if hostHeader != "" {
			req.Host = hostHeader
		}
		// upstream proxies may have set these; they are not part of the request identity
		for _, h := range []string{"X-Forwarded-Proto", "X-Forwarded-Host"} {
			req.Header.Del(h)
		}
	}
}

func singleJoin(a, b string) string {
	aslash := a[len(a)-1] == '/'
	bslash := len(b) > 0 && b[0] == '/'
	switch {
	case aslash && bslash:
		return a + b[1:]
	case !aslash && !bslash:
		return a + "/" + b
	}
	return a + b
}
