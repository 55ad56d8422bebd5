package swcache

import (
	"fmt"
	"net/http"

	c "github.com/unkn0wn-root/swcache/codec"
	st "github.com/unkn0wn-root/swcache/store"
	vs "github.com/unkn0wn-root/swcache/versionstore"
)

// Options tune the registration shared by every version it installs.
// Only Store is required; others have sensible defaults.
type Options struct {
	// Required
	Store st.Store

	Network  http.RoundTripper // network primitive; nil => http.DefaultTransport
	Codec    c.Codec[Snapshot] // nil => CBOR
	Logger   Logger            // if nil, NopLogger is used
	Hooks    Hooks             // if nil, NopHooks is used
	Versions vs.Store          // nil => in-process record of the active version
	// ManualActivation keeps a freshly installed version waiting until a
	// SKIP_WAITING message arrives. Default false: eager takeover.
	ManualActivation bool
	// PrecacheConcurrency bounds concurrent manifest fetches; 0 => 6.
	PrecacheConcurrency int
	// MaxBodyBytes caps the body of a snapshot; larger responses are served
	// but never stored, and fail a precache. 0 => no limit.
	MaxBodyBytes int64
}

// env is what every worker of a registration shares.
type env struct {
	store    st.Store
	network  http.RoundTripper
	codec    c.Codec[Snapshot]
	log      Logger
	hooks    Hooks
	parallel int
	maxBody  int64
}

func New(opts Options) (*Registration, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("swcache: store is required")
	}
	e := &env{
		store:    opts.Store,
		network:  coalesce[http.RoundTripper](opts.Network, http.DefaultTransport),
		codec:    opts.Codec,
		log:      coalesce[Logger](opts.Logger, NopLogger{}),
		hooks:    coalesce[Hooks](opts.Hooks, NopHooks{}),
		parallel: coalesce(opts.PrecacheConcurrency, 6),
		maxBody:  opts.MaxBodyBytes,
	}
	if e.codec == nil {
		cb, err := c.NewCBOR[Snapshot](false)
		if err != nil {
			return nil, fmt.Errorf("swcache: default codec: %w", err)
		}
		e.codec = cb
	}
	versions := opts.Versions
	if versions == nil {
		versions = vs.NewLocal()
	}
	return newRegistration(e, versions, opts.ManualActivation), nil
}
