package main

import "github.com/unkn0wn-root/swcache"

// fanout delivers every event to each hook in order.
type fanout []swcache.Hooks

var _ swcache.Hooks = fanout(nil)

func (f fanout) Served(c swcache.Class, s swcache.Strategy, src swcache.Source) {
	for _, h := range f {
		h.Served(c, s, src)
	}
}

func (f fanout) StoreFailed(p string, err error) {
	for _, h := range f {
		h.StoreFailed(p, err)
	}
}

func (f fanout) SelfHeal(p, k, r string) {
	for _, h := range f {
		h.SelfHeal(p, k, r)
	}
}

func (f fanout) PrecacheFailed(v string, err error) {
	for _, h := range f {
		h.PrecacheFailed(v, err)
	}
}

func (f fanout) PartitionDeleteFailed(n string, err error) {
	for _, h := range f {
		h.PartitionDeleteFailed(n, err)
	}
}

func (f fanout) Activated(v string) {
	for _, h := range f {
		h.Activated(v)
	}
}

func (f fanout) UpdateAvailable(v string) {
	for _, h := range f {
		h.UpdateAvailable(v)
	}
}
