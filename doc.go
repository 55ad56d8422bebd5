// Package swcache implements an offline-first HTTP resource cache with versioned
// cache partitions, modeled on how a service worker manages an application shell.
//
// Components:
//   - Store: named partitions of framed response snapshots (memory, ristretto,
//     bigcache, redis, sqlite).
//   - Classify: a pure mapping of path + Accept header to html/critical/asset/other.
//   - Worker: one cache version. As an http.RoundTripper it routes html and other
//     requests network-first through the runtime partition, and critical and asset
//     requests cache-first through the versioned core and the assets partitions.
//   - Registration: the lifecycle manager. Installs versions atomically from a
//     precache manifest, activates them (deleting superseded partitions), and
//     answers SKIP_WAITING, CLEAR_CACHE and GET_VERSION messages.
//
// Partitions:
//
//	<ns>-<version>  core, precached application shell (versioned)
//	<ns>-runtime    network-first fallback copies
//	<ns>-assets     long-lived static resources
//
// Usage:
//
//	reg, _ := swcache.New(swcache.Options{Store: memory.New()})
//	_, err := reg.Register(ctx, swcache.WorkerConfig{
//	    Version:   "v1.0.0",
//	    Namespace: "fishy",
//	    Origin:    origin,
//	    Manifest:  []string{"/", "/index.html", "/fishy.js", "/fishy_bg.wasm"},
//	})
//	client := &http.Client{Transport: reg}
package swcache
