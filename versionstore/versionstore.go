// Package versionstore records which cache version controls a namespace.
//
// The record lets a restarted process adopt an already installed version
// instead of precaching it again, and lets several processes sharing one
// partition store agree on the controlling version.
package versionstore

import (
	"context"
	"time"
)

// Record is the controlling version of one namespace.
type Record struct {
	Version     string
	Generation  uint64 // bumped on every activation; 0 means never activated
	ActivatedAt time.Time
}

// Store abstracts where version records live.
// Use Local (default) for in-process records, or Redis for shared ones.
type Store interface {
	// Load returns the record for namespace; ok=false when none was committed.
	Load(ctx context.Context, namespace string) (rec Record, ok bool, err error)
	// Commit makes version the controlling version and bumps the generation.
	Commit(ctx context.Context, namespace, version string) (Record, error)
	// Close releases resources (no-op ok).
	Close(context.Context) error
}
