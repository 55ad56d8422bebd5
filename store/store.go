// Package store defines the partitioned storage abstraction used by swcache.
//
// A Store holds named partitions. Each partition maps a request identity to an
// opaque, framed response snapshot. Implementations MUST be byte-for-byte
// transparent: Get must return exactly the []byte previously passed to Put for
// the same key (no prepended/appended metadata, no re-encoding, no mutation).
//
// Partition names are owned by the lifecycle layer. Strategy code only reads and
// writes entries inside partitions it is handed by name; it never creates or
// deletes partitions on its own.
package store

import (
	"context"
	"errors"
)

// ErrClosed is returned by operations on a store (or one of its partitions)
// after Close, or on a partition handle whose partition has been deleted.
var ErrClosed = errors.New("store: closed")

// ErrRejected is returned by Put when a bounded backend refused the write
// under pressure (admission/eviction). The entry is simply not cached.
var ErrRejected = errors.New("store: write rejected")

// Store is a set of named partitions. Must be safe for concurrent use.
type Store interface {
	// Open returns a handle to the named partition, creating it if needed.
	Open(ctx context.Context, name string) (Partition, error)

	// Names lists every existing partition, in no particular order.
	Names(ctx context.Context) ([]string, error)

	// Delete removes a partition with all of its entries.
	// Returns false (and no error) when the partition did not exist.
	Delete(ctx context.Context, name string) (bool, error)

	// Close releases resources.
	Close(ctx context.Context) error
}

// Partition is a named key/value space inside a Store.
// Concurrent writes to the same key are last-write-wins.
type Partition interface {
	Name() string

	// Get returns (value, true, nil) on hit; (nil, false, nil) on miss.
	// If an IO/remote error happens, return (nil, false, err).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Put stores value under key, replacing any previous value.
	Put(ctx context.Context, key string, value []byte) error

	// Delete removes a key (best-effort). Missing keys are not an error.
	Delete(ctx context.Context, key string) error
}

// Contains reports whether the named partition exists in s.
func Contains(ctx context.Context, s Store, name string) (bool, error) {
	names, err := s.Names(ctx)
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == name {
			return true, nil
		}
	}
	return false, nil
}
