package swcache

import (
	"errors"
	"fmt"
)

var (
	// ErrNoController is returned when a request needs a controlling version
	// and none has activated yet.
	ErrNoController = errors.New("swcache: no active version")
	// ErrNoReplyChannel is returned for GET_VERSION messages without a reply channel.
	ErrNoReplyChannel = errors.New("swcache: GET_VERSION requires a reply channel")
	// ErrUnknownMessage is returned for message types outside the command set.
	ErrUnknownMessage = errors.New("swcache: unknown message type")
	// ErrClosed is returned after the registration was closed.
	ErrClosed = errors.New("swcache: registration closed")
)

// PrecacheError fails an install. Path is empty when the failure was not tied
// to a single manifest entry (e.g. the core partition could not be opened).
type PrecacheError struct {
	Version string
	Path    string
	Status  int // non-200 status received for Path; 0 on transport/storage errors
	Err     error
}

func (e *PrecacheError) Error() string {
	switch {
	case e.Path == "":
		return fmt.Sprintf("install %q: precache failed: %v", e.Version, e.Err)
	case e.Status != 0:
		return fmt.Sprintf("install %q: precache %s: unexpected status %d", e.Version, e.Path, e.Status)
	default:
		return fmt.Sprintf("install %q: precache %s: %v", e.Version, e.Path, e.Err)
	}
}

func (e *PrecacheError) Unwrap() error { return e.Err }

// PartitionDeleteError is logged and reported through Hooks; it never blocks activation.
type PartitionDeleteError struct {
	Name string
	Err  error
}

func (e *PartitionDeleteError) Error() string {
	return fmt.Sprintf("delete partition %q: %v", e.Name, e.Err)
}

func (e *PartitionDeleteError) Unwrap() error { return e.Err }
