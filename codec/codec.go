// Package codec serializes response snapshots for storage.
//
// A codec only sees the snapshot payload; swcache frames the encoded bytes
// itself (see internal/wire), so codecs need no magic bytes or versioning.
package codec

import "fmt"

// Codec encodes/decodes values V to []byte for storage.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}

// ByName resolves the generic codecs shipped with this package:
// "cbor" (default for ""), "cbor-deterministic", "msgpack", "json".
func ByName[V any](name string) (Codec[V], error) {
	switch name {
	case "", "cbor", "cbor-deterministic":
		c, err := NewCBOR[V](name == "cbor-deterministic")
		if err != nil {
			return nil, err
		}
		return c, nil
	case "msgpack":
		return Msgpack[V]{}, nil
	case "json":
		return JSON[V]{}, nil
	default:
		return nil, fmt.Errorf("codec: unknown codec %q", name)
	}
}
