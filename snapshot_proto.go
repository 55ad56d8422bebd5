package swcache

import (
	"errors"
	"net/http"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/unkn0wn-root/swcache/codec"
)

// ProtoCodec encodes a Snapshot in protobuf wire format, compatible with:
//
//	message Header   { string name = 1; repeated string values = 2; }
//	message Snapshot { int32 status = 1; repeated Header header = 2; bytes body = 3; }
//
// so other services can read a shared store with generated code.
type ProtoCodec struct{}

var _ codec.Codec[Snapshot] = ProtoCodec{}

const (
	fieldStatus protowire.Number = 1
	fieldHeader protowire.Number = 2
	fieldBody   protowire.Number = 3

	fieldHeaderName  protowire.Number = 1
	fieldHeaderValue protowire.Number = 2
)

var errProtoShape = errors.New("swcache: malformed snapshot message")

func (ProtoCodec) Encode(s Snapshot) ([]byte, error) {
	var b []byte
	b = protowire.AppendTag(b, fieldStatus, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(int64(s.Status)))
	for name, values := range s.Header {
		var h []byte
		h = protowire.AppendTag(h, fieldHeaderName, protowire.BytesType)
		h = protowire.AppendString(h, name)
		for _, v := range values {
			h = protowire.AppendTag(h, fieldHeaderValue, protowire.BytesType)
			h = protowire.AppendString(h, v)
		}
		b = protowire.AppendTag(b, fieldHeader, protowire.BytesType)
		b = protowire.AppendBytes(b, h)
	}
	b = protowire.AppendTag(b, fieldBody, protowire.BytesType)
	b = protowire.AppendBytes(b, s.Body)
	return b, nil
}

func (ProtoCodec) Decode(b []byte) (Snapshot, error) {
	s := Snapshot{Header: make(http.Header)}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return Snapshot{}, protowire.ParseError(n)
		}
		b = b[n:]
		switch {
		case num == fieldStatus && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return Snapshot{}, protowire.ParseError(n)
			}
			s.Status = int(int32(v))
			b = b[n:]
		case num == fieldHeader && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return Snapshot{}, protowire.ParseError(n)
			}
			name, values, err := decodeHeader(v)
			if err != nil {
				return Snapshot{}, err
			}
			s.Header[name] = append(s.Header[name], values...)
			b = b[n:]
		case num == fieldBody && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return Snapshot{}, protowire.ParseError(n)
			}
			s.Body = append([]byte(nil), v...)
			b = b[n:]
		default:
			// unknown field; skip for forward compatibility
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return Snapshot{}, protowire.ParseError(n)
			}
			b = b[n:]
		}
	}
	return s, nil
}

func decodeHeader(b []byte) (string, []string, error) {
	var (
		name   string
		values []string
	)
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return "", nil, protowire.ParseError(n)
		}
		b = b[n:]
		if typ != protowire.BytesType || (num != fieldHeaderName && num != fieldHeaderValue) {
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return "", nil, protowire.ParseError(n)
			}
			b = b[n:]
			continue
		}
		v, n := protowire.ConsumeString(b)
		if n < 0 {
			return "", nil, protowire.ParseError(n)
		}
		b = b[n:]
		if num == fieldHeaderName {
			name = v
		} else {
			values = append(values, v)
		}
	}
	if name == "" {
		return "", nil, errProtoShape
	}
	return name, values, nil
}
