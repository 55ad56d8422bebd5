package swcache

import (
	"bytes"
	"net/http"
	"reflect"
	"testing"

	"google.golang.org/protobuf/encoding/protowire"
)

func TestProtoCodecRoundTrip(t *testing.T) {
	in := Snapshot{
		Status: 200,
		Header: http.Header{"Content-Type": {"application/wasm"}, "Vary": {"Accept", "Origin"}},
		Body:   []byte{0x00, 0x61, 0x73, 0x6d},
	}
	b, err := ProtoCodec{}.Encode(in)
	if err != nil {
		t.Fatal(err)
	}
	out, err := ProtoCodec{}.Decode(b)
	if err != nil {
		t.Fatal(err)
	}
	if out.Status != in.Status || !bytes.Equal(out.Body, in.Body) || !reflect.DeepEqual(out.Header, in.Header) {
		t.Fatalf("round trip mismatch: %+v", out)
	}
}

func TestProtoCodecSkipsUnknownFields(t *testing.T) {
	b, _ := ProtoCodec{}.Encode(Snapshot{Status: 200, Body: []byte("x")})
	b = protowire.AppendTag(b, 99, protowire.VarintType)
	b = protowire.AppendVarint(b, 42)
	out, err := ProtoCodec{}.Decode(b)
	if err != nil || out.Status != 200 || string(out.Body) != "x" {
		t.Fatalf("out=%+v err=%v", out, err)
	}
}

func TestProtoCodecRejectsTruncated(t *testing.T) {
	b, _ := ProtoCodec{}.Encode(Snapshot{Status: 200, Body: []byte("hello")})
	if _, err := (ProtoCodec{}).Decode(b[:len(b)-2]); err == nil {
		t.Fatal("expected error on truncated input")
	}
}

func TestRegistrationWithProtoCodec(t *testing.T) {
	net := newFakeNet()
	r, _ := newTestRegistration(t, net, func(o *Options) { o.Codec = ProtoCodec{} })
	mustRegister(t, r, testConfig("v1"))

	fetch(t, r, http.MethodGet, "/img/a.png", "")
	if st, body := fetch(t, r, http.MethodGet, "/img/a.png", ""); st != 200 || body != "body:/img/a.png" {
		t.Fatalf("status=%d body=%q", st, body)
	}
	if net.hitsFor("/img/a.png") != 1 {
		t.Fatal("second request should be served from cache")
	}
}
