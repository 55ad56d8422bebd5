package codec

import (
	"bytes"
	"strings"
	"testing"
)

type sample struct {
	Status int
	Header map[string][]string
	Body   []byte
}

func TestByName(t *testing.T) {
	in := sample{Status: 200, Header: map[string][]string{"Content-Type": {"text/html"}}, Body: []byte("<p>hi</p>")}
	for _, name := range []string{"", "cbor", "cbor-deterministic", "msgpack", "json"} {
		c, err := ByName[sample](name)
		if err != nil {
			t.Fatalf("ByName(%q): %v", name, err)
		}
		b, err := c.Encode(in)
		if err != nil {
			t.Fatalf("%q encode: %v", name, err)
		}
		out, err := c.Decode(b)
		if err != nil {
			t.Fatalf("%q decode: %v", name, err)
		}
		if out.Status != 200 || !bytes.Equal(out.Body, in.Body) || out.Header["Content-Type"][0] != "text/html" {
			t.Fatalf("%q: got %+v", name, out)
		}
	}
	if _, err := ByName[sample]("gob"); err == nil {
		t.Fatalf("expected error for unknown codec")
	}
}

func TestDeterministicCBORIsStable(t *testing.T) {
	c, err := NewCBOR[map[string]string](true)
	if err != nil {
		t.Fatal(err)
	}
	a, _ := c.Encode(map[string]string{"b": "2", "a": "1", "c": "3"})
	for i := 0; i < 10; i++ {
		b, _ := c.Encode(map[string]string{"c": "3", "a": "1", "b": "2"})
		if !bytes.Equal(a, b) {
			t.Fatalf("deterministic encoding differs between runs")
		}
	}
}

func TestLimitCodecRejectsOversized(t *testing.T) {
	lc := LimitCodec[sample]{Inner: Msgpack[sample]{}, MaxDecode: 64}
	b, err := lc.Encode(sample{Status: 200, Body: bytes.Repeat([]byte("x"), 200)})
	if err != nil {
		t.Fatalf("encode should not be limited: %v", err)
	}
	if _, err := lc.Decode(b); err == nil || !strings.Contains(err.Error(), "too large") {
		t.Fatalf("expected size error, got %v", err)
	}

	small, _ := lc.Encode(sample{Status: 404})
	if out, err := lc.Decode(small); err != nil || out.Status != 404 {
		t.Fatalf("small payload: out=%+v err=%v", out, err)
	}
}
