package wire

import (
	"bytes"
	"encoding/binary"
	"testing"
	"time"
)

func TestEntryRoundTrip(t *testing.T) {
	at := time.Date(2025, 3, 1, 12, 0, 0, 42, time.UTC)
	cases := [][]byte{nil, []byte("hello"), {0, 1, 2, 3, 4}}
	for _, payload := range cases {
		enc := EncodeEntry(at, payload)
		gotAt, p, err := DecodeEntry(enc)
		if err != nil {
			t.Fatalf("DecodeEntry: %v", err)
		}
		if !gotAt.Equal(at) {
			t.Fatalf("storedAt mismatch: got %v want %v", gotAt, at)
		}
		if !bytes.Equal(p, payload) {
			t.Fatalf("payload mismatch: got %x want %x", p, payload)
		}
	}
}

func TestEntryRejectsTrailingBytes(t *testing.T) {
	enc := EncodeEntry(time.Now(), []byte("x"))
	enc = append(enc, 0xDE, 0xAD)
	if _, _, err := DecodeEntry(enc); err == nil {
		t.Fatalf("expected error on trailing bytes")
	}
}

func TestEntryCorruptHeadersAndLengths(t *testing.T) {
	enc := EncodeEntry(time.Now(), []byte("abc"))

	badMagic := append([]byte(nil), enc...)
	badMagic[0] = 'X'
	if _, _, err := DecodeEntry(badMagic); err == nil {
		t.Fatalf("expected error on bad magic")
	}

	badVer := append([]byte(nil), enc...)
	badVer[4] = version + 1
	if _, _, err := DecodeEntry(badVer); err == nil {
		t.Fatalf("expected error on bad version")
	}

	badKind := append([]byte(nil), enc...)
	badKind[5] = kindEntry + 1
	if _, _, err := DecodeEntry(badKind); err == nil {
		t.Fatalf("expected error on bad kind")
	}

	// declared length beyond buffer
	badLen := append([]byte(nil), enc...)
	binary.BigEndian.PutUint32(badLen[14:18], 1<<20)
	if _, _, err := DecodeEntry(badLen); err == nil {
		t.Fatalf("expected error on oversized vlen")
	}

	if _, _, err := DecodeEntry(enc[:hdrLen-1]); err == nil {
		t.Fatalf("expected error on short header")
	}
	if _, _, err := DecodeEntry([]byte("not-wire-format")); err != ErrCorrupt {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}
}
