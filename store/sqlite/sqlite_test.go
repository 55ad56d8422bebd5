package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/unkn0wn-root/swcache/store"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cache.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s, path
}

func TestPartitionRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	p, err := s.Open(ctx, "app-v1")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, ok, err := p.Get(ctx, "k"); err != nil || ok {
		t.Fatalf("expected miss, ok=%v err=%v", ok, err)
	}
	if err := p.Put(ctx, "k", []byte("one")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := p.Put(ctx, "k", []byte("two")); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if got, ok, err := p.Get(ctx, "k"); err != nil || !ok || string(got) != "two" {
		t.Fatalf("get: ok=%v err=%v got=%q", ok, err, got)
	}
}

func TestDeletePartitionCascades(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	p, _ := s.Open(ctx, "app-v1")
	_ = p.Put(ctx, "k", []byte("v"))

	ok, err := s.Delete(ctx, "app-v1")
	if err != nil || !ok {
		t.Fatalf("delete: ok=%v err=%v", ok, err)
	}
	if _, hit, _ := p.Get(ctx, "k"); hit {
		t.Fatalf("entries should be removed with their partition")
	}
	if err := p.Put(ctx, "k", []byte("v")); !errors.Is(err, store.ErrClosed) {
		t.Fatalf("stale put err=%v, want ErrClosed", err)
	}
	if ok, _ := s.Delete(ctx, "app-v1"); ok {
		t.Fatalf("second delete should report false")
	}
}

func TestSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	s, path := newTestStore(t)

	p, _ := s.Open(ctx, "app-assets")
	if err := p.Put(ctx, "GET http://x/a.png", []byte("png")); err != nil {
		t.Fatal(err)
	}
	_ = s.Close(ctx)

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close(ctx)

	names, err := s2.Names(ctx)
	if err != nil || len(names) != 1 || names[0] != "app-assets" {
		t.Fatalf("names=%v err=%v", names, err)
	}
	p2, _ := s2.Open(ctx, "app-assets")
	if got, ok, _ := p2.Get(ctx, "GET http://x/a.png"); !ok || string(got) != "png" {
		t.Fatalf("entry lost across reopen: ok=%v got=%q", ok, got)
	}
}
