package versionstore

import (
	"context"
	"testing"
)

func TestLocalLoadMissing(t *testing.T) {
	s := NewLocal()
	if _, ok, err := s.Load(context.Background(), "app"); err != nil || ok {
		t.Fatalf("ok=%v err=%v, want miss", ok, err)
	}
}

func TestLocalCommitBumpsGeneration(t *testing.T) {
	ctx := context.Background()
	s := NewLocal()

	if _, err := s.Commit(ctx, "app", "v1"); err != nil {
		t.Fatal(err)
	}
	r, err := s.Commit(ctx, "app", "v2")
	if err != nil {
		t.Fatal(err)
	}
	if r.Version != "v2" || r.Generation != 2 {
		t.Fatalf("got %+v, want v2 gen 2", r)
	}

	got, ok, err := s.Load(ctx, "app")
	if err != nil || !ok {
		t.Fatalf("load ok=%v err=%v", ok, err)
	}
	if got != r {
		t.Fatalf("load=%+v commit=%+v", got, r)
	}
	if _, ok, _ := s.Load(ctx, "other"); ok {
		t.Fatal("namespaces must not share records")
	}
}
