package versionstore

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedis(rdb, ""), mr
}

func TestRedisCommitAndLoad(t *testing.T) {
	ctx := context.Background()
	s, mr := newRedis(t)

	if _, ok, err := s.Load(ctx, "app"); err != nil || ok {
		t.Fatalf("ok=%v err=%v, want miss", ok, err)
	}
	if _, err := s.Commit(ctx, "app", "v1"); err != nil {
		t.Fatal(err)
	}
	r, err := s.Commit(ctx, "app", "v2")
	if err != nil {
		t.Fatal(err)
	}
	if r.Generation != 2 {
		t.Fatalf("generation=%d want 2", r.Generation)
	}
	if v := mr.HGet("swcache:version:app", "version"); v != "v2" {
		t.Fatalf("stored version=%q", v)
	}

	got, ok, err := s.Load(ctx, "app")
	if err != nil || !ok {
		t.Fatalf("load ok=%v err=%v", ok, err)
	}
	if got.Version != "v2" || got.Generation != 2 || !got.ActivatedAt.Equal(r.ActivatedAt) {
		t.Fatalf("load=%+v commit=%+v", got, r)
	}
}

func TestRedisLoadRejectsGarbageGeneration(t *testing.T) {
	ctx := context.Background()
	s, mr := newRedis(t)
	mr.HSet("swcache:version:app", "version", "v1", "gen", "nope")
	if _, _, err := s.Load(ctx, "app"); err == nil {
		t.Fatal("expected parse error")
	}
}
