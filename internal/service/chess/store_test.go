package chess

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/WolfWhaleLMS/wolfwhale-lms-sub002/internal/session"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisStore(rdb), mr
}

func sampleRecord(moves ...string) *SessionRecord {
	return &SessionRecord{
		SessionUUID: "uuid-1",
		StudentHash: "student",
		CourseHash:  "course",
		Game:        session.Snapshot{ID: "uuid-1", Difficulty: "easy", Moves: moves},
	}
}

func exerciseStore(t *testing.T, store SessionStore) {
	t.Helper()
	ctx := context.Background()

	rec, err := store.Load(ctx, "k")
	if err != nil || rec != nil {
		t.Fatalf("expected empty load, got %+v err=%v", rec, err)
	}

	created, err := store.Create(ctx, "k", sampleRecord(), time.Hour)
	if err != nil || !created {
		t.Fatalf("create: created=%v err=%v", created, err)
	}
	created, err = store.Create(ctx, "k", sampleRecord(), time.Hour)
	if err != nil || created {
		t.Fatalf("second create must not overwrite: created=%v err=%v", created, err)
	}

	first := sampleRecord("e2e4", "e7e5")
	if err := store.Save(ctx, "k", first, time.Hour); err != nil {
		t.Fatalf("save: %v", err)
	}
	if first.Revision != 1 {
		t.Fatalf("save should advance the revision, got %d", first.Revision)
	}
	if err := store.Save(ctx, "k", sampleRecord("d2d4"), time.Hour); !errors.Is(err, ErrConcurrentUpdate) {
		t.Fatalf("stale save should fail, got %v", err)
	}

	rec, err = store.Load(ctx, "k")
	if err != nil || rec == nil {
		t.Fatalf("load: %+v err=%v", rec, err)
	}
	if len(rec.Game.Moves) != 2 || rec.Game.Moves[1] != "e7e5" || rec.Revision != 1 {
		t.Fatalf("unexpected record moves=%v revision=%d", rec.Game.Moves, rec.Revision)
	}

	// Two writers loaded at the same revision with the same move count: only
	// the first commits even though neither adds a move.
	a, _ := store.Load(ctx, "k")
	b, _ := store.Load(ctx, "k")
	a.Game.Difficulty = "hard"
	if err := store.Save(ctx, "k", a, time.Hour); err != nil {
		t.Fatalf("difficulty save: %v", err)
	}
	b.Game.Resigned = true
	if err := store.Save(ctx, "k", b, time.Hour); !errors.Is(err, ErrConcurrentUpdate) {
		t.Fatalf("save from the same revision should fail, got %v", err)
	}
	if b.Revision != 1 {
		t.Fatalf("failed save must not advance the revision, got %d", b.Revision)
	}
	rec, _ = store.Load(ctx, "k")
	if rec.Game.Difficulty != "hard" || rec.Game.Resigned || rec.Revision != 2 {
		t.Fatalf("unexpected record after conflict %+v", rec)
	}

	if err := store.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := store.Save(ctx, "k", rec, time.Hour); !errors.Is(err, ErrConcurrentUpdate) {
		t.Fatalf("save after delete should fail, got %v", err)
	}
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestRedisStore(t *testing.T) {
	store, _ := newTestRedisStore(t)
	exerciseStore(t, store)
}

func TestRedisStoreExpires(t *testing.T) {
	store, mr := newTestRedisStore(t)
	ctx := context.Background()
	if _, err := store.Create(ctx, "k", sampleRecord(), time.Minute); err != nil {
		t.Fatalf("create: %v", err)
	}
	mr.FastForward(2 * time.Minute)
	rec, err := store.Load(ctx, "k")
	if err != nil || rec != nil {
		t.Fatalf("expected expired session, got %+v err=%v", rec, err)
	}
}

func TestMemoryStoreExpires(t *testing.T) {
	store := NewMemoryStore()
	now := time.Now()
	store.now = func() time.Time { return now }
	ctx := context.Background()
	if _, err := store.Create(ctx, "k", sampleRecord(), time.Minute); err != nil {
		t.Fatalf("create: %v", err)
	}
	now = now.Add(2 * time.Minute)
	if rec, _ := store.Load(ctx, "k"); rec != nil {
		t.Fatalf("expected expired session")
	}
}

func TestParseRedisURL(t *testing.T) {
	opts, err := ParseRedisURL("redis://:secret@localhost:6380/3")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if opts.Addr != "localhost:6380" || opts.Password != "secret" || opts.DB != 3 {
		t.Fatalf("unexpected options %+v", opts)
	}
	if opts.TLSConfig != nil {
		t.Fatalf("plain redis should not use TLS")
	}
	tlsOpts, err := ParseRedisURL("rediss://cache.internal:6380")
	if err != nil {
		t.Fatalf("parse rediss: %v", err)
	}
	if tlsOpts.TLSConfig == nil || tlsOpts.TLSConfig.ServerName != "cache.internal" {
		t.Fatalf("expected TLS config, got %+v", tlsOpts.TLSConfig)
	}
	if _, err := ParseRedisURL("http://localhost"); err == nil {
		t.Fatalf("expected scheme error")
	}
}
