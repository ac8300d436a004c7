package cache

import (
	"amongirl/internal/game"
	"amongirl/internal/model"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestCache(t *testing.T) (*miniredis.Miniredis, SessionStore) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return mr, NewSessionCache(rdb, time.Hour)
}

func TestSessionCacheCreateAndLoad(t *testing.T) {
	ctx := context.Background()
	mr, store := newTestCache(t)

	sess := newSession("s1", "ABC234")
	if err := store.Create(ctx, sess); err != nil {
		t.Fatalf("create: %v", err)
	}
	if sess.Version != 1 {
		t.Fatalf("expected version 1, got %d", sess.Version)
	}
	if ttl := mr.TTL("session:s1"); ttl != time.Hour {
		t.Fatalf("expected a 1h ttl, got %s", ttl)
	}

	byCode, err := store.LoadByCode(ctx, "ABC234")
	if err != nil {
		t.Fatalf("load by code: %v", err)
	}
	if byCode.ID != "s1" || byCode.Players[0].Nickname != "host" {
		t.Fatalf("unexpected session %+v", byCode)
	}
	if exists, _ := store.CodeExists(ctx, "ABC234"); !exists {
		t.Fatal("code not reported as used")
	}
	if _, err := store.Load(ctx, "missing"); !errors.Is(err, game.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSessionCacheCreateClashLeavesNoCodeKey(t *testing.T) {
	ctx := context.Background()
	mr, store := newTestCache(t)

	if err := store.Create(ctx, newSession("s1", "ABC234")); err != nil {
		t.Fatalf("create: %v", err)
	}

	// Same code, new session
	if err := store.Create(ctx, newSession("s2", "ABC234")); !errors.Is(err, game.ErrVersionConflict) {
		t.Fatalf("expected code clash, got %v", err)
	}
	if mr.Exists("session:s2") {
		t.Fatal("session written despite code clash")
	}

	// Same session id, new code: the new code must not stay reserved
	if err := store.Create(ctx, newSession("s1", "XYZ789")); !errors.Is(err, game.ErrVersionConflict) {
		t.Fatalf("expected session clash, got %v", err)
	}
	if mr.Exists("session:code:XYZ789") {
		t.Fatal("join code left pointing at a session that was never written")
	}
	if exists, _ := store.CodeExists(ctx, "XYZ789"); exists {
		t.Fatal("failed create still reports the code as used")
	}
}

func TestSessionCacheCompareAndSwap(t *testing.T) {
	ctx := context.Background()
	_, store := newTestCache(t)
	if err := store.Create(ctx, newSession("s1", "ABC234")); err != nil {
		t.Fatalf("create: %v", err)
	}

	current, _ := store.Load(ctx, "s1")
	next := current.Clone()
	next.Phase = model.PhasePlaying
	if err := store.CompareAndSwap(ctx, "s1", 1, next); err != nil {
		t.Fatalf("swap: %v", err)
	}

	stale := current.Clone()
	stale.Phase = model.PhaseFinished
	if err := store.CompareAndSwap(ctx, "s1", 1, stale); !errors.Is(err, game.ErrVersionConflict) {
		t.Fatalf("expected version conflict, got %v", err)
	}
	loaded, _ := store.Load(ctx, "s1")
	if loaded.Phase != model.PhasePlaying || loaded.Version != 2 {
		t.Fatalf("stale write applied: %s v%d", loaded.Phase, loaded.Version)
	}
}

func TestSessionCacheSubscribe(t *testing.T) {
	ctx := context.Background()
	_, store := newTestCache(t)
	if err := store.Create(ctx, newSession("s1", "ABC234")); err != nil {
		t.Fatalf("create: %v", err)
	}

	var (
		mu   sync.Mutex
		seen []int64
	)
	unsubscribe, err := store.Subscribe(ctx, "s1", func(s *model.Session) {
		mu.Lock()
		seen = append(seen, s.Version)
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer unsubscribe()

	current, _ := store.Load(ctx, "s1")
	if err := store.CompareAndSwap(ctx, "s1", 1, current); err != nil {
		t.Fatalf("swap: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		n := len(seen)
		mu.Unlock()
		if n > 0 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 1 || seen[0] != 2 {
		t.Fatalf("unexpected notifications %v", seen)
	}
}
