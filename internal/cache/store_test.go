// ABOUTME: Integration tests for the Redis store
// ABOUTME: Runs only when LAVALINK_TEST_REDIS_ADDR points at a Redis server
package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"go.uber.org/zap"
)

func testStore(t *testing.T) *Store {
	t.Helper()

	addr := os.Getenv("LAVALINK_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("LAVALINK_TEST_REDIS_ADDR not set")
	}

	client, err := Connect(context.Background(), Options{
		Addr:        addr,
		DB:          15,
		DialTimeout: time.Second,
		PingTimeout: time.Second,
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("connect failed: %v", err)
	}

	store := NewStore(client)
	t.Cleanup(func() {
		store.Flush(context.Background())
		store.Close()
	})
	return store
}

func TestStoreRoundTrip(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	miss, err := store.GetLoad(ctx, "abc")
	if err != nil || miss != nil {
		t.Fatalf("expected clean miss, got %v (%v)", miss, err)
	}

	if err := store.SaveLoad(ctx, "abc", loaded(), time.Minute); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	got, err := store.GetLoad(ctx, "abc")
	if err != nil || got == nil {
		t.Fatalf("expected hit, got %v (%v)", got, err)
	}
	if got.Tracks[0].Info.Identifier != "abc" {
		t.Errorf("unexpected cached result: %+v", got)
	}

	if err := store.Invalidate(ctx, "abc"); err != nil {
		t.Fatalf("invalidate failed: %v", err)
	}
	if got, _ := store.GetLoad(ctx, "abc"); got != nil {
		t.Error("expected miss after invalidate")
	}
}

func TestStoreFlush(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		store.SaveLoad(ctx, id, loaded(), time.Minute)
	}
	if err := store.Flush(ctx); err != nil {
		t.Fatalf("flush failed: %v", err)
	}
	for _, id := range []string{"a", "b", "c"} {
		if got, _ := store.GetLoad(ctx, id); got != nil {
			t.Errorf("expected %s to be flushed", id)
		}
	}
}

func TestConnectRejectsZeroPingTimeout(t *testing.T) {
	if _, err := Connect(context.Background(), Options{Addr: "localhost:6379"}, zap.NewNop()); err == nil {
		t.Error("expected error for zero ping timeout")
	}
}
