package matchstore

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(func() { mr.Close() })

	store, err := New(fmt.Sprintf("redis://%s/0", mr.Addr()), time.Hour)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store, mr
}

func TestStoreSaveLoadRoundtrip(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	snap := &Snapshot{
		ID:          "abc-123",
		Mode:        "selfplay",
		FEN:         "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1",
		MovesUCI:    []string{"e2e4"},
		MovesSAN:    []string{"e4"},
		Turn:        "black",
		Status:      "ongoing",
		SearchDepth: 4,
		CreatedAt:   time.Now(),
	}
	if err := store.Save(ctx, snap); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.Load(ctx, "abc-123")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got == nil {
		t.Fatalf("snapshot missing after save")
	}
	if got.FEN != snap.FEN || got.Turn != "black" || len(got.MovesUCI) != 1 {
		t.Fatalf("roundtrip mismatch: %+v", got)
	}
	if got.UpdatedAt.IsZero() {
		t.Fatalf("save did not stamp updated_at")
	}
}

func TestStoreSaveSetsTTL(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, &Snapshot{ID: "ttl-check", Status: "ongoing"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	ttl := mr.TTL(keyPrefix + "ttl-check")
	if ttl <= 0 || ttl > time.Hour {
		t.Fatalf("ttl = %v, want (0, 1h]", ttl)
	}
}

func TestStoreLoadMissingReturnsNil(t *testing.T) {
	store, _ := newTestStore(t)
	got, err := store.Load(context.Background(), "nope")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for missing snapshot, got %+v", got)
	}
}

func TestStoreDelete(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, &Snapshot{ID: "gone", Status: "ongoing"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.Delete(ctx, "gone"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	got, err := store.Load(ctx, "gone")
	if err != nil || got != nil {
		t.Fatalf("snapshot survived delete: (%+v, %v)", got, err)
	}
}

func TestStoreSaveRequiresID(t *testing.T) {
	store, _ := newTestStore(t)
	if err := store.Save(context.Background(), &Snapshot{}); err == nil {
		t.Fatalf("expected error for snapshot without id")
	}
}

func TestNewRejectsBadURL(t *testing.T) {
	if _, err := New("http://localhost:6379", time.Hour); err == nil {
		t.Fatalf("expected error for non-redis scheme")
	}
	if _, err := New("", time.Hour); err == nil {
		t.Fatalf("expected error for empty url")
	}
}
