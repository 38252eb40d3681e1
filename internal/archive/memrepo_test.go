package archive

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jwhyun/plywood/internal/domain"
)

func sampleRecord(uuid string, endedAt time.Time) *domain.MatchRecord {
	return &domain.MatchRecord{
		MatchUUID:   uuid,
		Mode:        domain.ModeSelfplay,
		Result:      "white",
		Method:      "checkmate",
		MovesUCI:    []string{"e2e4", "e7e5"},
		MovesSAN:    []string{"e4", "e5"},
		PGN:         "1. e4 e5",
		SearchDepth: 4,
		StartedAt:   endedAt.Add(-time.Minute),
		EndedAt:     endedAt,
		Duration:    time.Minute,
	}
}

func TestMemrepoInsertAndGet(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	rec := sampleRecord("m-1", time.Now())
	id, err := repo.InsertMatch(ctx, rec)
	if err != nil {
		t.Fatalf("InsertMatch: %v", err)
	}
	if id == 0 {
		t.Fatalf("insert returned zero id")
	}

	got, err := repo.GetMatch(ctx, id)
	if err != nil {
		t.Fatalf("GetMatch: %v", err)
	}
	if got == nil || got.MatchUUID != "m-1" || len(got.MovesUCI) != 2 {
		t.Fatalf("unexpected record: %+v", got)
	}

	byUUID, err := repo.GetMatchByUUID(ctx, "m-1")
	if err != nil {
		t.Fatalf("GetMatchByUUID: %v", err)
	}
	if byUUID == nil || byUUID.ID != id {
		t.Fatalf("uuid lookup mismatch: %+v", byUUID)
	}

	missing, err := repo.GetMatch(ctx, id+100)
	if err != nil || missing != nil {
		t.Fatalf("missing match = (%+v, %v), want (nil, nil)", missing, err)
	}
}

func TestMemrepoRejectsDuplicateUUID(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	if _, err := repo.InsertMatch(ctx, sampleRecord("dup", time.Now())); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if _, err := repo.InsertMatch(ctx, sampleRecord("dup", time.Now())); !errors.Is(err, ErrDuplicateMatch) {
		t.Fatalf("second insert err = %v, want ErrDuplicateMatch", err)
	}
}

func TestMemrepoRecentOrderingAndLimit(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	base := time.Now()

	for i, uuid := range []string{"a", "b", "c"} {
		rec := sampleRecord(uuid, base.Add(time.Duration(i)*time.Hour))
		if _, err := repo.InsertMatch(ctx, rec); err != nil {
			t.Fatalf("insert %s: %v", uuid, err)
		}
	}

	recent, err := repo.GetRecentMatches(ctx, 2)
	if err != nil {
		t.Fatalf("GetRecentMatches: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("got %d records, want 2", len(recent))
	}
	if recent[0].MatchUUID != "c" || recent[1].MatchUUID != "b" {
		t.Fatalf("wrong order: %s, %s", recent[0].MatchUUID, recent[1].MatchUUID)
	}
}
