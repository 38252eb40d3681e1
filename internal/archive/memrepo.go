package archive

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/jwhyun/plywood/internal/domain"
)

// memrepo is the in-memory repository used when no database is configured.
type memrepo struct {
	mu sync.RWMutex

	nextID int64

	byID   map[int64]*domain.MatchRecord
	byUUID map[string]*domain.MatchRecord
	order  []*domain.MatchRecord
}

// NewMemoryRepository returns an archive that lives for the process only.
func NewMemoryRepository() Repository {
	return &memrepo{
		byID:   make(map[int64]*domain.MatchRecord),
		byUUID: make(map[string]*domain.MatchRecord),
	}
}

func (m *memrepo) InsertMatch(ctx context.Context, rec *domain.MatchRecord) (int64, error) {
	if rec == nil {
		return 0, ErrDuplicateMatch
	}
	key := strings.TrimSpace(rec.MatchUUID)

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byUUID[key]; exists {
		return 0, ErrDuplicateMatch
	}

	m.nextID++
	stored := *rec
	stored.ID = m.nextID

	m.byID[stored.ID] = &stored
	m.byUUID[key] = &stored
	m.order = append(m.order, &stored)
	return stored.ID, nil
}

func (m *memrepo) GetRecentMatches(ctx context.Context, limit int) ([]*domain.MatchRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.order) == 0 {
		return []*domain.MatchRecord{}, nil
	}
	items := append([]*domain.MatchRecord(nil), m.order...)
	sort.Slice(items, func(i, j int) bool {
		if !items[i].EndedAt.Equal(items[j].EndedAt) {
			return items[i].EndedAt.After(items[j].EndedAt)
		}
		return items[i].ID > items[j].ID
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (m *memrepo) GetMatch(ctx context.Context, id int64) (*domain.MatchRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.byID[id]
	if !ok || rec == nil {
		return nil, nil
	}
	stored := *rec
	return &stored, nil
}

func (m *memrepo) GetMatchByUUID(ctx context.Context, matchUUID string) (*domain.MatchRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if rec, ok := m.byUUID[strings.TrimSpace(matchUUID)]; ok && rec != nil {
		stored := *rec
		return &stored, nil
	}
	return nil, nil
}
