// Package archive persists finished matches. The Postgres repository is the
// production store; an in-memory repository backs development and tests.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jwhyun/plywood/internal/domain"
)

// ErrDuplicateMatch marks an insert whose match UUID is already archived.
var ErrDuplicateMatch = errors.New("match already archived")

// Repository stores finished matches.
type Repository interface {
	InsertMatch(ctx context.Context, rec *domain.MatchRecord) (int64, error)
	GetRecentMatches(ctx context.Context, limit int) ([]*domain.MatchRecord, error)
	GetMatch(ctx context.Context, id int64) (*domain.MatchRecord, error)
	GetMatchByUUID(ctx context.Context, matchUUID string) (*domain.MatchRecord, error)
}

type repository struct {
	db *sql.DB
}

// NewRepository wraps an open Postgres handle.
func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const matchColumns = `
		id,
		match_uuid,
		mode,
		result,
		result_method,
		moves_uci,
		moves_san,
		pgn,
		final_fen,
		search_depth,
		started_at,
		ended_at,
		duration_ms`

func (r *repository) InsertMatch(ctx context.Context, rec *domain.MatchRecord) (int64, error) {
	if rec == nil {
		return 0, fmt.Errorf("nil match record payload")
	}

	movesUCI, err := json.Marshal(rec.MovesUCI)
	if err != nil {
		return 0, fmt.Errorf("marshal moves_uci: %w", err)
	}
	movesSAN, err := json.Marshal(rec.MovesSAN)
	if err != nil {
		return 0, fmt.Errorf("marshal moves_san: %w", err)
	}

	const query = `
		INSERT INTO matches (
			match_uuid,
			mode,
			result,
			result_method,
			moves_uci,
			moves_san,
			pgn,
			final_fen,
			search_depth,
			started_at,
			ended_at,
			duration_ms
		)
		VALUES ($1, $2, $3, $4, $5::jsonb, $6::jsonb, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (match_uuid) DO NOTHING
		RETURNING id`

	var id sql.NullInt64
	err = r.db.QueryRowContext(
		ctx,
		query,
		rec.MatchUUID,
		rec.Mode,
		rec.Result,
		rec.Method,
		movesUCI,
		movesSAN,
		rec.PGN,
		rec.FinalFEN,
		rec.SearchDepth,
		rec.StartedAt,
		rec.EndedAt,
		rec.Duration.Milliseconds(),
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !id.Valid) {
		return 0, ErrDuplicateMatch
	}
	if err != nil {
		return 0, fmt.Errorf("insert match: %w", err)
	}
	return id.Int64, nil
}

func (r *repository) GetRecentMatches(ctx context.Context, limit int) ([]*domain.MatchRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	query := `
		SELECT` + matchColumns + `
		FROM matches
		ORDER BY ended_at DESC
		LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("select matches: %w", err)
	}
	defer rows.Close()

	records := make([]*domain.MatchRecord, 0, limit)
	for rows.Next() {
		rec, err := scanMatch(rows.Scan)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (r *repository) GetMatch(ctx context.Context, id int64) (*domain.MatchRecord, error) {
	query := `
		SELECT` + matchColumns + `
		FROM matches
		WHERE id = $1`
	rec, err := scanMatch(r.db.QueryRowContext(ctx, query, id).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return rec, err
}

func (r *repository) GetMatchByUUID(ctx context.Context, matchUUID string) (*domain.MatchRecord, error) {
	query := `
		SELECT` + matchColumns + `
		FROM matches
		WHERE match_uuid = $1
		ORDER BY ended_at DESC
		LIMIT 1`
	rec, err := scanMatch(r.db.QueryRowContext(ctx, query, matchUUID).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return rec, err
}

func scanMatch(scan func(dest ...any) error) (*domain.MatchRecord, error) {
	var (
		rec          domain.MatchRecord
		movesUCIJSON []byte
		movesSANJSON []byte
		durationMS   sql.NullInt64
	)
	err := scan(
		&rec.ID,
		&rec.MatchUUID,
		&rec.Mode,
		&rec.Result,
		&rec.Method,
		&movesUCIJSON,
		&movesSANJSON,
		&rec.PGN,
		&rec.FinalFEN,
		&rec.SearchDepth,
		&rec.StartedAt,
		&rec.EndedAt,
		&durationMS,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan match: %w", err)
	}
	if durationMS.Valid {
		rec.Duration = time.Duration(durationMS.Int64) * time.Millisecond
	}
	if err := json.Unmarshal(movesUCIJSON, &rec.MovesUCI); err != nil {
		return nil, fmt.Errorf("unmarshal moves_uci: %w", err)
	}
	if err := json.Unmarshal(movesSANJSON, &rec.MovesSAN); err != nil {
		return nil, fmt.Errorf("unmarshal moves_san: %w", err)
	}
	return &rec, nil
}
