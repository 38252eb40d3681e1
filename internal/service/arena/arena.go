// Package arena runs matches: it owns the live match, feeds it engine and
// human moves, keeps the redis snapshot fresh, fans out move events, and
// archives the result when the match ends.
package arena

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	nchess "github.com/corentings/chess/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jwhyun/plywood/internal/archive"
	"github.com/jwhyun/plywood/internal/domain"
	"github.com/jwhyun/plywood/internal/engine"
	"github.com/jwhyun/plywood/internal/match"
	"github.com/jwhyun/plywood/internal/matchstore"
	"github.com/jwhyun/plywood/internal/obslog"
	"github.com/jwhyun/plywood/internal/render"
	"github.com/jwhyun/plywood/pkg/matchdto"
)

// ErrNoActiveMatch is returned when a move arrives before StartMatch.
var ErrNoActiveMatch = errors.New("no active match")

const eventBuffer = 16

// Arena orchestrates one live match at a time.
type Arena struct {
	eng    *engine.Engine
	store  *matchstore.Store
	repo   archive.Repository
	logger *zap.Logger

	mu        sync.Mutex
	current   *match.Match
	id        string
	mode      string
	startedAt time.Time
	persisted bool

	subMu sync.Mutex
	subs  map[chan matchdto.MoveEvent]struct{}
}

// New wires an arena. store may be nil (no snapshots); repo may be nil
// (no archive).
func New(eng *engine.Engine, store *matchstore.Store, repo archive.Repository) *Arena {
	if eng == nil {
		eng = engine.New()
	}
	return &Arena{
		eng:    eng,
		store:  store,
		repo:   repo,
		logger: obslog.L(),
		subs:   make(map[chan matchdto.MoveEvent]struct{}),
	}
}

// StartMatch begins a fresh match in the given mode.
func (a *Arena) StartMatch(ctx context.Context, mode string) (*matchdto.MatchState, error) {
	if mode != domain.ModeSelfplay && mode != domain.ModeHuman {
		return nil, fmt.Errorf("unknown match mode %q", mode)
	}

	a.mu.Lock()
	a.current = match.New(a.eng)
	a.id = uuid.NewString()
	a.mode = mode
	a.startedAt = time.Now()
	a.persisted = false
	state := a.stateLocked()
	a.mu.Unlock()

	a.saveSnapshot(ctx, state)
	a.logger.Info("match_start",
		zap.String("match_id", state.MatchID),
		zap.String("mode", mode),
		zap.Int("depth", a.eng.Depth()))
	return state, nil
}

// ResumeMatch reloads a snapshotted match from the store and replays its
// moves, making it the live match again.
func (a *Arena) ResumeMatch(ctx context.Context, id string) (*matchdto.MatchState, error) {
	if a.store == nil {
		return nil, fmt.Errorf("resume requires a configured match store")
	}
	snap, err := a.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, fmt.Errorf("no snapshot for match %s", id)
	}

	m, err := match.Restore(a.eng, snap.MovesUCI)
	if err != nil {
		return nil, fmt.Errorf("restore match %s: %w", id, err)
	}

	a.mu.Lock()
	a.current = m
	a.id = snap.ID
	a.mode = snap.Mode
	a.startedAt = snap.CreatedAt
	a.persisted = false
	state := a.stateLocked()
	a.mu.Unlock()

	a.saveSnapshot(ctx, state)
	a.logger.Info("match_resume",
		zap.String("match_id", state.MatchID),
		zap.String("mode", state.Mode),
		zap.Int("plies", state.Plies))
	return state, nil
}

// PlayHuman applies an external move in SAN or UCI.
func (a *Arena) PlayHuman(ctx context.Context, text string) (*matchdto.MoveEvent, error) {
	return a.play(ctx, matchdto.MoverHuman, func(m *match.Match) (*nchess.Move, error) {
		return m.PlayMove(text)
	})
}

// StepEngine lets the engine play the next move.
func (a *Arena) StepEngine(ctx context.Context) (*matchdto.MoveEvent, error) {
	return a.play(ctx, matchdto.MoverEngine, func(m *match.Match) (*nchess.Move, error) {
		return m.PlayEngineMove()
	})
}

func (a *Arena) play(ctx context.Context, mover string, apply func(*match.Match) (*nchess.Move, error)) (*matchdto.MoveEvent, error) {
	a.mu.Lock()
	m := a.current
	if m == nil {
		a.mu.Unlock()
		return nil, ErrNoActiveMatch
	}

	sanBefore := len(m.MovesSAN())
	mv, err := apply(m)
	if err != nil {
		a.mu.Unlock()
		return nil, err
	}

	san := ""
	if all := m.MovesSAN(); len(all) > sanBefore {
		san = all[len(all)-1]
	}
	event := &matchdto.MoveEvent{
		MatchID: a.id,
		Ply:     m.Plies(),
		MoveUCI: mv.String(),
		MoveSAN: san,
		By:      mover,
		Score:   m.Score(),
		Status:  string(m.Status()),
	}
	state := a.stateLocked()
	a.mu.Unlock()

	a.saveSnapshot(ctx, state)
	a.publish(*event)
	a.logger.Info("match_move",
		zap.String("match_id", event.MatchID),
		zap.String("by", mover),
		zap.Int("ply", event.Ply),
		zap.String("uci", event.MoveUCI),
		zap.Int("score", event.Score),
		zap.String("status", event.Status))

	if state.Status != string(match.StatusOngoing) {
		a.persistFinal(ctx)
	}
	return event, nil
}

// Resign ends the match by resignation of the given side.
func (a *Arena) Resign(ctx context.Context, color nchess.Color) error {
	a.mu.Lock()
	m := a.current
	if m == nil {
		a.mu.Unlock()
		return ErrNoActiveMatch
	}
	m.Resign(color)
	state := a.stateLocked()
	a.mu.Unlock()

	a.saveSnapshot(ctx, state)
	a.logger.Info("match_resign",
		zap.String("match_id", state.MatchID),
		zap.String("status", state.Status))
	a.persistFinal(ctx)
	return nil
}

// State snapshots the current match, nil when none is running.
func (a *Arena) State() *matchdto.MatchState {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.current == nil {
		return nil
	}
	return a.stateLocked()
}

// CurrentBoard exposes the live board and last-move highlight for rendering.
func (a *Arena) CurrentBoard() (*nchess.Board, *render.MoveHighlight) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.current == nil {
		return nil, nil
	}
	var highlight *render.MoveHighlight
	if last := a.current.LastMove(); last != nil {
		highlight = &render.MoveHighlight{From: last.S1(), To: last.S2()}
	}
	return a.current.Board(), highlight
}

// GameOver reports whether the current match has a result. It is false when
// no match is running.
func (a *Arena) GameOver() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current != nil && a.current.GameOver()
}

// RenderText is the board diagram with evaluation for terminal output.
func (a *Arena) RenderText() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.current == nil {
		return ""
	}
	return a.current.RenderText()
}

// Subscribe registers for move events. The returned func unsubscribes.
func (a *Arena) Subscribe() (<-chan matchdto.MoveEvent, func()) {
	ch := make(chan matchdto.MoveEvent, eventBuffer)
	a.subMu.Lock()
	a.subs[ch] = struct{}{}
	a.subMu.Unlock()
	return ch, func() {
		a.subMu.Lock()
		if _, ok := a.subs[ch]; ok {
			delete(a.subs, ch)
			close(ch)
		}
		a.subMu.Unlock()
	}
}

func (a *Arena) publish(ev matchdto.MoveEvent) {
	a.subMu.Lock()
	defer a.subMu.Unlock()
	for ch := range a.subs {
		select {
		case ch <- ev:
		default:
			// slow subscriber, drop
		}
	}
}

// stateLocked builds the DTO; callers hold a.mu.
func (a *Arena) stateLocked() *matchdto.MatchState {
	m := a.current
	turn := "white"
	if m.Turn() == nchess.Black {
		turn = "black"
	}
	lastMove := ""
	if last := m.LastMove(); last != nil {
		lastMove = last.String()
	}
	return &matchdto.MatchState{
		MatchID:     a.id,
		Mode:        a.mode,
		FEN:         m.FEN(),
		MovesUCI:    m.MovesUCI(),
		MovesSAN:    m.MovesSAN(),
		Turn:        turn,
		Status:      string(m.Status()),
		Score:       m.Score(),
		Plies:       m.Plies(),
		LastMove:    lastMove,
		SearchDepth: a.eng.Depth(),
		UpdatedAt:   time.Now(),
	}
}

func (a *Arena) saveSnapshot(ctx context.Context, state *matchdto.MatchState) {
	if a.store == nil || state == nil {
		return
	}
	snap := &matchstore.Snapshot{
		ID:          state.MatchID,
		Mode:        state.Mode,
		FEN:         state.FEN,
		MovesUCI:    state.MovesUCI,
		MovesSAN:    state.MovesSAN,
		Turn:        state.Turn,
		Status:      state.Status,
		Score:       state.Score,
		SearchDepth: state.SearchDepth,
		CreatedAt:   a.startedAt,
	}
	if err := a.store.Save(ctx, snap); err != nil {
		a.logger.Warn("match_snapshot_error",
			zap.String("match_id", state.MatchID),
			zap.Error(err))
	}
}

func (a *Arena) persistFinal(ctx context.Context) {
	a.mu.Lock()
	m := a.current
	if m == nil || !m.GameOver() || a.persisted {
		a.mu.Unlock()
		return
	}
	rec := &domain.MatchRecord{
		MatchUUID:   a.id,
		Mode:        a.mode,
		Result:      resultString(m.Status()),
		Method:      methodString(m.Method()),
		MovesUCI:    m.MovesUCI(),
		MovesSAN:    m.MovesSAN(),
		PGN:         m.PGN(),
		FinalFEN:    m.FEN(),
		SearchDepth: a.eng.Depth(),
		StartedAt:   a.startedAt,
		EndedAt:     time.Now(),
	}
	rec.Duration = rec.EndedAt.Sub(rec.StartedAt)
	a.persisted = true
	a.mu.Unlock()

	// A finished match no longer needs its live snapshot.
	if a.store != nil {
		if err := a.store.Delete(ctx, rec.MatchUUID); err != nil {
			a.logger.Warn("match_snapshot_delete_error",
				zap.String("match_id", rec.MatchUUID),
				zap.Error(err))
		}
	}

	if a.repo == nil {
		return
	}
	id, err := a.repo.InsertMatch(ctx, rec)
	if err != nil && !errors.Is(err, archive.ErrDuplicateMatch) {
		a.logger.Error("match_archive_error",
			zap.String("match_id", rec.MatchUUID),
			zap.Error(err))
		return
	}
	a.logger.Info("match_archived",
		zap.String("match_id", rec.MatchUUID),
		zap.Int64("archive_id", id),
		zap.String("result", rec.Result),
		zap.String("method", rec.Method))
}

func methodString(method nchess.Method) string {
	switch method {
	case nchess.Checkmate:
		return "checkmate"
	case nchess.Stalemate:
		return "stalemate"
	case nchess.Resignation:
		return "resignation"
	case nchess.ThreefoldRepetition:
		return "threefold_repetition"
	case nchess.FivefoldRepetition:
		return "fivefold_repetition"
	case nchess.FiftyMoveRule:
		return "fifty_move_rule"
	case nchess.SeventyFiveMoveRule:
		return "seventy_five_move_rule"
	case nchess.InsufficientMaterial:
		return "insufficient_material"
	case nchess.DrawOffer:
		return "draw_offer"
	default:
		return "unknown"
	}
}

func resultString(status match.Status) string {
	switch status {
	case match.StatusWhiteWins:
		return "white"
	case match.StatusBlackWins:
		return "black"
	case match.StatusStalemate:
		return "stalemate"
	case match.StatusDraw:
		return "draw"
	default:
		return "ongoing"
	}
}
