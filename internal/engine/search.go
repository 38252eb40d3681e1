package engine

import (
	"errors"
	"fmt"
	"math"
	"sort"

	nchess "github.com/corentings/chess/v2"
	"go.uber.org/zap"

	"github.com/jwhyun/plywood/internal/obslog"
)

// DefaultDepth is the fixed search horizon in plies.
const DefaultDepth = 4

// scoreFloor leaves one unit of headroom above the minimum int so that
// negating a score can never overflow.
const (
	scoreFloor   = math.MinInt + 1
	scoreCeiling = math.MaxInt
)

// ErrNoMoves is returned when the side to move has no legal moves. The game
// state is left untouched in that case.
var ErrNoMoves = errors.New("no legal moves available")

// Engine picks moves by fixed-depth negamax with alpha-beta pruning over a
// material-only evaluation. All chess rules come from the game it is handed.
type Engine struct {
	depth  int
	logger *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithDepth overrides the search depth. Values below 1 are ignored.
func WithDepth(depth int) Option {
	return func(e *Engine) {
		if depth >= 1 {
			e.depth = depth
		}
	}
}

// WithLogger sets the logger used for per-move debug events.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// New returns an engine searching DefaultDepth plies unless overridden.
func New(opts ...Option) *Engine {
	e := &Engine{depth: DefaultDepth, logger: obslog.L()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Depth reports the configured search depth.
func (e *Engine) Depth() int { return e.depth }

type rootCandidate struct {
	move  nchess.Move
	score int
}

// ChooseMove scores every legal move in the current position, applies the
// best one to the game and returns it. Each root candidate is searched with
// a fresh full window. Candidates are collected captures first in the move
// generator's order, then stable-sorted by score descending, so equal scores
// keep that enumeration order.
func (e *Engine) ChooseMove(game *nchess.Game) (*nchess.Move, error) {
	captures, quiet := partitionMoves(game.Position())
	total := len(captures) + len(quiet)
	if total == 0 {
		return nil, ErrNoMoves
	}

	candidates := make([]rootCandidate, 0, total)
	for _, mv := range captures {
		candidates = append(candidates, e.scoreRootMove(game, mv))
	}
	for _, mv := range quiet {
		candidates = append(candidates, e.scoreRootMove(game, mv))
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	best := candidates[0].move
	if err := game.Move(&best, nil); err != nil {
		return nil, fmt.Errorf("apply chosen move %s: %w", best.String(), err)
	}

	e.logger.Debug("engine_move_chosen",
		zap.String("move", best.String()),
		zap.Int("score", candidates[0].score),
		zap.Int("depth", e.depth),
		zap.Int("candidates", total))
	return &best, nil
}

func (e *Engine) scoreRootMove(game *nchess.Game, mv nchess.Move) rootCandidate {
	child := game.Clone()
	m := mv
	if err := child.Move(&m, nil); err != nil {
		return rootCandidate{move: mv, score: scoreFloor}
	}
	return rootCandidate{move: mv, score: e.search(child, e.depth, scoreFloor, scoreCeiling)}
}

// search is negamax with alpha-beta pruning. Captures are searched before
// quiet moves. A cutoff inside the capture pass ends that pass only; the
// quiet pass still runs with the tightened window.
func (e *Engine) search(game *nchess.Game, depth, alpha, beta int) int {
	pos := game.Position()
	if depth == 0 || isSearchTerminal(game) {
		return Evaluate(pos.Board(), pos.Turn())
	}

	best := scoreFloor
	captures, quiet := partitionMoves(pos)

	for _, mv := range captures {
		child := game.Clone()
		m := mv
		if err := child.Move(&m, nil); err != nil {
			continue
		}
		score := -e.search(child, depth-1, -beta, -alpha)
		if score > best {
			best = score
		}
		if score > alpha {
			alpha = score
		}
		if alpha >= beta {
			break
		}
	}

	for _, mv := range quiet {
		child := game.Clone()
		m := mv
		if err := child.Move(&m, nil); err != nil {
			continue
		}
		score := -e.search(child, depth-1, -beta, -alpha)
		if score > best {
			best = score
		}
		if score > alpha {
			alpha = score
		}
		if alpha >= beta {
			break
		}
	}

	return best
}

// isSearchTerminal reports whether the game ended by checkmate or stalemate.
// Other finishes (repetition, fifty-move, insufficient material) do not stop
// the search; the horizon handles them.
func isSearchTerminal(game *nchess.Game) bool {
	if game.Outcome() == nchess.NoOutcome {
		return false
	}
	switch game.Method() {
	case nchess.Checkmate, nchess.Stalemate:
		return true
	}
	return false
}

// partitionMoves splits the legal moves into capturing moves and the rest,
// each keeping the move generator's order. A move captures when its
// destination square holds an opposing piece, so en passant sorts with the
// quiet moves.
func partitionMoves(pos *nchess.Position) (captures, quiet []nchess.Move) {
	board := pos.Board()
	mover := pos.Turn()
	for _, mv := range pos.ValidMoves() {
		if piece := board.Piece(mv.S2()); piece != nchess.NoPiece && piece.Color() != mover {
			captures = append(captures, mv)
		} else {
			quiet = append(quiet, mv)
		}
	}
	return captures, quiet
}
