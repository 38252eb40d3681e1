// Package match owns the authoritative state of a single chess game and
// mediates between external movers and the engine. All rule questions are
// answered by the rules library, never locally.
package match

import (
	"errors"
	"fmt"
	"strings"

	nchess "github.com/corentings/chess/v2"

	"github.com/jwhyun/plywood/internal/engine"
)

var (
	// ErrInvalidMove marks input that is not a legal move in the current
	// position. Callers re-prompt; the game state is unchanged.
	ErrInvalidMove = errors.New("invalid chess move")
	// ErrFinished marks an attempt to move in a finished game.
	ErrFinished = errors.New("match already finished")
)

// Status is the match result as reported by the rules library.
type Status string

const (
	StatusOngoing   Status = "ongoing"
	StatusWhiteWins Status = "white_wins"
	StatusBlackWins Status = "black_wins"
	StatusStalemate Status = "stalemate"
	StatusDraw      Status = "draw"
)

// Match pairs a live game with the engine that plays it.
type Match struct {
	game   *nchess.Game
	engine *engine.Engine
}

// New starts a match from the standard starting position.
func New(eng *engine.Engine) *Match {
	if eng == nil {
		eng = engine.New()
	}
	return &Match{game: nchess.NewGame(), engine: eng}
}

// Restore rebuilds a match by replaying UCI moves from the start position.
func Restore(eng *engine.Engine, movesUCI []string) (*Match, error) {
	m := New(eng)
	for i, uci := range movesUCI {
		mv, err := nchess.UCINotation{}.Decode(m.game.Position(), uci)
		if err != nil {
			return nil, fmt.Errorf("replay move %d (%s): %w", i+1, uci, err)
		}
		if err := m.game.Move(mv, nil); err != nil {
			return nil, fmt.Errorf("replay move %d (%s): %w", i+1, uci, err)
		}
	}
	return m, nil
}

// PlayMove applies an external move given in SAN or UCI.
func (m *Match) PlayMove(text string) (*nchess.Move, error) {
	if m.GameOver() {
		return nil, ErrFinished
	}
	raw := strings.TrimSpace(text)
	if raw == "" {
		return nil, ErrInvalidMove
	}

	pos := m.game.Position()
	mv, err := nchess.AlgebraicNotation{}.Decode(pos, raw)
	if err != nil {
		mv, err = nchess.UCINotation{}.Decode(pos, strings.ToLower(raw))
		if err != nil {
			return nil, ErrInvalidMove
		}
	}
	if err := m.game.Move(mv, nil); err != nil {
		return nil, ErrInvalidMove
	}
	return mv, nil
}

// PlayEngineMove asks the engine for a move and applies it.
func (m *Match) PlayEngineMove() (*nchess.Move, error) {
	if m.GameOver() {
		return nil, ErrFinished
	}
	return m.engine.ChooseMove(m.game)
}

// Status classifies the match result.
func (m *Match) Status() Status {
	switch m.game.Outcome() {
	case nchess.WhiteWon:
		return StatusWhiteWins
	case nchess.BlackWon:
		return StatusBlackWins
	case nchess.Draw:
		if m.game.Method() == nchess.Stalemate {
			return StatusStalemate
		}
		return StatusDraw
	default:
		return StatusOngoing
	}
}

// GameOver reports whether the rules library has recorded a result.
func (m *Match) GameOver() bool {
	return m.game.Outcome() != nchess.NoOutcome
}

// Score is the material evaluation for the side to move.
func (m *Match) Score() int {
	pos := m.game.Position()
	return engine.Evaluate(pos.Board(), pos.Turn())
}

// Turn is the side to move.
func (m *Match) Turn() nchess.Color { return m.game.Position().Turn() }

// Method reports how the match ended, NoMethod while it is running.
func (m *Match) Method() nchess.Method { return m.game.Method() }

// Resign records a resignation for the given side.
func (m *Match) Resign(color nchess.Color) { m.game.Resign(color) }

// Board exposes the current board for rendering.
func (m *Match) Board() *nchess.Board { return m.game.Position().Board() }

// FEN is the current position in Forsyth-Edwards notation.
func (m *Match) FEN() string { return m.game.FEN() }

// PGN is the full game record.
func (m *Match) PGN() string { return m.game.String() }

// Plies is the number of half-moves played.
func (m *Match) Plies() int { return len(m.game.Moves()) }

// LastMove returns the most recent move, nil before the first one.
func (m *Match) LastMove() *nchess.Move {
	moves := m.game.Moves()
	if len(moves) == 0 {
		return nil
	}
	return moves[len(moves)-1]
}

// MovesUCI lists the played moves in UCI notation.
func (m *Match) MovesUCI() []string {
	moves := m.game.Moves()
	out := make([]string, 0, len(moves))
	for _, mv := range moves {
		out = append(out, mv.String())
	}
	return out
}

// MovesSAN lists the played moves in standard algebraic notation.
func (m *Match) MovesSAN() []string {
	moves := m.game.Moves()
	positions := m.game.Positions()
	out := make([]string, 0, len(moves))
	for i, mv := range moves {
		if i >= len(positions) {
			break
		}
		out = append(out, nchess.AlgebraicNotation{}.Encode(positions[i], mv))
	}
	return out
}

var pieceLetters = map[nchess.PieceType]string{
	nchess.King:   "K",
	nchess.Queen:  "Q",
	nchess.Rook:   "R",
	nchess.Bishop: "B",
	nchess.Knight: "N",
	nchess.Pawn:   "P",
}

// PieceLetter is the one-letter code for a piece, uppercase for white and
// lowercase for black.
func PieceLetter(piece nchess.Piece) string {
	letter, ok := pieceLetters[piece.Type()]
	if !ok {
		return " "
	}
	if piece.Color() == nchess.Black {
		return strings.ToLower(letter)
	}
	return letter
}

var textRanks = []nchess.Rank{
	nchess.Rank8, nchess.Rank7, nchess.Rank6, nchess.Rank5,
	nchess.Rank4, nchess.Rank3, nchess.Rank2, nchess.Rank1,
}

// RenderText draws the board with the material evaluation underneath. Ranks
// run 8 down to 1 so white sits at the bottom.
func (m *Match) RenderText() string {
	board := m.Board()
	var sb strings.Builder
	for _, rank := range textRanks {
		sb.WriteString(fmt.Sprintf("%d ", int(rank)+1))
		for file := nchess.FileA; file <= nchess.FileH; file++ {
			piece := board.Piece(nchess.NewSquare(file, rank))
			if piece == nchess.NoPiece {
				sb.WriteString(". ")
				continue
			}
			sb.WriteString(PieceLetter(piece) + " ")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("  a b c d e f g h\n")

	side := "white"
	if m.Turn() == nchess.Black {
		side = "black"
	}
	sb.WriteString(fmt.Sprintf("eval %+d (%s to move)\n", m.Score(), side))
	return sb.String()
}
