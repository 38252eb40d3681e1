package engine

import (
	nchess "github.com/corentings/chess/v2"
)

// Material values in pawns. The king counts as zero: mate and stalemate are
// the rules engine's job, not the evaluator's.
var pieceValues = map[nchess.PieceType]int{
	nchess.Pawn:   1,
	nchess.Knight: 3,
	nchess.Bishop: 3,
	nchess.Rook:   5,
	nchess.Queen:  9,
	nchess.King:   0,
}

// Evaluate returns the material balance of the board from the given side's
// perspective: own material minus the opponent's. It visits every square and
// has no side effects.
func Evaluate(board *nchess.Board, perspective nchess.Color) int {
	if board == nil {
		return 0
	}

	white, black := 0, 0
	for file := nchess.FileA; file <= nchess.FileH; file++ {
		for rank := nchess.Rank1; rank <= nchess.Rank8; rank++ {
			piece := board.Piece(nchess.NewSquare(file, rank))
			if piece == nchess.NoPiece {
				continue
			}
			switch piece.Color() {
			case nchess.White:
				white += pieceValues[piece.Type()]
			case nchess.Black:
				black += pieceValues[piece.Type()]
			}
		}
	}

	if perspective == nchess.White {
		return white - black
	}
	return black - white
}
