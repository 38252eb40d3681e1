package main

import (
	"fmt"
	"os"
	"strings"

	nchess "github.com/corentings/chess/v2"
	"github.com/muesli/termenv"

	"github.com/jwhyun/plywood/internal/match"
)

var termOut = termenv.NewOutput(os.Stdout)

// renderColorBoard draws the board with ANSI square colors, falling back to
// plain letters on dumb terminals via termenv's profile detection.
func renderColorBoard(board *nchess.Board) string {
	profile := termOut.ColorProfile()
	lightBG := profile.Color("#f0d9b5")
	darkBG := profile.Color("#b58863")
	whiteFG := profile.Color("#fafafa")
	blackFG := profile.Color("#1c1c1c")

	ranks := []nchess.Rank{
		nchess.Rank8, nchess.Rank7, nchess.Rank6, nchess.Rank5,
		nchess.Rank4, nchess.Rank3, nchess.Rank2, nchess.Rank1,
	}

	var sb strings.Builder
	for _, rank := range ranks {
		sb.WriteString(fmt.Sprintf("%d ", int(rank)+1))
		for file := nchess.FileA; file <= nchess.FileH; file++ {
			sq := nchess.NewSquare(file, rank)
			bg := lightBG
			if (int(file)+int(rank))%2 == 0 {
				bg = darkBG
			}
			piece := board.Piece(sq)
			cell := "   "
			if piece != nchess.NoPiece {
				cell = " " + match.PieceLetter(piece) + " "
			}
			style := termOut.String(cell).Background(bg)
			if piece != nchess.NoPiece {
				fg := whiteFG
				if piece.Color() == nchess.Black {
					fg = blackFG
				}
				style = style.Foreground(fg)
			}
			sb.WriteString(style.String())
		}
		sb.WriteString("\n")
	}
	sb.WriteString("   a  b  c  d  e  f  g  h\n")
	return sb.String()
}

func printPosition(board *nchess.Board, score int, turn nchess.Color) {
	fmt.Print(renderColorBoard(board))
	side := "white"
	if turn == nchess.Black {
		side = "black"
	}
	fmt.Printf("eval %+d (%s to move)\n\n", score, side)
}
