// Package render draws a chess position as a PNG image: squares, piece
// glyphs, last-move highlight, coordinates and a one-line evaluation header.
package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	imagedraw "image/draw"
	"image/png"
	"strings"

	nchess "github.com/corentings/chess/v2"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// MoveHighlight marks the from/to squares of the last move.
type MoveHighlight struct {
	From nchess.Square
	To   nchess.Square
}

// Options tunes a single render call.
type Options struct {
	Highlight *MoveHighlight
	Header    string
	Score     int
	Turn      string
	// SquarePx is the side of one square; DefaultSquarePx when zero.
	SquarePx int
}

// DefaultSquarePx is the square size used when Options leaves it unset.
const DefaultSquarePx = 72

// BoardRenderer turns a board into an encoded image.
type BoardRenderer interface {
	RenderPNG(ctx context.Context, board *nchess.Board, opts Options) ([]byte, error)
}

type pngRenderer struct{}

// NewRenderer returns the PNG board renderer.
func NewRenderer() BoardRenderer { return &pngRenderer{} }

var (
	lightSquare    = color.RGBA{233, 207, 163, 255}
	darkSquare     = color.RGBA{187, 136, 96, 255}
	highlightFill  = color.NRGBA{R: 255, G: 228, B: 120, A: 140}
	backgroundFill = color.RGBA{28, 31, 46, 255}
	hudTextColor   = color.NRGBA{R: 236, G: 239, B: 255, A: 255}
	coordTextColor = color.NRGBA{R: 204, G: 210, B: 236, A: 255}
)

var boardRanks = []nchess.Rank{
	nchess.Rank8, nchess.Rank7, nchess.Rank6, nchess.Rank5,
	nchess.Rank4, nchess.Rank3, nchess.Rank2, nchess.Rank1,
}

var boardFiles = []nchess.File{
	nchess.FileA, nchess.FileB, nchess.FileC, nchess.FileD,
	nchess.FileE, nchess.FileF, nchess.FileG, nchess.FileH,
}

func (r *pngRenderer) RenderPNG(ctx context.Context, board *nchess.Board, opts Options) ([]byte, error) {
	if board == nil {
		return nil, fmt.Errorf("board is nil")
	}

	squarePx := opts.SquarePx
	if squarePx <= 0 {
		squarePx = DefaultSquarePx
	}
	const (
		sideMargin   = 28
		topMargin    = 44
		bottomMargin = 28
	)
	boardPx := squarePx * 8
	totalWidth := boardPx + sideMargin*2
	totalHeight := boardPx + topMargin + bottomMargin
	origin := image.Point{X: sideMargin, Y: topMargin}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	img := image.NewRGBA(image.Rect(0, 0, totalWidth, totalHeight))
	imagedraw.Draw(img, img.Bounds(), image.NewUniform(backgroundFill), image.Point{}, imagedraw.Src)

	drawSquares(img, squarePx, origin)
	drawHighlight(img, opts.Highlight, squarePx, origin)
	if err := drawPieces(img, board, squarePx, origin); err != nil {
		return nil, err
	}
	drawCoordinates(img, squarePx, origin, sideMargin)
	drawHUD(img, opts, totalWidth, topMargin)

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func drawSquares(dst imagedraw.Image, squarePx int, origin image.Point) {
	for row, rank := range boardRanks {
		for col, file := range boardFiles {
			x := origin.X + col*squarePx
			y := origin.Y + row*squarePx
			sq := nchess.NewSquare(file, rank)
			imagedraw.Draw(dst, image.Rect(x, y, x+squarePx, y+squarePx),
				image.NewUniform(squareColor(sq)), image.Point{}, imagedraw.Src)
		}
	}
}

func drawPieces(dst imagedraw.Image, board *nchess.Board, squarePx int, origin image.Point) error {
	boardMap := board.SquareMap()
	for row, rank := range boardRanks {
		for col, file := range boardFiles {
			sq := nchess.NewSquare(file, rank)
			piece, ok := boardMap[sq]
			if !ok || piece == nchess.NoPiece {
				continue
			}
			glyph, err := renderPieceImage(piece, squarePx)
			if err != nil {
				return err
			}
			x := origin.X + col*squarePx
			y := origin.Y + row*squarePx
			imagedraw.Draw(dst, image.Rect(x, y, x+squarePx, y+squarePx), glyph, image.Point{}, imagedraw.Over)
		}
	}
	return nil
}

func drawHighlight(img *image.RGBA, highlight *MoveHighlight, squarePx int, origin image.Point) {
	if highlight == nil {
		return
	}
	for _, sq := range []nchess.Square{highlight.From, highlight.To} {
		rect := squareRect(sq, squarePx, origin)
		imagedraw.Draw(img, rect, image.NewUniform(highlightFill), image.Point{}, imagedraw.Over)
	}
}

func drawCoordinates(dst imagedraw.Image, squarePx int, origin image.Point, margin int) {
	drawer := &font.Drawer{
		Dst:  dst,
		Face: basicfont.Face7x13,
		Src:  image.NewUniform(coordTextColor),
	}
	ascent := basicfont.Face7x13.Metrics().Ascent.Ceil()
	boardBottom := origin.Y + len(boardRanks)*squarePx

	for row, rank := range boardRanks {
		baseline := origin.Y + row*squarePx + squarePx/2 + ascent/2
		drawCenteredText(drawer, rank.String(), origin.X-margin/2, baseline)
	}
	for col, file := range boardFiles {
		center := origin.X + col*squarePx + squarePx/2
		drawCenteredText(drawer, file.String(), center, boardBottom+ascent+4)
	}
}

func drawHUD(img *image.RGBA, opts Options, totalWidth, topMargin int) {
	drawer := &font.Drawer{
		Dst:  img,
		Face: basicfont.Face7x13,
		Src:  image.NewUniform(hudTextColor),
	}

	header := strings.TrimSpace(opts.Header)
	if header == "" {
		header = "plywood"
	}
	right := fmt.Sprintf("eval %+d", opts.Score)
	if turn := strings.TrimSpace(opts.Turn); turn != "" {
		right += "  " + turn + " to move"
	}

	baseline := topMargin/2 + basicfont.Face7x13.Metrics().Ascent.Ceil()/2
	drawer.Dot = fixed.P(12, baseline)
	drawer.DrawString(header)

	width := drawer.MeasureString(right).Round()
	drawer.Dot = fixed.P(totalWidth-width-12, baseline)
	drawer.DrawString(right)
}

func drawCenteredText(drawer *font.Drawer, text string, centerX, baseline int) {
	if text == "" {
		return
	}
	width := drawer.MeasureString(text).Round()
	drawer.Dot = fixed.P(centerX-width/2, baseline)
	drawer.DrawString(text)
}

func squareRect(sq nchess.Square, squarePx int, origin image.Point) image.Rectangle {
	col := int(sq.File())
	row := 7 - int(sq.Rank())
	x := origin.X + col*squarePx
	y := origin.Y + row*squarePx
	return image.Rect(x, y, x+squarePx, y+squarePx)
}

func squareColor(sq nchess.Square) color.Color {
	if (int(sq.File())+int(sq.Rank()))%2 == 0 {
		return darkSquare
	}
	return lightSquare
}
