package render

import (
	"bytes"
	"context"
	"image/png"
	"testing"

	nchess "github.com/corentings/chess/v2"
)

func TestRenderPNGStartPosition(t *testing.T) {
	board := nchess.NewGame().Position().Board()
	data, err := NewRenderer().RenderPNG(context.Background(), board, Options{
		Header: "test match",
		Score:  0,
		Turn:   "white",
	})
	if err != nil {
		t.Fatalf("RenderPNG: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output is not valid png: %v", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() < DefaultSquarePx*8 || bounds.Dy() < DefaultSquarePx*8 {
		t.Fatalf("image too small: %v", bounds)
	}
}

func TestRenderPNGWithHighlightAndCustomSize(t *testing.T) {
	board := nchess.NewGame().Position().Board()
	data, err := NewRenderer().RenderPNG(context.Background(), board, Options{
		Highlight: &MoveHighlight{From: nchess.E2, To: nchess.E4},
		SquarePx:  32,
	})
	if err != nil {
		t.Fatalf("RenderPNG: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output is not valid png: %v", err)
	}
	if img.Bounds().Dx() >= DefaultSquarePx*8 {
		t.Fatalf("custom square size ignored: %v", img.Bounds())
	}
}

func TestRenderPNGNilBoard(t *testing.T) {
	if _, err := NewRenderer().RenderPNG(context.Background(), nil, Options{}); err == nil {
		t.Fatalf("expected error for nil board")
	}
}

func TestRenderPNGCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	board := nchess.NewGame().Position().Board()
	if _, err := NewRenderer().RenderPNG(ctx, board, Options{}); err == nil {
		t.Fatalf("expected context error")
	}
}

func TestPieceSVGParsesForEveryPiece(t *testing.T) {
	// The start position covers all six piece types in both colors.
	seen := map[nchess.Piece]bool{}
	for _, piece := range nchess.NewGame().Position().Board().SquareMap() {
		if piece == nchess.NoPiece || seen[piece] {
			continue
		}
		seen[piece] = true
		img, err := renderPieceImage(piece, 48)
		if err != nil {
			t.Fatalf("render %v: %v", piece, err)
		}
		if img.Bounds().Dx() != 48 {
			t.Fatalf("glyph size = %v, want 48", img.Bounds())
		}
	}
	if len(seen) != 12 {
		t.Fatalf("start position yielded %d distinct pieces, want 12", len(seen))
	}
}
