package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"
	"sync"

	nchess "github.com/corentings/chess/v2"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

// Piece glyphs are generated SVG documents rasterized on demand. Shapes are
// deliberately simple silhouettes; the fill and stroke flip per side.

const (
	whiteFill   = "#f2f2f0"
	whiteStroke = "#26262b"
	blackFill   = "#26262b"
	blackStroke = "#d9d9d5"
)

var glyphBodies = map[nchess.PieceType]string{
	nchess.Pawn: `
		<circle cx="32" cy="19" r="9"/>
		<path d="M 25 29 L 39 29 L 43 48 L 21 48 Z"/>
		<rect x="17" y="48" width="30" height="7" rx="2"/>`,
	nchess.Rook: `
		<path d="M 18 11 L 24 11 L 24 17 L 29 17 L 29 11 L 35 11 L 35 17 L 40 17 L 40 11 L 46 11 L 46 23 L 42 27 L 42 44 L 46 48 L 18 48 L 22 44 L 22 27 L 18 23 Z"/>
		<rect x="15" y="48" width="34" height="7" rx="2"/>`,
	nchess.Knight: `
		<path d="M 21 52 L 23 38 L 19 31 L 27 13 L 31 18 L 42 23 L 46 33 L 44 52 Z"/>
		<circle cx="30" cy="22" r="2"/>
		<rect x="17" y="52" width="30" height="5" rx="2"/>`,
	nchess.Bishop: `
		<circle cx="32" cy="11" r="4"/>
		<path d="M 32 15 L 41 28 L 37 45 L 27 45 L 23 28 Z"/>
		<rect x="18" y="45" width="28" height="7" rx="2"/>`,
	nchess.Queen: `
		<path d="M 15 21 L 22 33 L 26 17 L 32 31 L 38 17 L 42 33 L 49 21 L 45 48 L 19 48 Z"/>
		<circle cx="15" cy="18" r="3"/>
		<circle cx="32" cy="13" r="3"/>
		<circle cx="49" cy="18" r="3"/>
		<rect x="16" y="48" width="32" height="7" rx="2"/>`,
	nchess.King: `
		<rect x="30" y="6" width="4" height="14" rx="1"/>
		<rect x="25" y="10" width="14" height="4" rx="1"/>
		<path d="M 22 22 L 42 22 L 46 48 L 18 48 Z"/>
		<rect x="15" y="48" width="34" height="7" rx="2"/>`,
}

func pieceSVG(piece nchess.Piece) string {
	fill, stroke := whiteFill, whiteStroke
	if piece.Color() == nchess.Black {
		fill, stroke = blackFill, blackStroke
	}
	body := glyphBodies[piece.Type()]
	return fmt.Sprintf(
		`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 64 64"><g fill="%s" stroke="%s" stroke-width="2">%s</g></svg>`,
		fill, stroke, body)
}

type glyphCacheKey struct {
	piece nchess.Piece
	size  int
}

var (
	glyphCache   = map[glyphCacheKey]image.Image{}
	glyphCacheMu sync.RWMutex
)

func renderPieceImage(piece nchess.Piece, size int) (image.Image, error) {
	key := glyphCacheKey{piece: piece, size: size}

	glyphCacheMu.RLock()
	if img, ok := glyphCache[key]; ok {
		glyphCacheMu.RUnlock()
		return img, nil
	}
	glyphCacheMu.RUnlock()

	icon, err := oksvg.ReadIconStream(strings.NewReader(pieceSVG(piece)))
	if err != nil {
		return nil, fmt.Errorf("parse piece svg: %w", err)
	}
	icon.SetTarget(0, 0, float64(size), float64(size))

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.Transparent), image.Point{}, draw.Src)

	scanner := rasterx.NewScannerGV(size, size, img, img.Bounds())
	raster := rasterx.NewDasher(size, size, scanner)
	icon.Draw(raster, 1.0)

	glyphCacheMu.Lock()
	glyphCache[key] = img
	glyphCacheMu.Unlock()

	return img, nil
}
