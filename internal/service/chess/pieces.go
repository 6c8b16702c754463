package chess

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"
	"sync"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"

	corechess "github.com/WolfWhaleLMS/wolfwhale-lms-sub002/internal/chess"
)

// Sprite bodies share a 45x45 view box; fill and stroke are chosen per side.
var pieceShapes = map[corechess.Kind]string{
	corechess.Pawn: `<circle cx="22.5" cy="14" r="5"/>` +
		`<path d="M16 36 L29 36 L26 21 L19 21 Z"/>` +
		`<rect x="12" y="36" width="21" height="4"/>`,
	corechess.Knight: `<path d="M12 39 L33 39 L31 30 C30 20 27 12 20 10 L18 6 L16 11 C13 13 10 18 9 24 L13 26 L17 22 L20 23 C17 27 14 32 12 39 Z"/>`,
	corechess.Bishop: `<circle cx="22.5" cy="8" r="2.5"/>` +
		`<path d="M22.5 11 C16 15 14 22 16 28 L29 28 C31 22 29 15 22.5 11 Z"/>` +
		`<rect x="17" y="28" width="11" height="6"/>` +
		`<path d="M13 36 C17 34 28 34 32 36 L32 39 L13 39 Z"/>`,
	corechess.Rook: `<path d="M12 9 L16 9 L16 12 L20 12 L20 9 L25 9 L25 12 L29 12 L29 9 L33 9 L33 16 L12 16 Z"/>` +
		`<path d="M14 36 L16 16 L29 16 L31 36 Z"/>` +
		`<rect x="12" y="36" width="21" height="4"/>`,
	corechess.Queen: `<path d="M9 14 L13 30 L32 30 L36 14 L29 25 L27 11 L22.5 24 L18 11 L16 25 Z"/>` +
		`<circle cx="9" cy="13" r="2"/><circle cx="18" cy="10" r="2"/><circle cx="27" cy="10" r="2"/><circle cx="36" cy="13" r="2"/>` +
		`<rect x="12" y="30" width="21" height="4"/>` +
		`<rect x="10" y="34" width="25" height="5"/>`,
	corechess.King: `<path d="M21 4 L24 4 L24 8 L27 8 L27 11 L24 11 L24 15 L21 15 L21 11 L18 11 L18 8 L21 8 Z"/>` +
		`<path d="M11 30 C6 22 12 15 22.5 20 C33 15 39 22 34 30 Z"/>` +
		`<rect x="11" y="30" width="23" height="9"/>`,
}

func pieceSVG(p corechess.Piece) (string, error) {
	shape, ok := pieceShapes[p.Kind]
	if !ok {
		return "", fmt.Errorf("no sprite for %s", p)
	}
	fill, stroke := "#f8f8f8", "#101010"
	if p.Color == corechess.Black {
		fill, stroke = "#2b2b2b", "#000000"
	}
	return fmt.Sprintf(
		`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 45 45" width="45" height="45">`+
			`<g fill="%s" stroke="%s" stroke-width="1.5" stroke-linejoin="round">%s</g></svg>`,
		fill, stroke, shape,
	), nil
}

type pieceCacheKey struct {
	piece corechess.Piece
	size  int
}

var (
	pieceCache   = map[pieceCacheKey]image.Image{}
	pieceCacheMu sync.RWMutex
)

func renderPieceImage(piece corechess.Piece, size int) (image.Image, error) {
	key := pieceCacheKey{piece: piece, size: size}

	pieceCacheMu.RLock()
	if img, ok := pieceCache[key]; ok {
		pieceCacheMu.RUnlock()
		return img, nil
	}
	pieceCacheMu.RUnlock()

	src, err := pieceSVG(piece)
	if err != nil {
		return nil, err
	}
	icon, err := oksvg.ReadIconStream(strings.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("parse piece svg: %w", err)
	}
	icon.SetTarget(0, 0, float64(size), float64(size))

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.Transparent), image.Point{}, draw.Src)

	scanner := rasterx.NewScannerGV(size, size, img, img.Bounds())
	raster := rasterx.NewDasher(size, size, scanner)
	icon.Draw(raster, 1.0)

	pieceCacheMu.Lock()
	pieceCache[key] = img
	pieceCacheMu.Unlock()

	return img, nil
}
