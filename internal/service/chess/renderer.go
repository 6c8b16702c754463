package chess

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	imagedraw "image/draw"
	"image/png"
	"math"
	"strconv"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	corechess "github.com/WolfWhaleLMS/wolfwhale-lms-sub002/internal/chess"
	"github.com/WolfWhaleLMS/wolfwhale-lms-sub002/internal/session"
)

// MoveHighlight marks the last move. The computer's move is drawn as an
// arrow, the student's as tinted squares.
type MoveHighlight struct {
	From  corechess.Square
	To    corechess.Square
	Color corechess.Color
}

type RenderOptions struct {
	Highlight *MoveHighlight
	Material  session.Material
	Header    string
	Footer    string
}

type BoardRenderer interface {
	RenderPNG(ctx context.Context, board corechess.Board, opts RenderOptions) ([]byte, error)
}

type pngBoardRenderer struct {
	squareSize int
	face       font.Face
}

func NewPNGBoardRenderer() BoardRenderer {
	return &pngBoardRenderer{squareSize: 64, face: basicfont.Face7x13}
}

const (
	sideMargin   = 28
	topMargin    = 64
	bottomMargin = 48
	panelHeight  = 32
	panelRadius  = 10
	panelPadding = 18
)

var (
	lightSquare         = color.RGBA{233, 207, 163, 255}
	darkSquare          = color.RGBA{187, 136, 96, 255}
	studentMoveFill     = color.NRGBA{R: 255, G: 228, B: 120, A: 140}
	computerMoveArrow   = color.NRGBA{R: 148, G: 207, B: 255, A: 170}
	checkFill           = color.NRGBA{R: 230, G: 60, B: 60, A: 120}
	backgroundColor     = color.RGBA{20, 22, 33, 255}
	hudPanelColor       = color.NRGBA{R: 28, G: 31, B: 46, A: 250}
	hudTextPrimary      = color.NRGBA{R: 236, G: 239, B: 255, A: 255}
	coordinateTextColor = color.NRGBA{R: 8, G: 214, B: 120, A: 255}
)

func (r *pngBoardRenderer) RenderPNG(ctx context.Context, board corechess.Board, opts RenderOptions) ([]byte, error) {
	sq := r.squareSize
	boardSize := sq * 8
	origin := image.Point{X: sideMargin, Y: topMargin}
	boardRect := image.Rect(origin.X, origin.Y, origin.X+boardSize, origin.Y+boardSize)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img := image.NewRGBA(image.Rect(0, 0, boardSize+sideMargin*2, boardSize+topMargin+bottomMargin))
	imagedraw.Draw(img, img.Bounds(), image.NewUniform(backgroundColor), image.Point{}, imagedraw.Src)

	r.drawHUD(img, opts, boardRect)
	drawSquares(img, sq, origin)
	drawCheck(img, board, sq, origin)
	if h := opts.Highlight; h != nil && h.Color == corechess.White {
		drawSquareOverlay(img, h.From, sq, origin, studentMoveFill)
		drawSquareOverlay(img, h.To, sq, origin, studentMoveFill)
	}
	if err := drawPieces(img, board, sq, origin); err != nil {
		return nil, err
	}
	if h := opts.Highlight; h != nil && h.Color == corechess.Black {
		drawArrow(img, h.From, h.To, sq, origin, computerMoveArrow)
	}
	r.drawCoordinates(img, sq, origin)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *pngBoardRenderer) drawHUD(img *image.RGBA, opts RenderOptions, boardRect image.Rectangle) {
	drawer := &font.Drawer{Dst: img, Face: r.face}

	header := strings.TrimSpace(opts.Header)
	if header == "" {
		header = "Student vs Computer"
	}
	score := formatMaterialDiff(opts.Material)
	scoreWidth := drawer.MeasureString(score).Round() + panelPadding*2

	bottom := boardRect.Min.Y - 14
	top := bottom - panelHeight
	scoreRect := image.Rect(boardRect.Max.X-scoreWidth, top, boardRect.Max.X, bottom)
	headerRect := image.Rect(boardRect.Min.X, top, scoreRect.Min.X-12, bottom)

	drawRoundedPanel(img, headerRect, panelRadius, hudPanelColor)
	drawRoundedPanel(img, scoreRect, panelRadius, hudPanelColor)
	header = truncateWithEllipsis(r.face, header, headerRect.Dx()-panelPadding*2)
	drawCenteredString(drawer, headerRect, header, hudTextPrimary)
	drawCenteredString(drawer, scoreRect, score, hudTextPrimary)

	if footer := strings.TrimSpace(opts.Footer); footer != "" {
		footerRect := image.Rect(boardRect.Min.X, boardRect.Max.Y+22, boardRect.Max.X, boardRect.Max.Y+22+20)
		drawCenteredString(drawer, footerRect, truncateWithEllipsis(r.face, footer, footerRect.Dx()), hudTextPrimary)
	}
}

func drawSquares(dst imagedraw.Image, squareSize int, origin image.Point) {
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			clr := lightSquare
			if (row+col)%2 == 1 {
				clr = darkSquare
			}
			rect := squareRect(corechess.Square{Row: row, Col: col}, squareSize, origin)
			imagedraw.Draw(dst, rect, image.NewUniform(clr), image.Point{}, imagedraw.Src)
		}
	}
}

// drawCheck tints the square of any king currently in check.
func drawCheck(img *image.RGBA, board corechess.Board, squareSize int, origin image.Point) {
	for _, c := range []corechess.Color{corechess.White, corechess.Black} {
		if !corechess.IsInCheck(board, c) {
			continue
		}
		if king, ok := corechess.FindKing(board, c); ok {
			drawSquareOverlay(img, king, squareSize, origin, checkFill)
		}
	}
}

func drawPieces(dst imagedraw.Image, board corechess.Board, squareSize int, origin image.Point) error {
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			piece := board[row][col]
			if piece.Empty() {
				continue
			}
			img, err := renderPieceImage(piece, squareSize)
			if err != nil {
				return err
			}
			rect := squareRect(corechess.Square{Row: row, Col: col}, squareSize, origin)
			imagedraw.Draw(dst, rect, img, image.Point{}, imagedraw.Over)
		}
	}
	return nil
}

func (r *pngBoardRenderer) drawCoordinates(dst imagedraw.Image, squareSize int, origin image.Point) {
	drawer := &font.Drawer{Dst: dst, Face: r.face, Src: image.NewUniform(coordinateTextColor)}
	ascent := r.face.Metrics().Ascent.Ceil()
	boardEnd := origin.Y + 8*squareSize

	for i := 0; i < 8; i++ {
		center := i*squareSize + squareSize/2
		drawCenteredText(drawer, strconv.Itoa(8-i), origin.X-sideMargin/2, origin.Y+center+ascent/2)
		drawCenteredText(drawer, string(rune('a'+i)), origin.X+center, boardEnd+ascent+2)
	}
}

func squareRect(sq corechess.Square, squareSize int, origin image.Point) image.Rectangle {
	x := origin.X + sq.Col*squareSize
	y := origin.Y + sq.Row*squareSize
	return image.Rect(x, y, x+squareSize, y+squareSize)
}

func drawSquareOverlay(img *image.RGBA, sq corechess.Square, squareSize int, origin image.Point, clr color.Color) {
	imagedraw.Draw(img, squareRect(sq, squareSize, origin), image.NewUniform(clr), image.Point{}, imagedraw.Over)
}

func drawArrow(img *image.RGBA, from, to corechess.Square, squareSize int, origin image.Point, clr color.Color) {
	if from == to {
		return
	}
	start := squareRect(from, squareSize, origin)
	end := squareRect(to, squareSize, origin)
	sx := float64(start.Min.X + squareSize/2)
	sy := float64(start.Min.Y + squareSize/2)
	ex := float64(end.Min.X + squareSize/2)
	ey := float64(end.Min.Y + squareSize/2)

	dx, dy := ex-sx, ey-sy
	length := math.Hypot(dx, dy)
	if length == 0 {
		return
	}
	dirX, dirY := dx/length, dy/length
	perpX, perpY := -dirY, dirX

	baseLength := length - float64(squareSize)*0.45
	if baseLength < float64(squareSize)*0.35 {
		baseLength = length * 0.6
	}
	halfWidth := float64(squareSize) * 0.12
	headHalf := float64(squareSize) * 0.24

	bx := sx + dirX*baseLength
	by := sy + dirY*baseLength

	fillTriangleF(img,
		pointF{sx - perpX*halfWidth, sy - perpY*halfWidth},
		pointF{sx + perpX*halfWidth, sy + perpY*halfWidth},
		pointF{bx + perpX*halfWidth, by + perpY*halfWidth}, clr)
	fillTriangleF(img,
		pointF{sx - perpX*halfWidth, sy - perpY*halfWidth},
		pointF{bx + perpX*halfWidth, by + perpY*halfWidth},
		pointF{bx - perpX*halfWidth, by - perpY*halfWidth}, clr)
	fillTriangleF(img,
		pointF{ex, ey},
		pointF{bx - perpX*headHalf, by - perpY*headHalf},
		pointF{bx + perpX*headHalf, by + perpY*headHalf}, clr)
}

func formatMaterialDiff(m session.Material) string {
	diff := m.Diff()
	if diff == 0 {
		return "="
	}
	return fmt.Sprintf("%+d", diff)
}

func truncateWithEllipsis(face font.Face, text string, maxWidth int) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || maxWidth <= 0 {
		return trimmed
	}
	drawer := font.Drawer{Face: face}
	if drawer.MeasureString(trimmed).Round() <= maxWidth {
		return trimmed
	}
	runes := []rune(trimmed)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		candidate := string(runes) + "..."
		if drawer.MeasureString(candidate).Round() <= maxWidth {
			return candidate
		}
	}
	return ""
}

func drawCenteredString(drawer *font.Drawer, rect image.Rectangle, text string, clr color.Color) {
	if text == "" {
		return
	}
	metrics := drawer.Face.Metrics()
	width := drawer.MeasureString(text).Round()
	x := rect.Min.X + (rect.Dx()-width)/2
	if x < rect.Min.X {
		x = rect.Min.X
	}
	baseline := rect.Min.Y + (rect.Dy()+metrics.Ascent.Ceil()-metrics.Descent.Ceil())/2
	drawer.Src = image.NewUniform(clr)
	drawer.Dot = fixed.P(x, baseline)
	drawer.DrawString(text)
}

func drawCenteredText(drawer *font.Drawer, text string, centerX, baseline int) {
	width := drawer.MeasureString(text).Round()
	drawer.Dot = fixed.P(centerX-width/2, baseline)
	drawer.DrawString(text)
}

func drawRoundedPanel(img *image.RGBA, rect image.Rectangle, radius int, clr color.Color) {
	if rect.Empty() {
		return
	}
	if limit := min(rect.Dx(), rect.Dy()) / 2; radius > limit {
		radius = limit
	}
	fill := image.NewUniform(clr)
	imagedraw.Draw(img, image.Rect(rect.Min.X+radius, rect.Min.Y, rect.Max.X-radius, rect.Max.Y), fill, image.Point{}, imagedraw.Over)
	imagedraw.Draw(img, image.Rect(rect.Min.X, rect.Min.Y+radius, rect.Min.X+radius, rect.Max.Y-radius), fill, image.Point{}, imagedraw.Over)
	imagedraw.Draw(img, image.Rect(rect.Max.X-radius, rect.Min.Y+radius, rect.Max.X, rect.Max.Y-radius), fill, image.Point{}, imagedraw.Over)

	corners := []image.Point{
		{rect.Min.X + radius, rect.Min.Y + radius},
		{rect.Max.X - radius - 1, rect.Min.Y + radius},
		{rect.Min.X + radius, rect.Max.Y - radius - 1},
		{rect.Max.X - radius - 1, rect.Max.Y - radius - 1},
	}
	for _, c := range corners {
		drawQuarterDisc(img, c, radius, rect, clr)
	}
}

// drawQuarterDisc fills the part of a disc that lies outside the panel's
// already painted cross but inside rect.
func drawQuarterDisc(img *image.RGBA, center image.Point, radius int, rect image.Rectangle, clr color.Color) {
	r2 := radius * radius
	for y := -radius; y <= radius; y++ {
		for x := -radius; x <= radius; x++ {
			px, py := center.X+x, center.Y+y
			if x*x+y*y > r2 || !(image.Point{X: px, Y: py}).In(rect) {
				continue
			}
			inCross := (px >= rect.Min.X+radius && px < rect.Max.X-radius) ||
				(py >= rect.Min.Y+radius && py < rect.Max.Y-radius)
			if inCross {
				continue
			}
			blendPixel(img, px, py, clr)
		}
	}
}

type pointF struct {
	X float64
	Y float64
}

func fillTriangleF(img *image.RGBA, a, b, c pointF, clr color.Color) {
	minX := int(math.Floor(math.Min(a.X, math.Min(b.X, c.X))))
	maxX := int(math.Ceil(math.Max(a.X, math.Max(b.X, c.X))))
	minY := int(math.Floor(math.Min(a.Y, math.Min(b.Y, c.Y))))
	maxY := int(math.Ceil(math.Max(a.Y, math.Max(b.Y, c.Y))))

	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			if pointInTriangle(float64(x)+0.5, float64(y)+0.5, a, b, c) {
				blendPixel(img, x, y, clr)
			}
		}
	}
}

func pointInTriangle(x, y float64, a, b, c pointF) bool {
	denom := (b.Y-c.Y)*(a.X-c.X) + (c.X-b.X)*(a.Y-c.Y)
	if denom == 0 {
		return false
	}
	alpha := ((b.Y-c.Y)*(x-c.X) + (c.X-b.X)*(y-c.Y)) / denom
	beta := ((c.Y-a.Y)*(x-c.X) + (a.X-c.X)*(y-c.Y)) / denom
	return alpha >= 0 && beta >= 0 && 1-alpha-beta >= 0
}

// blendPixel composites clr over the pixel with straight alpha.
func blendPixel(img *image.RGBA, x, y int, clr color.Color) {
	if !(image.Point{X: x, Y: y}).In(img.Bounds()) {
		return
	}
	sr, sg, sb, sa := clr.RGBA()
	if sa == 0 {
		return
	}
	a := float64(sa) / 0xffff
	dst := img.RGBAAt(x, y)
	mix := func(s uint32, d uint8) uint8 {
		v := float64(s)/0xffff*255 + float64(d)*(1-a)
		if v > 255 {
			v = 255
		}
		return uint8(v + 0.5)
	}
	img.SetRGBA(x, y, color.RGBA{
		R: mix(sr, dst.R),
		G: mix(sg, dst.G),
		B: mix(sb, dst.B),
		A: mix(sa, dst.A),
	})
}
