// Package render rasterizes annotation state onto an image for display. It
// has no toolkit dependency; the UI layer blits the output into its widget.
package render

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"vru-annotate/internal/shape"
	"vru-annotate/internal/tools"
	"vru-annotate/pkg/geometry"
)

// Colors for overlay elements that are not shape-styled.
var (
	selectionColor  = color.RGBA{R: 255, G: 200, B: 0, A: 255}
	rubberBandColor = color.RGBA{R: 120, G: 170, B: 255, A: 255}
	previewColor    = color.RGBA{R: 220, G: 220, B: 220, A: 255}
	gridColor       = color.RGBA{R: 128, G: 128, B: 128, A: 60}
	handleFill      = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

const (
	handleSize = 6
	// DefaultGridSpacing is the grid pitch in image pixels.
	DefaultGridSpacing = 50
)

// Options controls optional overlay layers.
type Options struct {
	ShowGrid    bool
	GridSpacing int
	ShowLabels  bool
}

// Frame composes the background image, all shapes, selection chrome and the
// tool machine's live preview into one RGBA image. Shapes with malformed
// geometry are skipped, never rendered as garbage.
func Frame(background image.Image, shapes []*shape.Shape, machine *tools.Machine, opts Options) *image.RGBA {
	var bounds image.Rectangle
	if background != nil {
		bounds = background.Bounds()
	} else {
		bounds = image.Rect(0, 0, 640, 480)
	}

	out := image.NewRGBA(bounds)
	if background != nil {
		draw.Draw(out, bounds, background, bounds.Min, draw.Src)
	} else {
		draw.Draw(out, bounds, image.NewUniform(color.RGBA{R: 32, G: 32, B: 32, A: 255}), image.Point{}, draw.Src)
	}

	if opts.ShowGrid {
		spacing := opts.GridSpacing
		if spacing <= 0 {
			spacing = DefaultGridSpacing
		}
		drawGrid(out, spacing)
	}

	// Live move drags render translated without touching the store.
	var dragDelta geometry.Point2D
	dragIDs := map[string]bool{}
	var resizeID string
	var resizeRect geometry.Rect
	if machine != nil {
		delta, ids := machine.DragDelta()
		dragDelta = delta
		for _, id := range ids {
			dragIDs[id] = true
		}
		if id, r, ok := machine.ResizePreview(); ok {
			resizeID = id
			resizeRect = r
		}
	}

	for _, sh := range shapes {
		if sh == nil || !sh.Visible || !sh.Valid() {
			continue
		}

		if sh.ID == resizeID {
			drawRect(out, resizeRect, sh.Style.StrokeColor)
			continue
		}

		offset := geometry.Point2D{}
		if dragIDs[sh.ID] {
			offset = dragDelta
		}
		drawShape(out, sh, offset)

		if sh.Selected {
			drawSelection(out, sh, offset)
		}
		if opts.ShowLabels && sh.Label != "" {
			labelAt(out, sh.BoundingBox.X+offset.X, sh.BoundingBox.Y+offset.Y-4, sh.Label, sh.Style.StrokeColor)
		}
	}

	if machine != nil {
		if preview := machine.PreviewShape(); preview != nil && preview.Valid() {
			drawShapeOutline(out, preview, previewColor)
		}
		if band, ok := machine.RubberBand(); ok {
			drawDashedRect(out, band, rubberBandColor)
		}
	}

	return out
}

func drawShape(img *image.RGBA, sh *shape.Shape, offset geometry.Point2D) {
	switch sh.Type {
	case shape.TypeRectangle:
		drawRect(img, sh.BoundingBox.Translate(offset), sh.Style.StrokeColor)
	case shape.TypePolygon:
		drawPolyline(img, sh.Points, offset, sh.Style.StrokeColor, true)
	case shape.TypeBrush:
		drawPolyline(img, sh.Points, offset, sh.Style.StrokeColor, false)
	case shape.TypePoint:
		p := sh.Points[0].Add(offset)
		drawCross(img, p, sh.Style.StrokeColor)
	}
}

func drawShapeOutline(img *image.RGBA, sh *shape.Shape, col color.RGBA) {
	switch sh.Type {
	case shape.TypeRectangle:
		drawRect(img, sh.BoundingBox, col)
	case shape.TypePolygon:
		drawPolyline(img, sh.Points, geometry.Point2D{}, col, false)
	case shape.TypeBrush:
		drawPolyline(img, sh.Points, geometry.Point2D{}, col, false)
	}
}

func drawSelection(img *image.RGBA, sh *shape.Shape, offset geometry.Point2D) {
	box := sh.BoundingBox.Translate(offset)
	drawDashedRect(img, box, selectionColor)

	if sh.Type == shape.TypeRectangle && !sh.Locked {
		for _, c := range box.Corners() {
			drawHandle(img, c)
		}
	}
}

func drawGrid(img *image.RGBA, spacing int) {
	b := img.Bounds()
	for x := b.Min.X; x < b.Max.X; x += spacing {
		for y := b.Min.Y; y < b.Max.Y; y++ {
			blend(img, x, y, gridColor)
		}
	}
	for y := b.Min.Y; y < b.Max.Y; y += spacing {
		for x := b.Min.X; x < b.Max.X; x++ {
			blend(img, x, y, gridColor)
		}
	}
}

func drawRect(img *image.RGBA, r geometry.Rect, col color.RGBA) {
	c := r.Corners()
	for i := 0; i < 4; i++ {
		drawLine(img, c[i], c[(i+1)%4], col)
	}
}

func drawDashedRect(img *image.RGBA, r geometry.Rect, col color.RGBA) {
	c := r.Corners()
	for i := 0; i < 4; i++ {
		drawDashedLine(img, c[i], c[(i+1)%4], col)
	}
}

func drawPolyline(img *image.RGBA, pts []geometry.Point2D, offset geometry.Point2D, col color.RGBA, closed bool) {
	if len(pts) < 2 {
		return
	}
	for i := 0; i < len(pts)-1; i++ {
		drawLine(img, pts[i].Add(offset), pts[i+1].Add(offset), col)
	}
	if closed && len(pts) >= 3 {
		drawLine(img, pts[len(pts)-1].Add(offset), pts[0].Add(offset), col)
	}
}

func drawCross(img *image.RGBA, p geometry.Point2D, col color.RGBA) {
	const arm = 5
	drawLine(img, geometry.Point2D{X: p.X - arm, Y: p.Y}, geometry.Point2D{X: p.X + arm, Y: p.Y}, col)
	drawLine(img, geometry.Point2D{X: p.X, Y: p.Y - arm}, geometry.Point2D{X: p.X, Y: p.Y + arm}, col)
}

func drawHandle(img *image.RGBA, p geometry.Point2D) {
	half := handleSize / 2
	x0, y0 := int(p.X)-half, int(p.Y)-half
	for dy := 0; dy <= handleSize; dy++ {
		for dx := 0; dx <= handleSize; dx++ {
			setPixel(img, x0+dx, y0+dy, handleFill)
		}
	}
	r := geometry.Rect{X: float64(x0), Y: float64(y0), Width: handleSize, Height: handleSize}
	drawRect(img, r, selectionColor)
}

// drawLine plots a line with Bresenham's algorithm.
func drawLine(img *image.RGBA, a, b geometry.Point2D, col color.RGBA) {
	x0, y0 := int(math.Round(a.X)), int(math.Round(a.Y))
	x1, y1 := int(math.Round(b.X)), int(math.Round(b.Y))

	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy

	for {
		setPixel(img, x0, y0, col)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

// drawDashedLine plots every other 4-pixel run of a Bresenham line.
func drawDashedLine(img *image.RGBA, a, b geometry.Point2D, col color.RGBA) {
	x0, y0 := int(math.Round(a.X)), int(math.Round(a.Y))
	x1, y1 := int(math.Round(b.X)), int(math.Round(b.Y))

	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	step := 0

	for {
		if (step/4)%2 == 0 {
			setPixel(img, x0, y0, col)
		}
		step++
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

// labelAt draws text with the fixed 7x13 basicfont.
func labelAt(img *image.RGBA, x, y float64, text string, col color.RGBA) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(int(x), int(y)),
	}
	d.DrawString(text)
}

func setPixel(img *image.RGBA, x, y int, col color.RGBA) {
	if (image.Point{X: x, Y: y}).In(img.Bounds()) {
		img.SetRGBA(x, y, col)
	}
}

// blend mixes col into the pixel by col's alpha.
func blend(img *image.RGBA, x, y int, col color.RGBA) {
	if !(image.Point{X: x, Y: y}).In(img.Bounds()) {
		return
	}
	dst := img.RGBAAt(x, y)
	a := int(col.A)
	inv := 255 - a
	img.SetRGBA(x, y, color.RGBA{
		R: uint8((int(col.R)*a + int(dst.R)*inv) / 255),
		G: uint8((int(col.G)*a + int(dst.G)*inv) / 255),
		B: uint8((int(col.B)*a + int(dst.B)*inv) / 255),
		A: 255,
	})
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
