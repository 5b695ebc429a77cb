// Package canvas provides the annotation canvas widget with pan, zoom and
// tool interaction.
package canvas

import (
	"image"
	"image/draw"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"vru-annotate/internal/annotation"
	"vru-annotate/internal/render"
	"vru-annotate/internal/tools"
	"vru-annotate/pkg/geometry"
)

const (
	minZoom  = 0.1
	maxZoom  = 10.0
	zoomStep = 1.25
)

// AnnotationCanvas displays the current frame with its shapes and forwards
// pointer events to the tool machine in image coordinates.
type AnnotationCanvas struct {
	widget.BaseWidget

	store   *annotation.Store
	machine *tools.Machine

	frame image.Image // current video frame, nil before a video opens
	zoom  float64

	showGrid   bool
	showLabels bool

	raster      *fynecanvas.Raster
	content     *canvasContent
	scroll      *zoomScroll
	imgSize     fyne.Size
	invalidator *render.Invalidator

	// Callbacks
	onZoomChange func(zoom float64)
	onCursor     func(x, y float64)
}

// NewAnnotationCanvas creates a canvas bound to the store and tool machine.
func NewAnnotationCanvas(store *annotation.Store, machine *tools.Machine) *AnnotationCanvas {
	ac := &AnnotationCanvas{
		store:      store,
		machine:    machine,
		zoom:       1.0,
		imgSize:    fyne.NewSize(640, 480),
		showLabels: true,
	}

	ac.raster = fynecanvas.NewRaster(ac.draw)
	ac.raster.ScaleMode = fynecanvas.ImageScalePixels
	ac.raster.SetMinSize(ac.imgSize)

	ac.content = newCanvasContent(ac, ac.raster)
	ac.scroll = newZoomScroll(ac.content, ac)
	ac.invalidator = render.NewInvalidator(0, func() {
		fyne.Do(ac.Refresh)
	})

	store.OnChange(ac.Invalidate)

	ac.ExtendBaseWidget(ac)
	return ac
}

// Shutdown cancels any pending coalesced redraw. Call on window close.
func (ac *AnnotationCanvas) Shutdown() {
	ac.invalidator.Stop()
}

// Container returns the scrollable container for embedding in layouts.
func (ac *AnnotationCanvas) Container() fyne.CanvasObject {
	return ac.scroll
}

// SetFrame sets the background video frame.
func (ac *AnnotationCanvas) SetFrame(img image.Image) {
	ac.frame = img
	ac.updateContentSize()
}

// SetOverlay sets the grid and label overlay flags.
func (ac *AnnotationCanvas) SetOverlay(showGrid, showLabels bool) {
	ac.showGrid = showGrid
	ac.showLabels = showLabels
	ac.Invalidate()
}

// Invalidate schedules a coalesced redraw.
func (ac *AnnotationCanvas) Invalidate() {
	ac.invalidator.Invalidate()
}

// Refresh redraws immediately.
func (ac *AnnotationCanvas) Refresh() {
	ac.raster.Refresh()
}

// SetZoom clamps and applies a zoom level.
func (ac *AnnotationCanvas) SetZoom(zoom float64) {
	if zoom < minZoom {
		zoom = minZoom
	}
	if zoom > maxZoom {
		zoom = maxZoom
	}
	ac.zoom = zoom
	ac.updateContentSize()

	if ac.onZoomChange != nil {
		ac.onZoomChange(zoom)
	}
}

// Zoom returns the current zoom level.
func (ac *AnnotationCanvas) Zoom() float64 { return ac.zoom }

// ZoomIn increases the zoom level by one step.
func (ac *AnnotationCanvas) ZoomIn() { ac.SetZoom(ac.zoom * zoomStep) }

// ZoomOut decreases the zoom level by one step.
func (ac *AnnotationCanvas) ZoomOut() { ac.SetZoom(ac.zoom / zoomStep) }

// FitToWindow adjusts zoom so the frame fills the visible area.
func (ac *AnnotationCanvas) FitToWindow() {
	if ac.frame == nil {
		return
	}
	bounds := ac.frame.Bounds()
	viewSize := ac.scroll.Size()
	if bounds.Dx() == 0 || bounds.Dy() == 0 || viewSize.Width <= 0 || viewSize.Height <= 0 {
		return
	}

	zoomX := float64(viewSize.Width) / float64(bounds.Dx())
	zoomY := float64(viewSize.Height) / float64(bounds.Dy())
	zoom := zoomX
	if zoomY < zoomX {
		zoom = zoomY
	}
	ac.SetZoom(zoom * 0.95)
}

// OnZoomChange sets a callback for zoom changes.
func (ac *AnnotationCanvas) OnZoomChange(callback func(zoom float64)) {
	ac.onZoomChange = callback
}

// OnCursor sets a callback reporting the pointer position in image
// coordinates, for the status bar.
func (ac *AnnotationCanvas) OnCursor(callback func(x, y float64)) {
	ac.onCursor = callback
}

// toImage converts a widget position to image coordinates.
func (ac *AnnotationCanvas) toImage(pos fyne.Position) geometry.Point2D {
	return geometry.Point2D{
		X: float64(pos.X) / ac.zoom,
		Y: float64(pos.Y) / ac.zoom,
	}
}

func (ac *AnnotationCanvas) updateContentSize() {
	if ac.frame == nil {
		ac.imgSize = fyne.NewSize(640, 480)
	} else {
		b := ac.frame.Bounds()
		ac.imgSize = fyne.NewSize(
			float32(float64(b.Dx())*ac.zoom),
			float32(float64(b.Dy())*ac.zoom),
		)
	}

	ac.raster.SetMinSize(ac.imgSize)
	ac.raster.Resize(ac.imgSize)
	if ac.content != nil {
		ac.content.Resize(ac.imgSize)
	}
	ac.Refresh()
	if ac.scroll != nil {
		ac.scroll.Refresh()
	}
}

// draw composes the frame, shapes and tool preview, then scales by zoom.
func (ac *AnnotationCanvas) draw(w, h int) image.Image {
	composed := render.Frame(ac.frame, ac.store.Shapes(), ac.machine, render.Options{
		ShowGrid:   ac.showGrid,
		ShowLabels: ac.showLabels,
	})

	if ac.zoom == 1.0 {
		return composed
	}

	out := image.NewRGBA(image.Rect(0, 0, w, h))
	src := composed.Bounds()
	for y := 0; y < h; y++ {
		sy := src.Min.Y + int(float64(y)/ac.zoom)
		if sy >= src.Max.Y {
			break
		}
		for x := 0; x < w; x++ {
			sx := src.Min.X + int(float64(x)/ac.zoom)
			if sx >= src.Max.X {
				break
			}
			out.SetRGBA(x, y, composed.RGBAAt(sx, sy))
		}
	}
	return out
}

// canvasContent wraps the raster and feeds pointer events to the machine.
type canvasContent struct {
	widget.BaseWidget
	canvas *AnnotationCanvas
	raster *fynecanvas.Raster

	shiftDown bool
}

var _ desktop.Mouseable = (*canvasContent)(nil)
var _ fyne.Draggable = (*canvasContent)(nil)
var _ desktop.Hoverable = (*canvasContent)(nil)

func newCanvasContent(ac *AnnotationCanvas, raster *fynecanvas.Raster) *canvasContent {
	cc := &canvasContent{canvas: ac, raster: raster}
	cc.ExtendBaseWidget(cc)
	return cc
}

func (cc *canvasContent) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(cc.raster)
}

func (cc *canvasContent) MinSize() fyne.Size {
	return cc.raster.MinSize()
}

func (cc *canvasContent) MouseDown(ev *desktop.MouseEvent) {
	if ev.Button != desktop.MouseButtonPrimary {
		return
	}
	cc.shiftDown = ev.Modifier&fyne.KeyModifierShift != 0
	p := cc.canvas.toImage(ev.Position)
	cc.canvas.machine.PointerDown(p, tools.Modifiers{Shift: cc.shiftDown})
	cc.canvas.Invalidate()
}

func (cc *canvasContent) MouseUp(ev *desktop.MouseEvent) {
	if ev.Button != desktop.MouseButtonPrimary {
		return
	}
	p := cc.canvas.toImage(ev.Position)
	cc.canvas.machine.PointerUp(p, tools.Modifiers{Shift: cc.shiftDown})
	cc.canvas.Invalidate()
}

func (cc *canvasContent) Dragged(ev *fyne.DragEvent) {
	p := cc.canvas.toImage(ev.Position)
	cc.canvas.machine.PointerMove(p)
	cc.canvas.Invalidate()
}

func (cc *canvasContent) DragEnd() {}

func (cc *canvasContent) MouseIn(*desktop.MouseEvent) {}

func (cc *canvasContent) MouseMoved(ev *desktop.MouseEvent) {
	p := cc.canvas.toImage(ev.Position)
	cc.canvas.machine.PointerMove(p)
	if cc.canvas.onCursor != nil {
		cc.canvas.onCursor(p.X, p.Y)
	}
	if cc.canvas.machine.IsDrawing() {
		cc.canvas.Invalidate()
	}
}

func (cc *canvasContent) MouseOut() {}

// zoomScroll wraps a scroll container but routes the wheel to zoom.
type zoomScroll struct {
	widget.BaseWidget
	scroll *container.Scroll
	canvas *AnnotationCanvas
}

func newZoomScroll(content fyne.CanvasObject, canvas *AnnotationCanvas) *zoomScroll {
	scroll := container.NewScroll(content)
	scroll.Direction = container.ScrollBoth
	zs := &zoomScroll{scroll: scroll, canvas: canvas}
	zs.ExtendBaseWidget(zs)
	return zs
}

func (zs *zoomScroll) Scrolled(ev *fyne.ScrollEvent) {
	if ev.Scrolled.DY > 0 {
		zs.canvas.ZoomIn()
	} else if ev.Scrolled.DY < 0 {
		zs.canvas.ZoomOut()
	}
}

func (zs *zoomScroll) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(zs.scroll)
}

func (zs *zoomScroll) Size() fyne.Size {
	return zs.scroll.Size()
}

func (zs *zoomScroll) Resize(size fyne.Size) {
	zs.scroll.Resize(size)
	zs.BaseWidget.Resize(size)
}

func (zs *zoomScroll) Refresh() {
	zs.scroll.Refresh()
	zs.BaseWidget.Refresh()
}

// CreateRenderer implements fyne.Widget.
func (ac *AnnotationCanvas) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(ac.scroll)
}

// Snapshot renders the current view into a standalone image, used for
// report thumbnails.
func (ac *AnnotationCanvas) Snapshot() *image.RGBA {
	composed := render.Frame(ac.frame, ac.store.Shapes(), ac.machine, render.Options{
		ShowGrid:   ac.showGrid,
		ShowLabels: ac.showLabels,
	})
	out := image.NewRGBA(composed.Bounds())
	draw.Draw(out, out.Bounds(), composed, composed.Bounds().Min, draw.Src)
	return out
}
