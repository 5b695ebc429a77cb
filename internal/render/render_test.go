package render

import (
	"image"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"vru-annotate/internal/shape"
	"vru-annotate/pkg/geometry"
)

func TestFrameWithoutBackground(t *testing.T) {
	out := Frame(nil, nil, nil, Options{})
	require.NotNil(t, out)
	require.Equal(t, image.Rect(0, 0, 640, 480), out.Bounds())
}

func TestFrameDrawsShapePixels(t *testing.T) {
	sh := shape.NewRectangle(geometry.Rect{X: 10, Y: 10, Width: 50, Height: 50})

	out := Frame(nil, []*shape.Shape{sh}, nil, Options{})

	// The stroke color lands on the rectangle's top edge.
	got := out.RGBAAt(30, 10)
	require.Equal(t, sh.Style.StrokeColor, got)
}

func TestFrameSkipsHiddenAndMalformed(t *testing.T) {
	hidden := shape.NewRectangle(geometry.Rect{X: 10, Y: 10, Width: 50, Height: 50})
	hidden.Visible = false
	malformed := &shape.Shape{Type: shape.TypePolygon, Visible: true,
		Points: []geometry.Point2D{{X: 1, Y: 1}}}

	out := Frame(nil, []*shape.Shape{hidden, malformed, nil}, nil, Options{})

	background := out.RGBAAt(30, 10)
	require.EqualValues(t, 32, background.R)
}

func TestFrameGridOverlay(t *testing.T) {
	plain := Frame(nil, nil, nil, Options{})
	gridded := Frame(nil, nil, nil, Options{ShowGrid: true})

	// Grid lines sit on spacing multiples; pixel at the origin changes.
	require.NotEqual(t, plain.RGBAAt(0, 25), gridded.RGBAAt(0, 25))
}

func TestFrameUsesBackground(t *testing.T) {
	bg := image.NewRGBA(image.Rect(0, 0, 100, 80))
	out := Frame(bg, nil, nil, Options{})
	require.Equal(t, bg.Bounds(), out.Bounds())
}

func TestInvalidatorCoalesces(t *testing.T) {
	var fires int32
	inv := NewInvalidator(20*time.Millisecond, func() {
		atomic.AddInt32(&fires, 1)
	})

	for i := 0; i < 10; i++ {
		inv.Invalidate()
	}
	time.Sleep(60 * time.Millisecond)
	require.EqualValues(t, 1, atomic.LoadInt32(&fires))

	// A new burst fires again.
	inv.Invalidate()
	time.Sleep(60 * time.Millisecond)
	require.EqualValues(t, 2, atomic.LoadInt32(&fires))
}

func TestInvalidatorStop(t *testing.T) {
	var fires int32
	inv := NewInvalidator(20*time.Millisecond, func() {
		atomic.AddInt32(&fires, 1)
	})

	inv.Invalidate()
	inv.Stop()
	time.Sleep(60 * time.Millisecond)
	require.EqualValues(t, 0, atomic.LoadInt32(&fires))
}
