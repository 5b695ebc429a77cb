package shape

import (
	"testing"

	"github.com/stretchr/testify/require"

	"vru-annotate/pkg/geometry"
)

func TestNewAssignsUniqueIDs(t *testing.T) {
	a := NewPoint(geometry.Point2D{X: 1, Y: 1})
	b := NewPoint(geometry.Point2D{X: 1, Y: 1})

	require.NotEmpty(t, a.ID)
	require.NotEmpty(t, b.ID)
	require.NotEqual(t, a.ID, b.ID)
	require.True(t, a.Visible)
}

func TestNewRectangleNormalizes(t *testing.T) {
	sh := NewRectangle(geometry.Rect{X: 10, Y: 10, Width: -4, Height: -6})
	require.Equal(t, geometry.Rect{X: 6, Y: 4, Width: 4, Height: 6}, sh.BoundingBox)
	require.Len(t, sh.Points, 4)
}

func TestCloneIsDeep(t *testing.T) {
	orig := New(TypePolygon, []geometry.Point2D{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 5, Y: 10}})
	dup := orig.Clone()

	require.Equal(t, orig.ID, dup.ID)
	dup.Points[0].X = 99
	require.Equal(t, 0.0, orig.Points[0].X)
}

func TestTranslateUpdatesBounds(t *testing.T) {
	sh := NewRectangle(geometry.Rect{X: 0, Y: 0, Width: 10, Height: 10})
	sh.Translate(geometry.Point2D{X: 5, Y: -3})

	require.Equal(t, geometry.Rect{X: 5, Y: -3, Width: 10, Height: 10}, sh.BoundingBox)
}

func TestSetPointsRecomputesBounds(t *testing.T) {
	sh := NewPoint(geometry.Point2D{X: 1, Y: 1})
	sh.SetPoints([]geometry.Point2D{{X: 10, Y: 20}})
	require.Equal(t, geometry.Rect{X: 10, Y: 20}, sh.BoundingBox)
}

func TestHitTest(t *testing.T) {
	rect := NewRectangle(geometry.Rect{X: 0, Y: 0, Width: 10, Height: 10})
	require.True(t, rect.HitTest(5, 5))
	require.False(t, rect.HitTest(15, 5))

	pt := NewPoint(geometry.Point2D{X: 50, Y: 50})
	require.True(t, pt.HitTest(53, 50))
	require.False(t, pt.HitTest(60, 50))

	poly := New(TypePolygon, []geometry.Point2D{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 5, Y: 10}})
	require.True(t, poly.HitTest(5, 3))
	require.False(t, poly.HitTest(0, 10))

	brush := New(TypeBrush, []geometry.Point2D{{X: 0, Y: 0}, {X: 10, Y: 0}})
	require.True(t, brush.HitTest(5, 2))
	require.False(t, brush.HitTest(5, 10))
}

func TestHitTestHiddenShape(t *testing.T) {
	sh := NewRectangle(geometry.Rect{X: 0, Y: 0, Width: 10, Height: 10})
	sh.Visible = false
	require.False(t, sh.HitTest(5, 5))
}

func TestValid(t *testing.T) {
	require.True(t, NewPoint(geometry.Point2D{X: 1, Y: 1}).Valid())
	require.False(t, New(TypePolygon, []geometry.Point2D{{X: 0, Y: 0}}).Valid())
	require.False(t, (&Shape{Type: Type("blob"), Points: []geometry.Point2D{{X: 1, Y: 1}}}).Valid())
}

func TestLabelColor(t *testing.T) {
	for _, label := range VRULabels {
		c := LabelColor(label)
		require.NotEqual(t, UnlabeledColor, c, "label %q should have its own color", label)
	}
	require.Equal(t, UnlabeledColor, LabelColor(""))

	// Custom labels get a stable non-default color.
	custom := LabelColor("deer")
	require.Equal(t, custom, LabelColor("deer"))
}
