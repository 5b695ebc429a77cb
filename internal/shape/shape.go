// Package shape defines the annotated shape model: a closed tagged union over
// rectangle, polygon, point and brush-stroke geometry with per-shape style and
// VRU label metadata.
package shape

import (
	"image/color"

	"vru-annotate/pkg/geometry"

	"github.com/google/uuid"
)

// Type identifies the geometry kind of a shape. The set is closed; every
// geometry operation switches over it.
type Type string

const (
	TypeRectangle Type = "rectangle"
	TypePolygon   Type = "polygon"
	TypePoint     Type = "point"
	TypeBrush     Type = "brush"
)

// Valid reports whether t is one of the known shape types.
func (t Type) Valid() bool {
	switch t {
	case TypeRectangle, TypePolygon, TypePoint, TypeBrush:
		return true
	}
	return false
}

const (
	// pointHitRadius is the hit-test radius in pixels for point shapes.
	pointHitRadius = 6.0
	// brushHitSlack is added to half the stroke width for brush hit tests.
	brushHitSlack = 3.0
)

// Style holds the presentational attributes of a shape, independent of its
// geometry.
type Style struct {
	StrokeColor color.RGBA `json:"stroke_color"`
	FillColor   color.RGBA `json:"fill_color"`
	StrokeWidth float64    `json:"stroke_width"`
	FillOpacity float64    `json:"fill_opacity"`
}

// DefaultStyle returns the style applied to newly drawn shapes.
func DefaultStyle() Style {
	return Style{
		StrokeColor: color.RGBA{R: 0, G: 255, B: 0, A: 255},
		FillColor:   color.RGBA{R: 0, G: 255, B: 0, A: 255},
		StrokeWidth: 2,
		FillOpacity: 0.15,
	}
}

// Shape is a single annotated region on a video frame.
//
// BoundingBox is derived from Points and recomputed by every points-mutating
// operation; it is never stale. Selected mirrors membership in the store's
// selection set and is excluded from persistence.
type Shape struct {
	ID          string             `json:"id"`
	Type        Type               `json:"type"`
	Points      []geometry.Point2D `json:"points"`
	BoundingBox geometry.Rect      `json:"bounding_box"`
	Style       Style              `json:"style"`
	Visible     bool               `json:"visible"`
	Locked      bool               `json:"locked,omitempty"`
	Label       string             `json:"label,omitempty"`
	Selected    bool               `json:"-"`
}

// New creates a shape of the given type with a fresh unique ID.
func New(t Type, points []geometry.Point2D) *Shape {
	s := &Shape{
		ID:      uuid.NewString(),
		Type:    t,
		Points:  clonePoints(points),
		Style:   DefaultStyle(),
		Visible: true,
	}
	s.RecomputeBounds()
	return s
}

// NewRectangle creates a rectangle shape from an axis-aligned rect.
func NewRectangle(r geometry.Rect) *Shape {
	r = r.Normalized()
	c := r.Corners()
	return New(TypeRectangle, c[:])
}

// NewPoint creates a point shape at the given location.
func NewPoint(p geometry.Point2D) *Shape {
	return New(TypePoint, []geometry.Point2D{p})
}

// Clone returns a deep copy of the shape, including its points.
// The copy keeps the same ID; callers minting new shapes assign a fresh one.
func (s *Shape) Clone() *Shape {
	dup := *s
	dup.Points = clonePoints(s.Points)
	return &dup
}

// SetPoints replaces the shape geometry and recomputes the bounding box.
func (s *Shape) SetPoints(points []geometry.Point2D) {
	s.Points = clonePoints(points)
	s.RecomputeBounds()
}

// Translate shifts every point by delta and recomputes the bounding box.
func (s *Shape) Translate(delta geometry.Point2D) {
	for i := range s.Points {
		s.Points[i] = s.Points[i].Add(delta)
	}
	s.RecomputeBounds()
}

// RecomputeBounds refreshes BoundingBox from Points. Malformed geometry
// (no points, non-finite coordinates) degrades to the empty rect.
func (s *Shape) RecomputeBounds() {
	s.BoundingBox = geometry.BoundingBox(s.Points)
}

// Valid reports whether the shape has a known type and enough points to
// render: one for a point, two for a brush stroke or rectangle span, three
// for a polygon.
func (s *Shape) Valid() bool {
	if !s.Type.Valid() {
		return false
	}
	for _, p := range s.Points {
		if !p.IsFinite() {
			return false
		}
	}
	switch s.Type {
	case TypePoint:
		return len(s.Points) == 1
	case TypePolygon:
		return len(s.Points) >= 3
	default:
		return len(s.Points) >= 2
	}
}

// HitTest reports whether the point (x, y) hits this shape. Hidden shapes
// are never hit. Dispatch is by shape type: bounding box for rectangles,
// point-in-polygon for polygons, proximity for points and brush strokes.
func (s *Shape) HitTest(x, y float64) bool {
	if !s.Visible || len(s.Points) == 0 {
		return false
	}
	p := geometry.Point2D{X: x, Y: y}

	switch s.Type {
	case TypeRectangle:
		return s.BoundingBox.Contains(p)
	case TypePoint:
		return p.Distance(s.Points[0]) <= pointHitRadius
	case TypePolygon:
		if len(s.Points) >= 3 {
			return geometry.PointInPolygon(p, s.Points)
		}
		return s.BoundingBox.Contains(p)
	case TypeBrush:
		tolerance := s.Style.StrokeWidth/2 + brushHitSlack
		return geometry.PolylineHit(p, s.Points, tolerance)
	default:
		return false
	}
}

func clonePoints(points []geometry.Point2D) []geometry.Point2D {
	if points == nil {
		return nil
	}
	dup := make([]geometry.Point2D, len(points))
	copy(dup, points)
	return dup
}
