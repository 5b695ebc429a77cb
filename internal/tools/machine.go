// Package tools implements the drawing tool state machine. It translates raw
// pointer events (in image coordinates) into shape store mutations, keeping
// in-progress geometry as preview state until a gesture commits. Interactive
// drags commit exactly one history entry on release.
package tools

import (
	"vru-annotate/internal/annotation"
	"vru-annotate/internal/shape"
	"vru-annotate/pkg/geometry"
)

// Tool identifies the active input-interpretation mode.
type Tool int

const (
	ToolSelect Tool = iota
	ToolRectangle
	ToolPolygon
	ToolPoint
	ToolBrush
)

func (t Tool) String() string {
	switch t {
	case ToolSelect:
		return "select"
	case ToolRectangle:
		return "rectangle"
	case ToolPolygon:
		return "polygon"
	case ToolPoint:
		return "point"
	case ToolBrush:
		return "brush"
	default:
		return "unknown"
	}
}

// Modifiers carries the keyboard modifier state of a pointer event.
type Modifiers struct {
	Shift bool
}

const (
	// MinRectSize is the minimum committed rectangle edge in pixels;
	// degenerate drags below it produce no shape.
	MinRectSize = 3.0

	// PolygonCloseTolerance is the click radius around the first vertex
	// that closes an in-progress polygon.
	PolygonCloseTolerance = 10.0

	// BrushSampleDistance throttles brush sampling: pointer moves closer
	// than this to the previous sample are dropped to bound point count.
	BrushSampleDistance = 2.0

	// HandleHitRadius is the pick radius for rectangle resize handles.
	HandleHitRadius = 6.0

	// clickSlop is the drag distance below which a gesture counts as a
	// plain click.
	clickSlop = 2.0
)

type dragKind int

const (
	dragNone dragKind = iota
	dragDraw
	dragRubberBand
	dragMove
	dragResize
)

// Machine is the tool state machine. All methods must be called from the UI
// event goroutine; the machine owns no locks of its own.
type Machine struct {
	store *annotation.Store

	active  Tool
	drawing bool

	anchor geometry.Point2D
	cursor geometry.Point2D
	points []geometry.Point2D // in-progress polygon vertices or brush samples

	drag       dragKind
	dragStart  geometry.Point2D
	dragDelta  geometry.Point2D
	moveIDs    []string
	resizeID   string
	resizeOpp  geometry.Point2D // fixed corner opposite the dragged handle
	resizeRect geometry.Rect
}

// NewMachine creates a machine bound to a store, starting on the select tool.
func NewMachine(store *annotation.Store) *Machine {
	return &Machine{store: store, active: ToolSelect}
}

// ActiveTool returns the current tool.
func (m *Machine) ActiveTool() Tool { return m.active }

// IsDrawing reports whether a shape is mid-construction.
func (m *Machine) IsDrawing() bool { return m.drawing }

// SetActiveTool switches tools. Switching cancels any unfinished draw; the
// in-progress shape is discarded, not committed.
func (m *Machine) SetActiveTool(t Tool) {
	if m.drawing || m.drag != dragNone {
		m.reset()
	}
	m.active = t
}

// CancelDraw discards any in-progress draw or drag without committing.
func (m *Machine) CancelDraw() {
	m.reset()
}

// PointerDown begins or advances a gesture at p.
func (m *Machine) PointerDown(p geometry.Point2D, mods Modifiers) {
	m.cursor = p

	switch m.active {
	case ToolRectangle:
		m.drawing = true
		m.drag = dragDraw
		m.anchor = p

	case ToolBrush:
		m.drawing = true
		m.drag = dragDraw
		m.points = append(m.points[:0], p)

	case ToolPoint:
		// Single click commits immediately; no multi-step state.
		_ = m.store.AddShape(shape.NewPoint(p))

	case ToolPolygon:
		m.polygonClick(p)

	case ToolSelect:
		m.selectDown(p, mods)
	}
}

// PointerMove updates the active gesture.
func (m *Machine) PointerMove(p geometry.Point2D) {
	m.cursor = p

	switch m.drag {
	case dragDraw:
		if m.active == ToolBrush {
			last := m.points[len(m.points)-1]
			if p.Distance(last) >= BrushSampleDistance {
				m.points = append(m.points, p)
			}
		}
	case dragMove:
		m.dragDelta = p.Sub(m.dragStart)
	case dragResize:
		m.resizeRect = geometry.RectFromPoints(m.resizeOpp, p)
	}
}

// PointerUp completes the active gesture, committing at most one store
// mutation.
func (m *Machine) PointerUp(p geometry.Point2D, mods Modifiers) {
	m.cursor = p

	switch m.drag {
	case dragDraw:
		switch m.active {
		case ToolRectangle:
			r := geometry.RectFromPoints(m.anchor, p)
			if r.Width >= MinRectSize && r.Height >= MinRectSize {
				_ = m.store.AddShape(shape.NewRectangle(r))
			}
		case ToolBrush:
			if len(m.points) >= 2 {
				_ = m.store.AddShape(shape.New(shape.TypeBrush, m.points))
			}
		}
		m.reset()

	case dragMove:
		delta := p.Sub(m.dragStart)
		if len(m.moveIDs) > 0 && (absF(delta.X) > 0 || absF(delta.Y) > 0) {
			m.store.MoveShapes(m.moveIDs, delta)
		}
		m.drag = dragNone
		m.moveIDs = nil
		m.dragDelta = geometry.Point2D{}

	case dragResize:
		r := m.resizeRect.Normalized()
		if r.Width >= MinRectSize && r.Height >= MinRectSize {
			c := r.Corners()
			_ = m.store.UpdateShape(m.resizeID, annotation.Patch{Points: c[:]})
		}
		m.drag = dragNone
		m.resizeID = ""

	case dragRubberBand:
		band := geometry.RectFromPoints(m.anchor, p)
		if band.Width < clickSlop && band.Height < clickSlop {
			// Plain click on empty canvas.
			if !mods.Shift {
				m.store.ClearSelection()
			}
		} else {
			var ids []string
			for _, sh := range m.store.ShapesInRect(band) {
				ids = append(ids, sh.ID)
			}
			m.store.SelectShapes(ids, mods.Shift)
		}
		m.drag = dragNone
	}
}

// polygonClick appends a vertex or, when clicking within tolerance of the
// first vertex with at least three vertices down, closes and commits the
// polygon. The closing click does not add a vertex.
func (m *Machine) polygonClick(p geometry.Point2D) {
	if !m.drawing {
		m.drawing = true
		m.points = append(m.points[:0], p)
		return
	}
	if len(m.points) >= 3 && p.Distance(m.points[0]) <= PolygonCloseTolerance {
		_ = m.store.AddShape(shape.New(shape.TypePolygon, m.points))
		m.reset()
		return
	}
	m.points = append(m.points, p)
}

// selectDown resolves a pointer-down under the select tool: resize handle,
// shape hit (move/select) or empty canvas (rubber band).
func (m *Machine) selectDown(p geometry.Point2D, mods Modifiers) {
	if id, opp, ok := m.handleAt(p); ok {
		m.drag = dragResize
		m.resizeID = id
		m.resizeOpp = opp
		m.resizeRect = geometry.RectFromPoints(opp, p)
		return
	}

	hit := m.store.HitTest(p.X, p.Y)
	if hit == nil {
		m.drag = dragRubberBand
		m.anchor = p
		return
	}

	if mods.Shift {
		m.store.SelectShapes([]string{hit.ID}, true)
	} else if !m.store.IsSelected(hit.ID) {
		m.store.SelectShapes([]string{hit.ID}, false)
	}

	// Drag moves the whole selection; locked shapes stay put.
	var ids []string
	for _, sh := range m.store.SelectedShapes() {
		if !sh.Locked {
			ids = append(ids, sh.ID)
		}
	}
	if len(ids) > 0 {
		m.drag = dragMove
		m.moveIDs = ids
		m.dragStart = p
		m.dragDelta = geometry.Point2D{}
	}
}

// handleAt returns the shape ID and the opposite (fixed) corner when p hits
// a resize handle. Handles exist only for a single selected, unlocked
// rectangle.
func (m *Machine) handleAt(p geometry.Point2D) (string, geometry.Point2D, bool) {
	selected := m.store.SelectedShapes()
	if len(selected) != 1 {
		return "", geometry.Point2D{}, false
	}
	sh := selected[0]
	if sh.Type != shape.TypeRectangle || sh.Locked || !sh.Visible {
		return "", geometry.Point2D{}, false
	}

	corners := sh.BoundingBox.Corners()
	for i, c := range corners {
		if p.Distance(c) <= HandleHitRadius {
			opp := corners[(i+2)%4]
			return sh.ID, opp, true
		}
	}
	return "", geometry.Point2D{}, false
}

// reset discards all in-progress gesture state.
func (m *Machine) reset() {
	m.drawing = false
	m.drag = dragNone
	m.points = m.points[:0]
	m.moveIDs = nil
	m.resizeID = ""
	m.dragDelta = geometry.Point2D{}
}

// Preview state, consumed by the renderer once per frame.

// PreviewShape returns the in-progress draw geometry, or nil. The returned
// shape is not in the store and has no ID.
func (m *Machine) PreviewShape() *shape.Shape {
	if !m.drawing {
		return nil
	}
	switch m.active {
	case ToolRectangle:
		r := geometry.RectFromPoints(m.anchor, m.cursor)
		c := r.Corners()
		return previewShape(shape.TypeRectangle, c[:])
	case ToolPolygon:
		pts := append(append([]geometry.Point2D{}, m.points...), m.cursor)
		return previewShape(shape.TypePolygon, pts)
	case ToolBrush:
		return previewShape(shape.TypeBrush, m.points)
	}
	return nil
}

// RubberBand returns the active rubber-band rectangle, if any.
func (m *Machine) RubberBand() (geometry.Rect, bool) {
	if m.drag != dragRubberBand {
		return geometry.Rect{}, false
	}
	return geometry.RectFromPoints(m.anchor, m.cursor), true
}

// DragDelta returns the live translation of a move drag and the IDs being
// moved. The store is only mutated when the drag is released.
func (m *Machine) DragDelta() (geometry.Point2D, []string) {
	if m.drag != dragMove {
		return geometry.Point2D{}, nil
	}
	return m.dragDelta, m.moveIDs
}

// ResizePreview returns the live rectangle of a resize drag.
func (m *Machine) ResizePreview() (string, geometry.Rect, bool) {
	if m.drag != dragResize {
		return "", geometry.Rect{}, false
	}
	return m.resizeID, m.resizeRect.Normalized(), true
}

func previewShape(t shape.Type, pts []geometry.Point2D) *shape.Shape {
	sh := &shape.Shape{Type: t, Visible: true, Style: shape.DefaultStyle()}
	sh.SetPoints(pts)
	return sh
}

func absF(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
