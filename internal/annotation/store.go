// Package annotation provides the in-memory annotation state for the current
// video frame: the authoritative shape store with selection tracking, bounded
// undo/redo history and the copy/paste clipboard.
package annotation

import (
	"fmt"
	"sync"

	"vru-annotate/internal/shape"
	"vru-annotate/pkg/geometry"

	"github.com/google/uuid"
)

// Patch describes a partial update applied by UpdateShape. Nil fields are
// left untouched; a non-nil Points slice replaces the geometry and triggers
// a bounding-box recompute.
type Patch struct {
	Points  []geometry.Point2D
	Style   *shape.Style
	Label   *string
	Visible *bool
	Locked  *bool
}

// Store is the authoritative in-memory collection of shapes for the current
// frame, keyed by ID with stable insertion order. Every mutating operation
// is atomic (fully applied or fully rejected), keeps the selection set
// consistent with the stored shapes, and records one history entry.
type Store struct {
	mu sync.RWMutex

	shapes   map[string]*shape.Shape
	order    []string
	selected map[string]bool
	history  *history

	listeners []func()
}

// NewStore creates an empty store with the default history capacity.
func NewStore() *Store {
	return NewStoreWithCapacity(DefaultHistoryCapacity)
}

// NewStoreWithCapacity creates an empty store with a custom undo depth.
func NewStoreWithCapacity(historyCapacity int) *Store {
	return &Store{
		shapes:   make(map[string]*shape.Shape),
		order:    make([]string, 0),
		selected: make(map[string]bool),
		history:  newHistory(historyCapacity),
	}
}

// OnChange registers a callback invoked after every successful mutation,
// including undo and redo. Callbacks run outside the store lock.
func (s *Store) OnChange(fn func()) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

func (s *Store) notify() {
	s.mu.RLock()
	listeners := s.listeners
	s.mu.RUnlock()
	for _, fn := range listeners {
		fn()
	}
}

// AddShape inserts a new shape. The shape becomes the sole selection so it
// can be manipulated immediately. Fails with ErrDuplicateID if the ID is
// already present.
func (s *Store) AddShape(sh *shape.Shape) error {
	if sh == nil {
		return nil
	}
	return s.AddShapes([]*shape.Shape{sh})
}

// AddShapes inserts a batch of shapes as one undoable action; the batch
// becomes the new selection. Rejected entirely if any ID already exists.
func (s *Store) AddShapes(shapes []*shape.Shape) error {
	if len(shapes) == 0 {
		return nil
	}

	s.mu.Lock()
	seen := make(map[string]bool, len(shapes))
	for _, sh := range shapes {
		if sh.ID == "" {
			sh.ID = uuid.NewString()
		}
		if _, exists := s.shapes[sh.ID]; exists || seen[sh.ID] {
			s.mu.Unlock()
			return fmt.Errorf("add shape %q: %w", sh.ID, ErrDuplicateID)
		}
		seen[sh.ID] = true
	}

	e := &entry{selBefore: s.selectedIDsLocked()}
	for _, sh := range shapes {
		sh.RecomputeBounds()
		s.shapes[sh.ID] = sh
		s.order = append(s.order, sh.ID)
		e.added = append(e.added, sh.Clone())
	}

	s.setSelectionLocked(idsOf(shapes))
	e.selAfter = s.selectedIDsLocked()
	s.history.push(e)
	s.mu.Unlock()

	s.notify()
	return nil
}

// UpdateShape merges the patch into the shape with the given ID, recomputing
// the bounding box when the geometry changes. Fails with ErrNotFound if the
// ID is absent.
func (s *Store) UpdateShape(id string, patch Patch) error {
	s.mu.Lock()
	sh, ok := s.shapes[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("update shape %q: %w", id, ErrNotFound)
	}

	e := &entry{
		before:    []*shape.Shape{sh.Clone()},
		selBefore: s.selectedIDsLocked(),
	}

	if patch.Points != nil {
		sh.SetPoints(patch.Points)
	}
	if patch.Style != nil {
		sh.Style = *patch.Style
	}
	if patch.Label != nil {
		sh.Label = *patch.Label
	}
	if patch.Visible != nil {
		sh.Visible = *patch.Visible
	}
	if patch.Locked != nil {
		sh.Locked = *patch.Locked
	}

	e.after = []*shape.Shape{sh.Clone()}
	e.selAfter = e.selBefore
	s.history.push(e)
	s.mu.Unlock()

	s.notify()
	return nil
}

// DeleteShapes removes every shape whose ID is in ids. IDs not present are
// silently ignored, making deletion idempotent. The whole batch is one
// history entry and the selection is purged in the same operation.
func (s *Store) DeleteShapes(ids []string) {
	s.mu.Lock()
	e := &entry{selBefore: s.selectedIDsLocked()}

	for _, id := range ids {
		sh, ok := s.shapes[id]
		if !ok {
			continue
		}
		idx := s.orderIndexLocked(id)
		e.removed = append(e.removed, sh.Clone())
		e.removedIdx = append(e.removedIdx, idx)
		delete(s.shapes, id)
		s.order = append(s.order[:idx], s.order[idx+1:]...)
		delete(s.selected, id)
	}

	if len(e.removed) == 0 {
		s.mu.Unlock()
		return
	}

	e.selAfter = s.selectedIDsLocked()
	s.history.push(e)
	s.mu.Unlock()

	s.notify()
}

// MoveShapes translates every point of every referenced shape by delta.
// One history entry covers the whole batch so a bulk move undoes atomically.
func (s *Store) MoveShapes(ids []string, delta geometry.Point2D) {
	s.mu.Lock()
	e := &entry{selBefore: s.selectedIDsLocked()}

	for _, id := range ids {
		sh, ok := s.shapes[id]
		if !ok {
			continue
		}
		e.before = append(e.before, sh.Clone())
		sh.Translate(delta)
		e.after = append(e.after, sh.Clone())
	}

	if len(e.before) == 0 {
		s.mu.Unlock()
		return
	}

	e.selAfter = e.selBefore
	s.history.push(e)
	s.mu.Unlock()

	s.notify()
}

// SetShapes replaces the entire store contents, e.g. when hydrating a frame
// from persisted ground truth. A full replace is a fresh session: selection
// and history are cleared, not recorded as an undoable delta.
func (s *Store) SetShapes(shapes []*shape.Shape) {
	s.mu.Lock()
	s.shapes = make(map[string]*shape.Shape, len(shapes))
	s.order = s.order[:0]
	s.selected = make(map[string]bool)
	s.history.clear()

	for _, sh := range shapes {
		if sh == nil {
			continue
		}
		if sh.ID == "" {
			sh.ID = uuid.NewString()
		}
		if _, exists := s.shapes[sh.ID]; exists {
			continue // first occurrence wins; IDs stay unique
		}
		sh.RecomputeBounds()
		sh.Selected = false
		s.shapes[sh.ID] = sh
		s.order = append(s.order, sh.ID)
	}
	s.mu.Unlock()

	s.notify()
}

// ClearAll empties the store. Equivalent to SetShapes(nil).
func (s *Store) ClearAll() {
	s.SetShapes(nil)
}

// GetShapeByID returns the shape with the given ID, or nil.
func (s *Store) GetShapeByID(id string) *shape.Shape {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.shapes[id]
}

// Shapes returns all shapes in insertion order.
func (s *Store) Shapes() []*shape.Shape {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*shape.Shape, 0, len(s.order))
	for _, id := range s.order {
		result = append(result, s.shapes[id])
	}
	return result
}

// Len returns the number of shapes in the store.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// SelectedShapes returns the selected shapes in insertion order.
func (s *Store) SelectedShapes() []*shape.Shape {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []*shape.Shape
	for _, id := range s.order {
		if s.selected[id] {
			result = append(result, s.shapes[id])
		}
	}
	return result
}

// SelectedIDs returns the selected shape IDs in insertion order.
func (s *Store) SelectedIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []string
	for _, id := range s.order {
		if s.selected[id] {
			result = append(result, id)
		}
	}
	return result
}

// IsSelected reports whether the shape with the given ID is selected.
func (s *Store) IsSelected(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected[id]
}

// BoundingBoxForShapes returns the minimal enclosing box across the
// referenced shapes' boxes, or the empty rect if none match. Zero-area
// boxes (point shapes, axis-aligned brush strokes) still contribute their
// position.
func (s *Store) BoundingBoxForShapes(ids []string) geometry.Rect {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var box geometry.Rect
	first := true
	for _, id := range ids {
		sh, ok := s.shapes[id]
		if !ok {
			continue
		}
		if first {
			box = sh.BoundingBox
			first = false
			continue
		}
		box = box.Expand(sh.BoundingBox)
	}
	return box
}

// SelectShapes sets the selection. With additive false the selection is
// replaced; with additive true the ids union with the current set. IDs not
// present in the store are filtered out, never an error, so the selection
// set always references existing shapes. Selection changes are undoable.
func (s *Store) SelectShapes(ids []string, additive bool) {
	s.mu.Lock()
	e := &entry{selBefore: s.selectedIDsLocked()}

	next := make(map[string]bool)
	if additive {
		for id := range s.selected {
			next[id] = true
		}
	}
	for _, id := range ids {
		if _, ok := s.shapes[id]; ok {
			next[id] = true
		}
	}

	nextIDs := make([]string, 0, len(next))
	for id := range next {
		nextIDs = append(nextIDs, id)
	}
	s.setSelectionLocked(nextIDs)

	e.selAfter = s.selectedIDsLocked()
	s.history.push(e)
	s.mu.Unlock()

	s.notify()
}

// ClearSelection empties the selection set. No-op if already empty.
func (s *Store) ClearSelection() {
	s.SelectShapes(nil, false)
}

// SelectAllVisible selects every visible shape.
func (s *Store) SelectAllVisible() {
	s.mu.RLock()
	var ids []string
	for _, id := range s.order {
		if s.shapes[id].Visible {
			ids = append(ids, id)
		}
	}
	s.mu.RUnlock()
	s.SelectShapes(ids, false)
}

// HitTest returns the topmost visible shape at (x, y), or nil. Later
// insertions draw on top, so the order list is walked back to front.
func (s *Store) HitTest(x, y float64) *shape.Shape {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := len(s.order) - 1; i >= 0; i-- {
		sh := s.shapes[s.order[i]]
		if sh.HitTest(x, y) {
			return sh
		}
	}
	return nil
}

// ShapesInRect returns the visible shapes whose bounding boxes intersect r,
// in insertion order. Used for rubber-band selection.
func (s *Store) ShapesInRect(r geometry.Rect) []*shape.Shape {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []*shape.Shape
	for _, id := range s.order {
		sh := s.shapes[id]
		if sh.Visible && sh.BoundingBox.Intersects(r) {
			result = append(result, sh)
		}
	}
	return result
}

// SetLabel assigns a classification label to every referenced shape as one
// undoable action. Unknown IDs are ignored.
func (s *Store) SetLabel(ids []string, label string) {
	s.applyBulk(ids, func(sh *shape.Shape) {
		sh.Label = label
		sh.Style.StrokeColor = shape.LabelColor(label)
		sh.Style.FillColor = shape.LabelColor(label)
	})
}

// ToggleVisibility flips the visible flag of every referenced shape.
func (s *Store) ToggleVisibility(ids []string) {
	s.applyBulk(ids, func(sh *shape.Shape) {
		sh.Visible = !sh.Visible
	})
}

// ToggleLock flips the locked flag of every referenced shape.
func (s *Store) ToggleLock(ids []string) {
	s.applyBulk(ids, func(sh *shape.Shape) {
		sh.Locked = !sh.Locked
	})
}

// applyBulk mutates the referenced shapes through fn under one history entry.
func (s *Store) applyBulk(ids []string, fn func(*shape.Shape)) {
	s.mu.Lock()
	e := &entry{selBefore: s.selectedIDsLocked()}

	for _, id := range ids {
		sh, ok := s.shapes[id]
		if !ok {
			continue
		}
		e.before = append(e.before, sh.Clone())
		fn(sh)
		sh.RecomputeBounds()
		e.after = append(e.after, sh.Clone())
	}

	if len(e.before) == 0 {
		s.mu.Unlock()
		return
	}

	e.selAfter = e.selBefore
	s.history.push(e)
	s.mu.Unlock()

	s.notify()
}

// Undo reverses the most recent action. Returns false (without error) if
// there is nothing to undo.
func (s *Store) Undo() bool {
	s.mu.Lock()
	e := s.history.popUndo()
	if e == nil {
		s.mu.Unlock()
		return false
	}

	// Remove shapes the action added.
	for _, sh := range e.added {
		if idx := s.orderIndexLocked(sh.ID); idx >= 0 {
			s.order = append(s.order[:idx], s.order[idx+1:]...)
		}
		delete(s.shapes, sh.ID)
		delete(s.selected, sh.ID)
	}
	// Re-insert shapes the action removed, at their original positions.
	for i, sh := range e.removed {
		dup := sh.Clone()
		s.shapes[dup.ID] = dup
		idx := e.removedIdx[i]
		if idx < 0 || idx > len(s.order) {
			idx = len(s.order)
		}
		s.order = append(s.order, "")
		copy(s.order[idx+1:], s.order[idx:])
		s.order[idx] = dup.ID
	}
	// Restore pre-images of modified shapes.
	for _, sh := range e.before {
		if _, ok := s.shapes[sh.ID]; ok {
			s.shapes[sh.ID] = sh.Clone()
		}
	}
	s.setSelectionLocked(e.selBefore)

	s.history.pushRedo(e)
	s.mu.Unlock()

	s.notify()
	return true
}

// Redo re-applies the most recently undone action. Returns false if there
// is nothing to redo.
func (s *Store) Redo() bool {
	s.mu.Lock()
	e := s.history.popRedo()
	if e == nil {
		s.mu.Unlock()
		return false
	}

	for _, sh := range e.added {
		dup := sh.Clone()
		s.shapes[dup.ID] = dup
		s.order = append(s.order, dup.ID)
	}
	for _, sh := range e.removed {
		if idx := s.orderIndexLocked(sh.ID); idx >= 0 {
			s.order = append(s.order[:idx], s.order[idx+1:]...)
		}
		delete(s.shapes, sh.ID)
		delete(s.selected, sh.ID)
	}
	for _, sh := range e.after {
		if _, ok := s.shapes[sh.ID]; ok {
			s.shapes[sh.ID] = sh.Clone()
		}
	}
	s.setSelectionLocked(e.selAfter)

	s.history.pushUndoNoInvalidate(e)
	s.mu.Unlock()

	s.notify()
	return true
}

// UndoDepth returns the number of undoable actions currently retained.
func (s *Store) UndoDepth() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.history.undoDepth()
}

// RedoDepth returns the number of redoable actions.
func (s *Store) RedoDepth() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.history.redoDepth()
}

// setSelectionLocked replaces the selection set, keeping the Selected
// projection on each shape consistent. Caller holds the write lock.
func (s *Store) setSelectionLocked(ids []string) {
	for id := range s.selected {
		if sh, ok := s.shapes[id]; ok {
			sh.Selected = false
		}
	}
	s.selected = make(map[string]bool)
	for _, id := range ids {
		sh, ok := s.shapes[id]
		if !ok {
			continue
		}
		s.selected[id] = true
		sh.Selected = true
	}
}

// selectedIDsLocked returns the selection in insertion order. Caller holds
// at least the read lock.
func (s *Store) selectedIDsLocked() []string {
	var ids []string
	for _, id := range s.order {
		if s.selected[id] {
			ids = append(ids, id)
		}
	}
	return ids
}

// orderIndexLocked returns the position of id in the order list, or -1.
func (s *Store) orderIndexLocked(id string) int {
	for i, v := range s.order {
		if v == id {
			return i
		}
	}
	return -1
}

func idsOf(shapes []*shape.Shape) []string {
	ids := make([]string, len(shapes))
	for i, sh := range shapes {
		ids[i] = sh.ID
	}
	return ids
}
