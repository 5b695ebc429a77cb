package annotation

import (
	"vru-annotate/internal/shape"
	"vru-annotate/pkg/geometry"

	"github.com/google/uuid"
)

// PasteOffset is the per-paste translation applied to pasted shapes so they
// never sit exactly on top of their source. Successive pastes stack by one
// further offset each, keeping every paste distinguishable.
const PasteOffset = 10.0

// Clipboard holds deep-copy snapshots of copied shapes, independent of the
// OS clipboard. Snapshots survive frame changes and source deletion; pasting
// always mints fresh IDs, so paste output never references a deleted shape.
type Clipboard struct {
	snapshots []*shape.Shape
	pastes    int
}

// NewClipboard creates an empty clipboard.
func NewClipboard() *Clipboard {
	return &Clipboard{}
}

// Copy replaces the clipboard content with deep copies of the given shapes.
func (c *Clipboard) Copy(shapes []*shape.Shape) {
	c.snapshots = c.snapshots[:0]
	for _, sh := range shapes {
		if sh == nil {
			continue
		}
		c.snapshots = append(c.snapshots, sh.Clone())
	}
	c.pastes = 0
}

// Len returns the number of shapes on the clipboard.
func (c *Clipboard) Len() int {
	return len(c.snapshots)
}

// Clear empties the clipboard.
func (c *Clipboard) Clear() {
	c.snapshots = c.snapshots[:0]
	c.pastes = 0
}

// Paste inserts fresh copies of the clipboard content into the store as one
// undoable batch; the pasted shapes become the selection. Each paste offsets
// one step further than the last. A paste with an empty clipboard is a
// silent no-op and returns nil.
func (c *Clipboard) Paste(store *Store) []*shape.Shape {
	if len(c.snapshots) == 0 {
		return nil
	}

	c.pastes++
	delta := geometry.Point2D{
		X: PasteOffset * float64(c.pastes),
		Y: PasteOffset * float64(c.pastes),
	}

	pasted := make([]*shape.Shape, 0, len(c.snapshots))
	for _, snap := range c.snapshots {
		dup := snap.Clone()
		dup.ID = uuid.NewString()
		dup.Selected = false
		dup.Translate(delta)
		pasted = append(pasted, dup)
	}

	if err := store.AddShapes(pasted); err != nil {
		// Fresh UUIDs colliding is not a realistic failure; treat as no-op.
		return nil
	}
	return pasted
}

// Duplicate copies the given shapes and pastes them in one step (Ctrl+D).
func (c *Clipboard) Duplicate(store *Store, shapes []*shape.Shape) []*shape.Shape {
	if len(shapes) == 0 {
		return nil
	}
	c.Copy(shapes)
	return c.Paste(store)
}

// Cut copies the given shapes and deletes them from the store (Ctrl+X).
func (c *Clipboard) Cut(store *Store, shapes []*shape.Shape) {
	if len(shapes) == 0 {
		return
	}
	c.Copy(shapes)
	store.DeleteShapes(idsOf(shapes))
}
