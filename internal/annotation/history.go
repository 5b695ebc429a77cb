package annotation

import "vru-annotate/internal/shape"

// DefaultHistoryCapacity bounds the undo stack so long annotation sessions
// (hundreds of add/delete cycles) do not grow memory without limit.
const DefaultHistoryCapacity = 100

// entry records one reversible user action: shape snapshots sufficient to
// take the store back to its pre-action state, plus the selection on either
// side of the action. All shapes held here are deep copies.
type entry struct {
	added      []*shape.Shape // shapes the action inserted
	removed    []*shape.Shape // shapes the action removed
	removedIdx []int          // original order positions of removed shapes
	before     []*shape.Shape // pre-images of shapes the action modified
	after      []*shape.Shape // post-images of shapes the action modified
	selBefore  []string
	selAfter   []string
}

// empty reports whether the entry records no change at all.
func (e *entry) empty() bool {
	return len(e.added) == 0 && len(e.removed) == 0 && len(e.before) == 0 &&
		!stringsDiffer(e.selBefore, e.selAfter)
}

// history holds the bounded undo stack and the redo stack. Linear history:
// any new action invalidates the redo stack.
type history struct {
	capacity int
	undo     []*entry
	redo     []*entry
}

func newHistory(capacity int) *history {
	if capacity <= 0 {
		capacity = DefaultHistoryCapacity
	}
	return &history{capacity: capacity}
}

// push records a new action, evicting the oldest entry once the capacity
// bound is exceeded. Eviction only forgets the deepest undo; remaining
// entries stay valid because each is self-contained.
func (h *history) push(e *entry) {
	if e == nil || e.empty() {
		return
	}
	h.redo = h.redo[:0]
	h.undo = append(h.undo, e)
	if len(h.undo) > h.capacity {
		copy(h.undo, h.undo[1:])
		h.undo[len(h.undo)-1] = nil
		h.undo = h.undo[:len(h.undo)-1]
	}
}

// popUndo removes and returns the most recent entry, or nil if none.
func (h *history) popUndo() *entry {
	if len(h.undo) == 0 {
		return nil
	}
	e := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	return e
}

// popRedo removes and returns the most recently undone entry, or nil.
func (h *history) popRedo() *entry {
	if len(h.redo) == 0 {
		return nil
	}
	e := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	return e
}

func (h *history) pushUndoNoInvalidate(e *entry) {
	h.undo = append(h.undo, e)
}

func (h *history) pushRedo(e *entry) {
	h.redo = append(h.redo, e)
}

func (h *history) clear() {
	h.undo = h.undo[:0]
	h.redo = h.redo[:0]
}

func (h *history) undoDepth() int { return len(h.undo) }
func (h *history) redoDepth() int { return len(h.redo) }

func stringsDiffer(a, b []string) bool {
	if len(a) != len(b) {
		return true
	}
	seen := make(map[string]bool, len(a))
	for _, s := range a {
		seen[s] = true
	}
	for _, s := range b {
		if !seen[s] {
			return true
		}
	}
	return false
}
