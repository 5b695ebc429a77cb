// Package keymap maps keyboard chords onto annotation actions. The
// dispatcher is toolkit-agnostic: the UI layer translates its key events
// into Key values and forwards them here. Actions that belong to external
// collaborators (frame navigation, playback, zoom, overlays) are exposed as
// callback fields, left nil when unwired.
package keymap

import (
	"vru-annotate/internal/annotation"
	"vru-annotate/internal/shape"
	"vru-annotate/internal/tools"
)

// Key is one keyboard chord: a key name plus modifier state. Names follow
// the convention "A".."Z", "0".."9", "=", "-", "Escape", "Delete",
// "BackSpace", "Tab", "Space", "Up", "Down", "Left", "Right".
type Key struct {
	Name  string
	Ctrl  bool
	Shift bool
}

// ZoomAction identifies a zoom request delegated to the render adapter.
type ZoomAction int

const (
	ZoomFit ZoomAction = iota
	ZoomIn
	ZoomOut
	Zoom100
	Zoom200
)

// Dispatcher routes key chords to the store, clipboard and tool machine.
type Dispatcher struct {
	store     *annotation.Store
	clipboard *annotation.Clipboard
	machine   *tools.Machine

	textInputFocused bool

	// External delegations.
	OnFrameStep  func(delta int)
	OnPlayPause  func()
	OnZoom       func(action ZoomAction)
	OnToggleGrid func()
	OnToggleSnap func()
}

// NewDispatcher creates a dispatcher over the given annotation state.
func NewDispatcher(store *annotation.Store, clipboard *annotation.Clipboard, machine *tools.Machine) *Dispatcher {
	return &Dispatcher{store: store, clipboard: clipboard, machine: machine}
}

// SetTextInputFocused suppresses all shortcuts while a text input has focus,
// so typing a label name does not switch tools.
func (d *Dispatcher) SetTextInputFocused(focused bool) {
	d.textInputFocused = focused
}

// HandleKey dispatches one chord. Returns true if the chord was handled.
func (d *Dispatcher) HandleKey(k Key) bool {
	if d.textInputFocused {
		return false
	}
	if k.Ctrl {
		return d.handleCtrl(k)
	}
	return d.handlePlain(k)
}

func (d *Dispatcher) handleCtrl(k Key) bool {
	switch k.Name {
	case "Z":
		if k.Shift {
			d.store.Redo()
		} else {
			d.store.Undo()
		}
	case "Y":
		d.store.Redo()
	case "C":
		d.clipboard.Copy(d.store.SelectedShapes())
	case "V":
		d.clipboard.Paste(d.store)
	case "X":
		d.clipboard.Cut(d.store, d.store.SelectedShapes())
	case "A":
		d.store.SelectAllVisible()
	case "D":
		d.clipboard.Duplicate(d.store, d.store.SelectedShapes())
	default:
		return false
	}
	return true
}

func (d *Dispatcher) handlePlain(k Key) bool {
	// Shift+1..5 assigns a VRU label to the selection.
	if k.Shift && len(k.Name) == 1 && k.Name[0] >= '1' && k.Name[0] <= '5' {
		idx := int(k.Name[0] - '1')
		if idx < len(shape.VRULabels) {
			d.store.SetLabel(d.store.SelectedIDs(), shape.VRULabels[idx])
		}
		return true
	}

	switch k.Name {
	case "V":
		d.machine.SetActiveTool(tools.ToolSelect)
	case "R":
		d.machine.SetActiveTool(tools.ToolRectangle)
	case "P":
		d.machine.SetActiveTool(tools.ToolPolygon)
	case "B":
		d.machine.SetActiveTool(tools.ToolBrush)
	case "T":
		d.machine.SetActiveTool(tools.ToolPoint)
	case "Delete", "BackSpace":
		d.store.DeleteShapes(d.store.SelectedIDs())
	case "Escape":
		if d.machine.IsDrawing() {
			d.machine.CancelDraw()
		} else {
			d.store.ClearSelection()
		}
	case "Tab":
		if k.Shift {
			d.cycleSelection(-1)
		} else {
			d.cycleSelection(1)
		}
	case "Left":
		d.frameStep(-1)
	case "Right":
		d.frameStep(1)
	case "Down":
		d.frameStep(-10)
	case "Up":
		d.frameStep(10)
	case "Space":
		if d.OnPlayPause != nil {
			d.OnPlayPause()
		}
	case "0":
		d.zoom(ZoomFit)
	case "=":
		d.zoom(ZoomIn)
	case "-":
		d.zoom(ZoomOut)
	case "1":
		d.zoom(Zoom100)
	case "2":
		d.zoom(Zoom200)
	case "G":
		if d.OnToggleGrid != nil {
			d.OnToggleGrid()
		}
	case "S":
		if d.OnToggleSnap != nil {
			d.OnToggleSnap()
		}
	case "H":
		d.store.ToggleVisibility(d.store.SelectedIDs())
	case "L":
		d.store.ToggleLock(d.store.SelectedIDs())
	default:
		return false
	}
	return true
}

// cycleSelection moves the selection forward or backward through the shape
// list. With nothing selected, forward selects the first shape and backward
// the last.
func (d *Dispatcher) cycleSelection(step int) {
	shapes := d.store.Shapes()
	if len(shapes) == 0 {
		return
	}

	current := -1
	for i, sh := range shapes {
		if sh.Selected {
			current = i
			break
		}
	}

	var next int
	if current < 0 {
		if step > 0 {
			next = 0
		} else {
			next = len(shapes) - 1
		}
	} else {
		next = (current + step + len(shapes)) % len(shapes)
	}
	d.store.SelectShapes([]string{shapes[next].ID}, false)
}

func (d *Dispatcher) frameStep(delta int) {
	if d.OnFrameStep != nil {
		d.OnFrameStep(delta)
	}
}

func (d *Dispatcher) zoom(action ZoomAction) {
	if d.OnZoom != nil {
		d.OnZoom(action)
	}
}
