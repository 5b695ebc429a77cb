package keymap

import (
	"testing"

	"github.com/stretchr/testify/require"

	"vru-annotate/internal/annotation"
	"vru-annotate/internal/shape"
	"vru-annotate/internal/tools"
	"vru-annotate/pkg/geometry"
)

func newTestDispatcher() (*Dispatcher, *annotation.Store, *tools.Machine) {
	store := annotation.NewStore()
	machine := tools.NewMachine(store)
	d := NewDispatcher(store, annotation.NewClipboard(), machine)
	return d, store, machine
}

func addRect(t *testing.T, store *annotation.Store, x, y float64) *shape.Shape {
	t.Helper()
	sh := shape.NewRectangle(geometry.Rect{X: x, Y: y, Width: 10, Height: 10})
	require.NoError(t, store.AddShape(sh))
	return sh
}

func TestToolKeys(t *testing.T) {
	d, _, machine := newTestDispatcher()

	cases := []struct {
		key  string
		tool tools.Tool
	}{
		{"R", tools.ToolRectangle},
		{"P", tools.ToolPolygon},
		{"B", tools.ToolBrush},
		{"T", tools.ToolPoint},
		{"V", tools.ToolSelect},
	}
	for _, tc := range cases {
		require.True(t, d.HandleKey(Key{Name: tc.key}))
		require.Equal(t, tc.tool, machine.ActiveTool())
	}
}

func TestUndoRedoChords(t *testing.T) {
	d, store, _ := newTestDispatcher()
	addRect(t, store, 0, 0)

	require.True(t, d.HandleKey(Key{Name: "Z", Ctrl: true}))
	require.Equal(t, 0, store.Len())

	require.True(t, d.HandleKey(Key{Name: "Z", Ctrl: true, Shift: true}))
	require.Equal(t, 1, store.Len())

	require.True(t, d.HandleKey(Key{Name: "Z", Ctrl: true}))
	require.True(t, d.HandleKey(Key{Name: "Y", Ctrl: true}))
	require.Equal(t, 1, store.Len())
}

func TestCopyPasteCutChords(t *testing.T) {
	d, store, _ := newTestDispatcher()
	addRect(t, store, 0, 0)

	require.True(t, d.HandleKey(Key{Name: "C", Ctrl: true}))
	require.True(t, d.HandleKey(Key{Name: "V", Ctrl: true}))
	require.Equal(t, 2, store.Len())

	store.SelectAllVisible()
	require.True(t, d.HandleKey(Key{Name: "X", Ctrl: true}))
	require.Equal(t, 0, store.Len())
	require.True(t, d.HandleKey(Key{Name: "V", Ctrl: true}))
	require.Equal(t, 2, store.Len())
}

func TestDuplicateChord(t *testing.T) {
	d, store, _ := newTestDispatcher()
	addRect(t, store, 0, 0)

	require.True(t, d.HandleKey(Key{Name: "D", Ctrl: true}))
	require.Equal(t, 2, store.Len())
}

func TestSelectAllChord(t *testing.T) {
	d, store, _ := newTestDispatcher()
	a := addRect(t, store, 0, 0)
	b := addRect(t, store, 20, 0)
	store.ClearSelection()

	require.True(t, d.HandleKey(Key{Name: "A", Ctrl: true}))
	require.ElementsMatch(t, []string{a.ID, b.ID}, store.SelectedIDs())
}

func TestDeleteKeys(t *testing.T) {
	d, store, _ := newTestDispatcher()
	addRect(t, store, 0, 0)

	require.True(t, d.HandleKey(Key{Name: "Delete"}))
	require.Equal(t, 0, store.Len())

	addRect(t, store, 0, 0)
	require.True(t, d.HandleKey(Key{Name: "BackSpace"}))
	require.Equal(t, 0, store.Len())
}

func TestEscapeCancelsDrawThenClearsSelection(t *testing.T) {
	d, store, machine := newTestDispatcher()
	addRect(t, store, 0, 0)

	machine.SetActiveTool(tools.ToolPolygon)
	machine.PointerDown(geometry.Point2D{X: 0, Y: 0}, tools.Modifiers{})
	require.True(t, machine.IsDrawing())

	require.True(t, d.HandleKey(Key{Name: "Escape"}))
	require.False(t, machine.IsDrawing())
	require.NotEmpty(t, store.SelectedIDs())

	require.True(t, d.HandleKey(Key{Name: "Escape"}))
	require.Empty(t, store.SelectedIDs())
}

func TestLabelAssignmentShiftDigits(t *testing.T) {
	d, store, _ := newTestDispatcher()
	sh := addRect(t, store, 0, 0)

	require.True(t, d.HandleKey(Key{Name: "1", Shift: true}))
	require.Equal(t, shape.VRULabels[0], store.GetShapeByID(sh.ID).Label)

	require.True(t, d.HandleKey(Key{Name: "5", Shift: true}))
	require.Equal(t, shape.VRULabels[4], store.GetShapeByID(sh.ID).Label)
}

func TestTabCyclesSelection(t *testing.T) {
	d, store, _ := newTestDispatcher()
	a := addRect(t, store, 0, 0)
	b := addRect(t, store, 20, 0)
	c := addRect(t, store, 40, 0)
	store.SelectShapes([]string{a.ID}, false)

	require.True(t, d.HandleKey(Key{Name: "Tab"}))
	require.Equal(t, []string{b.ID}, store.SelectedIDs())

	require.True(t, d.HandleKey(Key{Name: "Tab", Shift: true}))
	require.Equal(t, []string{a.ID}, store.SelectedIDs())

	// Wraps around both ends.
	store.SelectShapes([]string{c.ID}, false)
	require.True(t, d.HandleKey(Key{Name: "Tab"}))
	require.Equal(t, []string{a.ID}, store.SelectedIDs())
}

func TestFrameStepKeys(t *testing.T) {
	d, _, _ := newTestDispatcher()
	var steps []int
	d.OnFrameStep = func(delta int) { steps = append(steps, delta) }

	require.True(t, d.HandleKey(Key{Name: "Right"}))
	require.True(t, d.HandleKey(Key{Name: "Left"}))
	require.True(t, d.HandleKey(Key{Name: "Up"}))
	require.True(t, d.HandleKey(Key{Name: "Down"}))
	require.Equal(t, []int{1, -1, 10, -10}, steps)
}

func TestZoomKeys(t *testing.T) {
	d, _, _ := newTestDispatcher()
	var actions []ZoomAction
	d.OnZoom = func(a ZoomAction) { actions = append(actions, a) }

	for _, name := range []string{"0", "=", "-", "1", "2"} {
		require.True(t, d.HandleKey(Key{Name: name}))
	}
	require.Equal(t, []ZoomAction{ZoomFit, ZoomIn, ZoomOut, Zoom100, Zoom200}, actions)
}

func TestVisibilityAndLockKeys(t *testing.T) {
	d, store, _ := newTestDispatcher()
	sh := addRect(t, store, 0, 0)

	require.True(t, d.HandleKey(Key{Name: "H"}))
	require.False(t, store.GetShapeByID(sh.ID).Visible)

	require.True(t, d.HandleKey(Key{Name: "L"}))
	require.True(t, store.GetShapeByID(sh.ID).Locked)
}

func TestTextInputSuppressesShortcuts(t *testing.T) {
	d, store, machine := newTestDispatcher()
	addRect(t, store, 0, 0)

	d.SetTextInputFocused(true)
	require.False(t, d.HandleKey(Key{Name: "Delete"}))
	require.Equal(t, 1, store.Len())
	require.False(t, d.HandleKey(Key{Name: "R"}))
	require.Equal(t, tools.ToolSelect, machine.ActiveTool())

	d.SetTextInputFocused(false)
	require.True(t, d.HandleKey(Key{Name: "Delete"}))
	require.Equal(t, 0, store.Len())
}

func TestUnknownKeyUnhandled(t *testing.T) {
	d, _, _ := newTestDispatcher()
	require.False(t, d.HandleKey(Key{Name: "F9"}))
	require.False(t, d.HandleKey(Key{Name: "Q", Ctrl: true}))
}

func TestNilCallbacksDoNotPanic(t *testing.T) {
	d, _, _ := newTestDispatcher()
	require.True(t, d.HandleKey(Key{Name: "Space"}))
	require.True(t, d.HandleKey(Key{Name: "G"}))
	require.True(t, d.HandleKey(Key{Name: "S"}))
	require.True(t, d.HandleKey(Key{Name: "Left"}))
}
