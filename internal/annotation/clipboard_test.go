package annotation

import (
	"testing"

	"github.com/stretchr/testify/require"

	"vru-annotate/pkg/geometry"
)

func TestCopyPasteMintsFreshIDs(t *testing.T) {
	s := NewStore()
	cb := NewClipboard()
	sh := rectShape(0, 0, 10, 10)
	require.NoError(t, s.AddShape(sh))

	cb.Copy(s.SelectedShapes())
	pasted := cb.Paste(s)

	require.Len(t, pasted, 1)
	require.NotEqual(t, sh.ID, pasted[0].ID)
	require.Equal(t, 2, s.Len())
}

func TestPasteOffsetStacks(t *testing.T) {
	s := NewStore()
	cb := NewClipboard()
	sh := rectShape(0, 0, 10, 10)
	require.NoError(t, s.AddShape(sh))
	cb.Copy(s.SelectedShapes())

	first := cb.Paste(s)
	second := cb.Paste(s)

	require.Equal(t, PasteOffset, first[0].BoundingBox.X)
	require.Equal(t, 2*PasteOffset, second[0].BoundingBox.X)
	require.Equal(t, 2*PasteOffset, second[0].BoundingBox.Y)
}

func TestCopyResetsPasteOffset(t *testing.T) {
	s := NewStore()
	cb := NewClipboard()
	sh := rectShape(0, 0, 10, 10)
	require.NoError(t, s.AddShape(sh))

	cb.Copy(s.SelectedShapes())
	cb.Paste(s)
	cb.Copy(s.SelectedShapes())
	pasted := cb.Paste(s)

	// Fresh copy starts the offset sequence over, relative to the source.
	src := pasted[0].BoundingBox.X - PasteOffset
	require.Equal(t, PasteOffset, pasted[0].BoundingBox.X-src)
}

func TestPasteSurvivesSourceDeletion(t *testing.T) {
	s := NewStore()
	cb := NewClipboard()
	sh := rectShape(0, 0, 10, 10)
	sh.Label = "cyclist"
	require.NoError(t, s.AddShape(sh))

	cb.Cut(s, s.SelectedShapes())
	require.Equal(t, 0, s.Len())

	pasted := cb.Paste(s)
	require.Len(t, pasted, 1)
	require.Equal(t, "cyclist", pasted[0].Label)
	require.NotEqual(t, sh.ID, pasted[0].ID)
}

func TestPasteEmptyClipboardIsNoOp(t *testing.T) {
	s := NewStore()
	cb := NewClipboard()

	require.Nil(t, cb.Paste(s))
	require.Equal(t, 0, s.Len())
	require.Equal(t, 0, s.UndoDepth())
}

func TestPasteIsOneUndoableBatch(t *testing.T) {
	s := NewStore()
	cb := NewClipboard()
	a, b := rectShape(0, 0, 10, 10), rectShape(20, 0, 10, 10)
	require.NoError(t, s.AddShape(a))
	require.NoError(t, s.AddShape(b))
	s.SelectShapes([]string{a.ID, b.ID}, false)

	cb.Copy(s.SelectedShapes())
	pasted := cb.Paste(s)
	require.Len(t, pasted, 2)
	require.Equal(t, 4, s.Len())

	// Pasted shapes are the new selection.
	require.ElementsMatch(t, []string{pasted[0].ID, pasted[1].ID}, s.SelectedIDs())

	// One undo removes the whole paste.
	require.True(t, s.Undo())
	require.Equal(t, 2, s.Len())
}

func TestCutCopiesThenDeletes(t *testing.T) {
	s := NewStore()
	cb := NewClipboard()
	sh := rectShape(0, 0, 10, 10)
	require.NoError(t, s.AddShape(sh))

	cb.Cut(s, s.SelectedShapes())
	require.Equal(t, 0, s.Len())
	require.Equal(t, 1, cb.Len())

	// The cut is undoable independently of the clipboard.
	require.True(t, s.Undo())
	require.Equal(t, 1, s.Len())
}

func TestDuplicate(t *testing.T) {
	s := NewStore()
	cb := NewClipboard()
	sh := rectShape(0, 0, 10, 10)
	require.NoError(t, s.AddShape(sh))

	pasted := cb.Duplicate(s, s.SelectedShapes())
	require.Len(t, pasted, 1)
	require.Equal(t, geometry.Point2D{X: PasteOffset + 5, Y: PasteOffset + 5}, pasted[0].BoundingBox.Center())

	require.Nil(t, cb.Duplicate(s, nil))
}

func TestClipboardClear(t *testing.T) {
	s := NewStore()
	cb := NewClipboard()
	require.NoError(t, s.AddShape(rectShape(0, 0, 10, 10)))

	cb.Copy(s.SelectedShapes())
	require.Equal(t, 1, cb.Len())
	cb.Clear()
	require.Equal(t, 0, cb.Len())
	require.Nil(t, cb.Paste(s))
}
