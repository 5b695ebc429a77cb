package app

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"vru-annotate/internal/shape"
	"vru-annotate/pkg/geometry"
)

func TestStoreChangeMarksModified(t *testing.T) {
	s := NewState()
	require.False(t, s.Modified)

	var shapeEvents int
	s.On(EventShapesChanged, func(interface{}) { shapeEvents++ })

	sh := shape.NewRectangle(geometry.Rect{X: 0, Y: 0, Width: 10, Height: 10})
	require.NoError(t, s.Store.AddShape(sh))

	require.True(t, s.Modified)
	require.Equal(t, 1, shapeEvents)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := NewState()
	sh := shape.NewRectangle(geometry.Rect{X: 5, Y: 5, Width: 20, Height: 30})
	sh.Label = "pedestrian"
	require.NoError(t, s.Store.AddShape(sh))

	path := filepath.Join(t.TempDir(), "session.vruproj")
	require.NoError(t, s.SaveProject(path))
	require.Equal(t, path, s.ProjectPath)
	require.False(t, s.Modified)

	loaded := NewState()
	require.NoError(t, loaded.LoadProject(path))
	require.Equal(t, path, loaded.ProjectPath)
	require.False(t, loaded.Modified)

	shapes := loaded.Store.Shapes()
	require.Len(t, shapes, 1)
	require.Equal(t, sh.ID, shapes[0].ID)
	require.Equal(t, "pedestrian", shapes[0].Label)
	require.Equal(t, sh.BoundingBox, shapes[0].BoundingBox)
}

func TestSaveSkipsEmptyFrames(t *testing.T) {
	s := NewState()
	path := filepath.Join(t.TempDir(), "empty.vruproj")
	require.NoError(t, s.SaveProject(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var proj ProjectFile
	require.NoError(t, json.Unmarshal(data, &proj))
	require.Equal(t, 1, proj.Version)
	require.Empty(t, proj.Frames)
}

func TestLoadProjectBadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.vruproj")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	s := NewState()
	require.Error(t, s.LoadProject(path))
}

func TestLoadProjectMissingFile(t *testing.T) {
	s := NewState()
	require.Error(t, s.LoadProject(filepath.Join(t.TempDir(), "missing.vruproj")))
}

func TestSetFrameRequiresVideo(t *testing.T) {
	s := NewState()
	require.Error(t, s.SetFrame(1))
	require.Error(t, s.StepFrame(1))
	require.Equal(t, 0, s.Frame())
}

func TestAllFrameShapesReturnsClones(t *testing.T) {
	s := NewState()
	sh := shape.NewRectangle(geometry.Rect{X: 0, Y: 0, Width: 10, Height: 10})
	require.NoError(t, s.Store.AddShape(sh))

	snap := s.AllFrameShapes()
	require.Len(t, snap[0], 1)

	snap[0][0].Label = "mutated"
	require.Empty(t, s.Store.GetShapeByID(sh.ID).Label)
}

func TestToggleEventsFire(t *testing.T) {
	s := NewState()

	var overlay, playback int
	s.On(EventOverlayChanged, func(interface{}) { overlay++ })
	s.On(EventPlaybackToggled, func(data interface{}) {
		playback++
		require.Equal(t, true, data)
	})

	s.ToggleGrid()
	require.True(t, s.ShowGrid)
	s.ToggleSnap()
	require.True(t, s.SnapToGrid)
	require.Equal(t, 2, overlay)

	s.TogglePlayback()
	require.True(t, s.Playing)
	require.Equal(t, 1, playback)
}

func TestModifiedEventOnTransitionOnly(t *testing.T) {
	s := NewState()
	var events int
	s.On(EventModified, func(interface{}) { events++ })

	s.SetModified(true)
	s.SetModified(true)
	s.SetModified(false)
	require.Equal(t, 2, events)
}

func TestCloseWithoutVideo(t *testing.T) {
	s := NewState()
	require.NoError(t, s.Close())
}
