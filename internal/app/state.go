// Package app provides application lifecycle management, session state and
// events.
package app

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"vru-annotate/internal/annotation"
	"vru-annotate/internal/frames"
	"vru-annotate/internal/shape"
	"vru-annotate/internal/tools"
)

// EventType identifies different application events.
type EventType int

const (
	EventProjectLoaded EventType = iota
	EventProjectSaved
	EventVideoOpened
	EventFrameChanged
	EventShapesChanged
	EventSelectionChanged
	EventToolChanged
	EventModified
	EventPlaybackToggled
	EventOverlayChanged
)

// EventListener is called when an event occurs.
type EventListener func(data interface{})

// State holds the annotation session: the open video, per-frame shapes, the
// live store for the current frame, and edit machinery.
type State struct {
	mu sync.RWMutex

	// Project
	ProjectPath string
	Modified    bool

	// Video
	Source       *frames.Source
	CurrentFrame int

	// Per-frame annotations, keyed by frame index. The current frame's
	// shapes live in Store; frameShapes holds stashed clones for all
	// other frames.
	frameShapes map[int][]*shape.Shape

	// Edit machinery for the current frame.
	Store     *annotation.Store
	Clipboard *annotation.Clipboard
	Machine   *tools.Machine

	// Overlay toggles.
	ShowGrid   bool
	SnapToGrid bool
	ShowLabels bool
	Playing    bool

	// Event listeners
	listeners map[EventType][]EventListener
}

// NewState creates a new session with an empty store.
func NewState() *State {
	store := annotation.NewStore()
	s := &State{
		frameShapes: make(map[int][]*shape.Shape),
		Store:       store,
		Clipboard:   annotation.NewClipboard(),
		Machine:     tools.NewMachine(store),
		ShowLabels:  true,
		listeners:   make(map[EventType][]EventListener),
	}
	store.OnChange(func() {
		s.SetModified(true)
		s.Emit(EventShapesChanged, nil)
	})
	return s
}

// On registers an event listener for the specified event type.
func (s *State) On(event EventType, listener EventListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners[event] = append(s.listeners[event], listener)
}

// Emit triggers all listeners for the specified event type.
func (s *State) Emit(event EventType, data interface{}) {
	s.mu.RLock()
	listeners := s.listeners[event]
	s.mu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}

// SetModified marks the project as modified and emits an event.
func (s *State) SetModified(modified bool) {
	s.mu.Lock()
	changed := s.Modified != modified
	s.Modified = modified
	s.mu.Unlock()
	if changed {
		s.Emit(EventModified, modified)
	}
}

// OpenVideo opens a video file and resets to frame zero. Any annotations on
// the previous video are discarded.
func (s *State) OpenVideo(path string) error {
	src, err := frames.Open(path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.Source != nil {
		s.Source.Close()
	}
	s.Source = src
	s.CurrentFrame = 0
	s.frameShapes = make(map[int][]*shape.Shape)
	s.mu.Unlock()

	s.Store.SetShapes(nil)
	s.SetModified(false)
	s.Emit(EventVideoOpened, path)
	s.Emit(EventFrameChanged, 0)
	return nil
}

// SetFrame switches the session to frame n. The current frame's shapes are
// stashed and the target frame's shapes hydrate the store; each frame keeps
// its own annotations, but undo history does not cross frames.
func (s *State) SetFrame(n int) error {
	s.mu.Lock()
	if s.Source == nil {
		s.mu.Unlock()
		return fmt.Errorf("no video open")
	}
	if n < 0 {
		n = 0
	}
	if max := s.Source.FrameCount() - 1; n > max {
		n = max
	}
	if n == s.CurrentFrame {
		s.mu.Unlock()
		return nil
	}

	s.frameShapes[s.CurrentFrame] = cloneShapes(s.Store.Shapes())
	target := s.frameShapes[n]
	s.CurrentFrame = n
	s.mu.Unlock()

	s.Machine.CancelDraw()
	s.Store.SetShapes(cloneShapes(target))
	s.Emit(EventFrameChanged, n)
	return nil
}

// StepFrame moves the current frame by delta, clamped to the video range.
func (s *State) StepFrame(delta int) error {
	s.mu.RLock()
	cur := s.CurrentFrame
	s.mu.RUnlock()
	return s.SetFrame(cur + delta)
}

// Frame returns the current frame index.
func (s *State) Frame() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.CurrentFrame
}

// AllFrameShapes returns a snapshot of every frame's shapes, including the
// live current frame.
func (s *State) AllFrameShapes() map[int][]*shape.Shape {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[int][]*shape.Shape, len(s.frameShapes)+1)
	for f, shapes := range s.frameShapes {
		out[f] = cloneShapes(shapes)
	}
	out[s.CurrentFrame] = cloneShapes(s.Store.Shapes())
	return out
}

// TogglePlayback flips the playing flag.
func (s *State) TogglePlayback() {
	s.mu.Lock()
	s.Playing = !s.Playing
	playing := s.Playing
	s.mu.Unlock()
	s.Emit(EventPlaybackToggled, playing)
}

// ToggleGrid flips the grid overlay.
func (s *State) ToggleGrid() {
	s.mu.Lock()
	s.ShowGrid = !s.ShowGrid
	s.mu.Unlock()
	s.Emit(EventOverlayChanged, nil)
}

// ToggleSnap flips snap-to-grid.
func (s *State) ToggleSnap() {
	s.mu.Lock()
	s.SnapToGrid = !s.SnapToGrid
	s.mu.Unlock()
	s.Emit(EventOverlayChanged, nil)
}

// ProjectFile is the JSON structure of a .vruproj file.
type ProjectFile struct {
	Version   int                       `json:"version"`
	VideoPath string                    `json:"video,omitempty"`
	Frame     int                       `json:"frame"`
	Frames    map[string][]*shape.Shape `json:"frames"`
}

// SaveProject writes the session to a project file. The video path is stored
// relative to the project file when possible.
func (s *State) SaveProject(path string) error {
	frameShapes := s.AllFrameShapes()

	s.mu.RLock()
	proj := ProjectFile{
		Version: 1,
		Frame:   s.CurrentFrame,
		Frames:  make(map[string][]*shape.Shape, len(frameShapes)),
	}
	if s.Source != nil {
		rel, err := filepath.Rel(filepath.Dir(path), s.Source.Path())
		if err != nil {
			rel = s.Source.Path()
		}
		proj.VideoPath = rel
	}
	s.mu.RUnlock()

	for f, shapes := range frameShapes {
		if len(shapes) == 0 {
			continue
		}
		proj.Frames[fmt.Sprintf("%d", f)] = shapes
	}

	data, err := json.MarshalIndent(proj, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}

	s.mu.Lock()
	s.ProjectPath = path
	s.Modified = false
	s.mu.Unlock()

	s.Emit(EventProjectSaved, path)
	return nil
}

// LoadProject reads a project file, opens its video and restores per-frame
// annotations.
func (s *State) LoadProject(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var proj ProjectFile
	if err := json.Unmarshal(data, &proj); err != nil {
		return fmt.Errorf("parse project %q: %w", path, err)
	}

	if proj.VideoPath != "" {
		videoPath := proj.VideoPath
		if !filepath.IsAbs(videoPath) {
			videoPath = filepath.Join(filepath.Dir(path), videoPath)
		}
		if err := s.OpenVideo(videoPath); err != nil {
			return err
		}
	}

	frameShapes := make(map[int][]*shape.Shape, len(proj.Frames))
	for key, shapes := range proj.Frames {
		var f int
		if _, err := fmt.Sscanf(key, "%d", &f); err != nil {
			continue
		}
		frameShapes[f] = shapes
	}

	s.mu.Lock()
	s.frameShapes = frameShapes
	s.ProjectPath = path
	current := proj.Frame
	s.mu.Unlock()

	s.Store.SetShapes(cloneShapes(frameShapes[0]))
	if current > 0 {
		if err := s.SetFrame(current); err != nil {
			return err
		}
	}

	s.SetModified(false)
	s.Emit(EventProjectLoaded, path)
	return nil
}

// Close releases the video source.
func (s *State) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Source == nil {
		return nil
	}
	err := s.Source.Close()
	s.Source = nil
	return err
}

func cloneShapes(shapes []*shape.Shape) []*shape.Shape {
	if len(shapes) == 0 {
		return nil
	}
	out := make([]*shape.Shape, 0, len(shapes))
	for _, sh := range shapes {
		if sh == nil {
			continue
		}
		out = append(out, sh.Clone())
	}
	return out
}
