// Package frames decodes video files into individual frames for annotation.
package frames

import (
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// Source provides random access to the frames of one video file. Methods are
// safe for concurrent use; the underlying capture handle is seeked under a
// lock.
type Source struct {
	mu    sync.Mutex
	cap   *gocv.VideoCapture
	path  string
	count int
	fps   float64
}

// Open opens a video file for frame access.
func Open(path string) (*Source, error) {
	cap, err := gocv.OpenVideoCapture(path)
	if err != nil {
		return nil, fmt.Errorf("open video %q: %w", path, err)
	}

	s := &Source{
		cap:   cap,
		path:  path,
		count: int(cap.Get(gocv.VideoCaptureFrameCount)),
		fps:   cap.Get(gocv.VideoCaptureFPS),
	}
	if s.count <= 0 {
		cap.Close()
		return nil, fmt.Errorf("video %q reports no frames", path)
	}
	return s, nil
}

// Path returns the video file path.
func (s *Source) Path() string { return s.path }

// FrameCount returns the number of frames in the video.
func (s *Source) FrameCount() int { return s.count }

// FPS returns the video frame rate.
func (s *Source) FPS() float64 { return s.fps }

// Frame seeks to frame n (zero-based) and decodes it.
func (s *Source) Frame(n int) (image.Image, error) {
	if n < 0 || n >= s.count {
		return nil, fmt.Errorf("frame %d out of range [0,%d)", n, s.count)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if ok := s.cap.Set(gocv.VideoCapturePosFrames, float64(n)); !ok {
		return nil, fmt.Errorf("seek to frame %d in %q failed", n, s.path)
	}

	mat := gocv.NewMat()
	defer mat.Close()
	if ok := s.cap.Read(&mat); !ok || mat.Empty() {
		return nil, fmt.Errorf("decode frame %d of %q failed", n, s.path)
	}

	img, err := mat.ToImage()
	if err != nil {
		return nil, fmt.Errorf("convert frame %d of %q: %w", n, s.path, err)
	}
	return img, nil
}

// Close releases the capture handle.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cap == nil {
		return nil
	}
	err := s.cap.Close()
	s.cap = nil
	return err
}
