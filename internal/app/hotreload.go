package app

import (
	"os"
	"path/filepath"
	"syscall"
	"time"
)

// HotReloader watches the running binary and invokes a callback once a newer
// build appears on disk. Used during development to prompt for restart after
// recompiling.
type HotReloader struct {
	execPath string
	baseline time.Time
	interval time.Duration
	stopCh   chan struct{}
	onNew    func()
}

// NewHotReloader watches the current executable. Returns nil when the
// executable path cannot be resolved.
func NewHotReloader(interval time.Duration) *HotReloader {
	execPath, err := os.Executable()
	if err != nil {
		return nil
	}
	// go build writes a new file behind the symlink; watch the real path.
	if real, err := filepath.EvalSymlinks(execPath); err == nil {
		execPath = real
	}
	info, err := os.Stat(execPath)
	if err != nil {
		return nil
	}
	return &HotReloader{
		execPath: execPath,
		baseline: info.ModTime(),
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// OnNewBinary sets the callback for when a newer binary is detected. It runs
// on a background goroutine.
func (h *HotReloader) OnNewBinary(callback func()) {
	h.onNew = callback
}

// Start begins watching in a background goroutine. The watcher fires the
// callback at most once.
func (h *HotReloader) Start() {
	h.stopCh = make(chan struct{})
	go func() {
		ticker := time.NewTicker(h.interval)
		defer ticker.Stop()
		for {
			select {
			case <-h.stopCh:
				return
			case <-ticker.C:
				if h.newer() && h.onNew != nil {
					h.onNew()
					return
				}
			}
		}
	}()
}

// Stop stops the watcher goroutine.
func (h *HotReloader) Stop() {
	close(h.stopCh)
}

// ResetBaseline accepts the current binary as the baseline, silencing
// notifications until the next rebuild. Call when the user declines a
// restart.
func (h *HotReloader) ResetBaseline() {
	if info, err := os.Stat(h.execPath); err == nil {
		h.baseline = info.ModTime()
	}
}

// Restart replaces the current process with the new binary, preserving
// arguments and environment. Does not return on success.
func (h *HotReloader) Restart() error {
	return syscall.Exec(h.execPath, os.Args, os.Environ())
}

func (h *HotReloader) newer() bool {
	info, err := os.Stat(h.execPath)
	if err != nil {
		return false
	}
	return info.ModTime().After(h.baseline)
}
