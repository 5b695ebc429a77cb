package render

import (
	"sync"
	"time"
)

// DefaultCoalesceWindow batches invalidations arriving within one display
// frame at 60 Hz into a single redraw.
const DefaultCoalesceWindow = 16 * time.Millisecond

// Invalidator coalesces bursts of change notifications into single redraw
// callbacks. Multiple Invalidate calls within the window fire the callback
// once. Safe for concurrent use.
type Invalidator struct {
	mu      sync.Mutex
	window  time.Duration
	timer   *time.Timer
	pending bool
	redraw  func()
}

// NewInvalidator creates an invalidator that calls redraw after each burst.
// A zero window uses DefaultCoalesceWindow.
func NewInvalidator(window time.Duration, redraw func()) *Invalidator {
	if window <= 0 {
		window = DefaultCoalesceWindow
	}
	return &Invalidator{window: window, redraw: redraw}
}

// Invalidate requests a redraw. The callback fires once per burst, on a
// timer goroutine, after the coalesce window elapses.
func (inv *Invalidator) Invalidate() {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	if inv.pending {
		return
	}
	inv.pending = true
	inv.timer = time.AfterFunc(inv.window, inv.fire)
}

func (inv *Invalidator) fire() {
	inv.mu.Lock()
	inv.pending = false
	redraw := inv.redraw
	inv.mu.Unlock()

	if redraw != nil {
		redraw()
	}
}

// Stop cancels any pending redraw.
func (inv *Invalidator) Stop() {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	if inv.timer != nil {
		inv.timer.Stop()
	}
	inv.pending = false
}
