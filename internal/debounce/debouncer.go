// Package debounce suppresses repeated reads of the same scan text within a
// short window.  A camera pointed at one QR code reports it on many
// consecutive frames; the debouncer turns that burst into a single event.
//
// It is a UX smoothing device, not a correctness mechanism: state is per
// station, in memory only, and lost on restart.  At-most-once check-in is
// enforced by the store.
package debounce

import (
	"sync"
	"time"
)

// DefaultWindow is the suppression window used when none is configured.
const DefaultWindow = 2 * time.Second

// Debouncer remembers when each raw scan text was last accepted.  The zero
// value is not usable; call New.
type Debouncer struct {
	window time.Duration

	mu        sync.Mutex
	seen      map[string]time.Time
	lastSweep time.Time
}

// New returns a Debouncer with the given window.  A non-positive window
// falls back to DefaultWindow.
func New(window time.Duration) *Debouncer {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Debouncer{window: window, seen: make(map[string]time.Time)}
}

// Window returns the configured suppression window.
func (d *Debouncer) Window() time.Duration { return d.window }

// ShouldProcess reports whether raw should be handed to the orchestrator.  It
// returns false when the same text was accepted less than one window before
// now, and otherwise records now and returns true.
//
// Suppressed reads do not extend the window: a code held in front of the
// camera is reprocessed once per window, which lets the operator see the
// "already checked in" answer again without walking away.
func (d *Debouncer) ShouldProcess(raw string, now time.Time) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if now.Sub(d.lastSweep) >= d.window {
		d.sweepLocked(now)
	}
	if last, ok := d.seen[raw]; ok && now.Sub(last) < d.window {
		return false
	}
	d.seen[raw] = now
	return true
}

// Sweep evicts entries older than the window.  ShouldProcess sweeps on its
// own at most once per window, so calling Sweep is optional.
func (d *Debouncer) Sweep(now time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sweepLocked(now)
}

func (d *Debouncer) sweepLocked(now time.Time) {
	for k, t := range d.seen {
		if now.Sub(t) >= d.window {
			delete(d.seen, k)
		}
	}
	d.lastSweep = now
}

// Reset forgets every remembered scan.
func (d *Debouncer) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seen = make(map[string]time.Time)
	d.lastSweep = time.Time{}
}

// Len returns the number of remembered scans.
func (d *Debouncer) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}
