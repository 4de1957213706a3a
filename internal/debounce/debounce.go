// Package debounce collapses bursts of calls into one trailing call.
package debounce

import (
	"sync"
	"time"
)

// Debouncer runs fn once after Trigger has not been called for the quiet
// interval. There is no leading-edge call.
type Debouncer struct {
	quiet time.Duration
	fn    func()

	mu    sync.Mutex
	timer *time.Timer
}

// New returns a Debouncer for fn. A non-positive quiet interval defaults to 180ms.
func New(quiet time.Duration, fn func()) *Debouncer {
	if quiet <= 0 {
		quiet = 180 * time.Millisecond
	}
	return &Debouncer{quiet: quiet, fn: fn}
}

// Quiet returns the configured interval.
func (d *Debouncer) Quiet() time.Duration { return d.quiet }

// Trigger (re)starts the quiet interval.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.quiet, d.fire)
}

func (d *Debouncer) fire() {
	d.mu.Lock()
	d.timer = nil
	d.mu.Unlock()
	d.fn()
}

// Stop cancels a pending call and reports whether one was pending.
func (d *Debouncer) Stop() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer == nil {
		return false
	}
	stopped := d.timer.Stop()
	d.timer = nil
	return stopped
}
