package session

import (
	"sync"
	"time"
)

// Debouncer delivers the last submitted value once no new value has
// arrived for the quiet period. Superseded values are dropped; a call
// already running is never interrupted. Calls to fn are serialized.
type Debouncer[T any] struct {
	quiet time.Duration
	fn    func(T)

	mu      sync.Mutex
	timer   *time.Timer
	pending T
	has     bool
	stopped bool

	run sync.Mutex
}

// NewDebouncer returns a debouncer calling fn after quiet has elapsed.
func NewDebouncer[T any](quiet time.Duration, fn func(T)) *Debouncer[T] {
	return &Debouncer[T]{quiet: quiet, fn: fn}
}

// Submit replaces the pending value and restarts the quiet period.
func (d *Debouncer[T]) Submit(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.pending = v
	d.has = true
	if d.timer == nil {
		d.timer = time.AfterFunc(d.quiet, d.fire)
		return
	}
	d.timer.Reset(d.quiet)
}

// Flush runs the pending value immediately. It reports whether a value was pending.
func (d *Debouncer[T]) Flush() bool {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.mu.Unlock()
	return d.deliver()
}

// Stop drops any pending value and ignores further submissions.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	d.has = false
	var zero T
	d.pending = zero
	if d.timer != nil {
		d.timer.Stop()
	}
}

func (d *Debouncer[T]) fire() { d.deliver() }

func (d *Debouncer[T]) deliver() bool {
	d.run.Lock()
	defer d.run.Unlock()

	d.mu.Lock()
	if !d.has {
		d.mu.Unlock()
		return false
	}
	v := d.pending
	var zero T
	d.pending = zero
	d.has = false
	d.mu.Unlock()

	d.fn(v)
	return true
}
