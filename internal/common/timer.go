// Package common provides timing helpers shared by the processing packages.
package common

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Timer measures a single named interval.
type Timer struct {
	start    time.Time
	name     string
	duration time.Duration
}

// NewTimer starts a timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// NewNamedTimer starts a timer with the given name.
func NewNamedTimer(name string) *Timer {
	return &Timer{
		name:  name,
		start: time.Now(),
	}
}

// Stop stops the timer and returns the elapsed duration.
func (t *Timer) Stop() time.Duration {
	t.duration = time.Since(t.start)
	return t.duration
}

// Duration returns the recorded duration (only valid after Stop()).
func (t *Timer) Duration() time.Duration {
	return t.duration
}

// Name returns the timer name (empty string if unnamed).
func (t *Timer) Name() string {
	return t.name
}

// String returns a formatted string representation of the timer.
func (t *Timer) String() string {
	if t.name != "" {
		return fmt.Sprintf("%s: %v", t.name, t.duration)
	}
	return fmt.Sprintf("%v", t.duration)
}

// Timing is one recorded stage duration.
type Timing struct {
	Name     string        `json:"name"`
	Duration time.Duration `json:"-"`
	Millis   float64       `json:"ms"`
}

// Timings collects stage durations in the order they were recorded.
// It is safe for concurrent use.
type Timings struct {
	mu      sync.Mutex
	entries []Timing
}

// Add records a duration under name.
func (t *Timings) Add(name string, d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = append(t.entries, Timing{
		Name:     name,
		Duration: d,
		Millis:   float64(d.Microseconds()) / 1000,
	})
}

// Track starts a named timer; calling the returned func records it.
func (t *Timings) Track(name string) func() time.Duration {
	timer := NewNamedTimer(name)
	return func() time.Duration {
		d := timer.Stop()
		t.Add(timer.Name(), d)
		return d
	}
}

// Entries returns a copy of the recorded timings.
func (t *Timings) Entries() []Timing {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Timing(nil), t.entries...)
}

// Get returns the first duration recorded under name.
func (t *Timings) Get(name string) (time.Duration, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, e := range t.entries {
		if e.Name == name {
			return e.Duration, true
		}
	}
	return 0, false
}

// Total sums every recorded duration.
func (t *Timings) Total() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	var sum time.Duration
	for _, e := range t.entries {
		sum += e.Duration
	}
	return sum
}

// String renders "name=duration" pairs separated by spaces.
func (t *Timings) String() string {
	entries := t.Entries()
	parts := make([]string, len(entries))
	for i, e := range entries {
		parts[i] = fmt.Sprintf("%s=%v", e.Name, e.Duration)
	}
	return strings.Join(parts, " ")
}
