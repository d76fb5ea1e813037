package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimer(t *testing.T) {
	timer := NewNamedTimer("test_timer")
	assert.Equal(t, "test_timer", timer.Name())

	time.Sleep(10 * time.Millisecond)

	duration := timer.Stop()
	assert.GreaterOrEqual(t, duration, 10*time.Millisecond)
	assert.Equal(t, duration, timer.Duration())

	str := timer.String()
	assert.Contains(t, str, "test_timer")
	assert.Contains(t, str, "ms")
}

func TestTimings(t *testing.T) {
	var tm Timings
	tm.Add("detect", 3*time.Millisecond)
	tm.Add("rectify", 1500*time.Microsecond)

	stop := tm.Track("filter")
	time.Sleep(time.Millisecond)
	d := stop()
	assert.GreaterOrEqual(t, d, time.Millisecond)

	entries := tm.Entries()
	assert.Len(t, entries, 3)
	assert.Equal(t, "detect", entries[0].Name)
	assert.InDelta(t, 1.5, entries[1].Millis, 1e-9)
	assert.Equal(t, "filter", entries[2].Name)

	got, ok := tm.Get("rectify")
	assert.True(t, ok)
	assert.Equal(t, 1500*time.Microsecond, got)
	_, ok = tm.Get("missing")
	assert.False(t, ok)

	assert.Equal(t, 4500*time.Microsecond+d, tm.Total())
	assert.Contains(t, tm.String(), "detect=3ms rectify=1.5ms filter=")
}
