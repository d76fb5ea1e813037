package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebouncer_DeliversLastValue(t *testing.T) {
	got := make(chan int, 10)
	d := NewDebouncer(30*time.Millisecond, func(v int) { got <- v })

	for i := 1; i <= 5; i++ {
		d.Submit(i)
	}

	select {
	case v := <-got:
		assert.Equal(t, 5, v)
	case <-time.After(2 * time.Second):
		t.Fatal("debounced value was never delivered")
	}

	select {
	case v := <-got:
		t.Fatalf("superseded value %d delivered", v)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestDebouncer_Flush(t *testing.T) {
	var mu sync.Mutex
	var got []string
	d := NewDebouncer(time.Hour, func(v string) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, v)
	})

	assert.False(t, d.Flush())
	d.Submit("a")
	d.Submit("b")
	require.True(t, d.Flush())
	assert.False(t, d.Flush())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"b"}, got)
}

func TestDebouncer_StopDropsPending(t *testing.T) {
	got := make(chan int, 1)
	d := NewDebouncer(10*time.Millisecond, func(v int) { got <- v })
	d.Submit(1)
	d.Stop()
	d.Submit(2)

	select {
	case v := <-got:
		t.Fatalf("value %d delivered after Stop", v)
	case <-time.After(80 * time.Millisecond):
	}
	assert.False(t, d.Flush())
}
