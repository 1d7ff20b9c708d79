package eventloop

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostRunsInOrder(t *testing.T) {
	t.Parallel()

	l := New()
	var got []int
	for i := 0; i < 5; i++ {
		i := i
		l.Post(func() { got = append(got, i) })
	}
	require.Equal(t, 5, l.RunPending())
	assert.Equal(t, []int{0, 1, 2, 3, 4}, got)
	assert.Equal(t, 0, l.RunPending())
}

func TestPostFromTaskRunsNextTick(t *testing.T) {
	t.Parallel()

	l := New()
	ran := false
	l.Post(func() { l.Post(func() { ran = true }) })
	require.Equal(t, 1, l.RunPending())
	assert.False(t, ran)
	require.Equal(t, 1, l.RunPending())
	assert.True(t, ran)
}

func TestWaitForCrossGoroutine(t *testing.T) {
	t.Parallel()

	l := New()
	var mu sync.Mutex
	count := 0
	go func() {
		for i := 0; i < 10; i++ {
			l.Post(func() {
				mu.Lock()
				count++
				mu.Unlock()
			})
		}
	}()

	ok := l.WaitFor(func() bool {
		mu.Lock()
		defer mu.Unlock()
		return count == 10
	}, time.Second)
	assert.True(t, ok)
	assert.False(t, l.WaitFor(func() bool { return false }, 10*time.Millisecond))
}

func TestRunStopsOnCancel(t *testing.T) {
	t.Parallel()

	l := New()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	executed := make(chan struct{})
	l.Post(func() { close(executed) })
	select {
	case <-executed:
	case <-time.After(time.Second):
		t.Fatal("posted task was not executed")
	}

	cancel()
	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
