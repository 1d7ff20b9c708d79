// Package eventloop provides the single goroutine that owns all job-visible
// state. Other goroutines hand it work with Post.
package eventloop

import (
	"context"
	"sync"
	"time"
)

// Loop runs posted functions one at a time in posting order.
type Loop struct {
	mu     sync.Mutex
	tasks  []func()
	signal chan struct{}
}

func New() *Loop {
	return &Loop{signal: make(chan struct{}, 1)}
}

// Post schedules fn. It never blocks and is safe from any goroutine.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	l.tasks = append(l.tasks, fn)
	l.mu.Unlock()
	select {
	case l.signal <- struct{}{}:
	default:
	}
}

// RunPending runs the functions posted so far and returns how many ran.
// Functions posted while they run are left for the next call.
func (l *Loop) RunPending() int {
	l.mu.Lock()
	tasks := l.tasks
	l.tasks = nil
	l.mu.Unlock()
	for _, fn := range tasks {
		fn()
	}
	return len(tasks)
}

// Run processes posted functions until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	for {
		l.RunPending()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.signal:
		}
	}
}

// ProcessEvents runs posted functions for the given duration.
func (l *Loop) ProcessEvents(d time.Duration) {
	l.WaitFor(func() bool { return false }, d)
}

// WaitFor processes posted functions until cond holds or the timeout
// expires. It reports whether cond held.
func (l *Loop) WaitFor(cond func() bool, timeout time.Duration) bool {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	for {
		l.RunPending()
		if cond() {
			return true
		}
		select {
		case <-deadline.C:
			l.RunPending()
			return cond()
		case <-l.signal:
		}
	}
}
