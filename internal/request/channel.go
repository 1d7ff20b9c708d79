// Package request provides the rendezvous used when the runner goroutine
// needs data that only the UI side can supply, such as user input.
package request

import "sync"

type reply[T any] struct {
	value     T
	processed bool
}

// Channel is a single-slot request/response rendezvous. One goroutine waits
// in GetData, another answers with SendData or Cancel.
type Channel[T any] struct {
	mu      sync.Mutex
	waiting bool
	replies chan reply[T]
}

func NewChannel[T any]() *Channel[T] {
	return &Channel[T]{replies: make(chan reply[T], 1)}
}

// GetData blocks until the request is answered. processed is false when it
// was cancelled. A second concurrent waiter is a programming error.
func (c *Channel[T]) GetData() (value T, processed bool) {
	c.arm()
	return c.wait()
}

func (c *Channel[T]) arm() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.waiting {
		panic("request: channel already has a waiter")
	}
	c.waiting = true
}

func (c *Channel[T]) wait() (T, bool) {
	r := <-c.replies
	return r.value, r.processed
}

// IsWaiting reports whether a request is pending on the channel.
func (c *Channel[T]) IsWaiting() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.waiting
}

// SendData releases the waiter with value. Calling it with nobody waiting is
// a programming error.
func (c *Channel[T]) SendData(value T) {
	c.mu.Lock()
	if !c.waiting {
		c.mu.Unlock()
		panic("request: SendData called without a waiting request")
	}
	c.waiting = false
	c.mu.Unlock()
	c.replies <- reply[T]{value: value, processed: true}
}

// Cancel releases the waiter with the zero value and processed=false. It
// does nothing when no request is pending.
func (c *Channel[T]) Cancel() {
	c.mu.Lock()
	if !c.waiting {
		c.mu.Unlock()
		return
	}
	c.waiting = false
	c.mu.Unlock()
	c.replies <- reply[T]{}
}
