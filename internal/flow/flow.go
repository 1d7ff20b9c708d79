// Package flow gates the advance of a running procedure. The runner calls
// WaitIfNecessary before every instruction starts; depending on the waiting
// mode the call returns at once (after an optional tick delay) or blocks
// until a step is requested, the mode changes, or the controller is
// interrupted.
package flow

import (
	"fmt"
	"sync"
	"time"
)

// WaitingMode selects how WaitIfNecessary behaves.
type WaitingMode int

const (
	// Proceed lets instructions run, separated by the sleep time.
	Proceed WaitingMode = iota
	// WaitForRelease blocks before every instruction until StepRequest.
	WaitForRelease
)

func (m WaitingMode) String() string {
	switch m {
	case Proceed:
		return "proceed"
	case WaitForRelease:
		return "wait-for-release"
	}
	return fmt.Sprintf("WaitingMode(%d)", int(m))
}

// Controller is safe for concurrent use. WaitIfNecessary is meant for the
// runner goroutine, everything else for the controlling side.
type Controller struct {
	mu          sync.Mutex
	mode        WaitingMode
	sleep       time.Duration
	steps       int
	interrupted bool
	waiting     bool
	wake        chan struct{}
	onWaiting   func(bool)
}

func New() *Controller {
	return &Controller{wake: make(chan struct{})}
}

// OnWaitingChange installs a callback invoked on the runner goroutine when a
// release wait starts (true) and when it ends by a step or a resume (false).
// A wait ended by Interrupt does not report false.
func (c *Controller) OnWaitingChange(fn func(waiting bool)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onWaiting = fn
}

// broadcastLocked wakes every goroutine parked in WaitIfNecessary.
func (c *Controller) broadcastLocked() {
	close(c.wake)
	c.wake = make(chan struct{})
}

func (c *Controller) SetWaitingMode(mode WaitingMode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode == mode {
		return
	}
	c.mode = mode
	c.broadcastLocked()
}

func (c *Controller) WaitingMode() WaitingMode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// SetSleepTime sets the delay applied before each instruction in Proceed
// mode.
func (c *Controller) SetSleepTime(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if d < 0 {
		d = 0
	}
	c.sleep = d
	c.broadcastLocked()
}

func (c *Controller) SleepTime() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sleep
}

// StepRequest releases one instruction. Requests do not accumulate: a step
// requested while nothing waits releases only the next wait.
func (c *Controller) StepRequest() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.steps = 1
	c.broadcastLocked()
}

// Interrupt releases the current wait and makes later waits return
// immediately until Rearm.
func (c *Controller) Interrupt() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.interrupted = true
	c.broadcastLocked()
}

// Rearm clears an interrupt and any stale step request before a new run.
func (c *Controller) Rearm() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.interrupted = false
	c.steps = 0
}

func (c *Controller) IsInterrupted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.interrupted
}

// IsWaiting reports whether the runner is parked waiting for release.
func (c *Controller) IsWaiting() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.waiting
}

// WaitIfNecessary blocks the runner goroutine according to the waiting
// mode.
func (c *Controller) WaitIfNecessary() {
	c.mu.Lock()
	if c.interrupted {
		c.mu.Unlock()
		return
	}
	if c.mode == WaitForRelease {
		c.waitForReleaseLocked()
		return
	}
	c.sleepLocked()
}

// waitForReleaseLocked is entered with mu held and returns with it released.
func (c *Controller) waitForReleaseLocked() {
	if c.steps > 0 {
		c.steps--
		c.mu.Unlock()
		return
	}
	c.waiting = true
	notify := c.onWaiting
	c.mu.Unlock()
	if notify != nil {
		notify(true)
	}

	c.mu.Lock()
	for c.steps == 0 && !c.interrupted && c.mode == WaitForRelease {
		wake := c.wake
		c.mu.Unlock()
		<-wake
		c.mu.Lock()
	}
	if c.steps > 0 {
		c.steps--
	}
	c.waiting = false
	interrupted := c.interrupted
	notify = c.onWaiting
	c.mu.Unlock()

	if notify != nil && !interrupted {
		notify(false)
	}
}

// sleepLocked is entered with mu held and returns with it released.
func (c *Controller) sleepLocked() {
	if c.sleep <= 0 {
		c.mu.Unlock()
		return
	}
	deadline := time.Now().Add(c.sleep)
	for {
		if c.interrupted {
			c.mu.Unlock()
			return
		}
		if c.mode == WaitForRelease {
			c.waitForReleaseLocked()
			return
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			c.mu.Unlock()
			return
		}
		wake := c.wake
		c.mu.Unlock()

		timer := time.NewTimer(remaining)
		select {
		case <-timer.C:
			return
		case <-wake:
			timer.Stop()
		}
		c.mu.Lock()
	}
}
