// Package runner drives a procedure on a dedicated goroutine and enforces the
// job state machine:
//
//	Idle -> Running -> Completed | Failed | Stopped
//	Running -> Canceling -> Canceled
//
// Pausing and stepping are implemented by the flow controller consulted
// from the runner's status callback; they never change the controller state.
package runner

import (
	"sync"
	"time"

	"github.com/oac-tree/oac-tree-gui-sub008/internal/faults"
	"github.com/oac-tree/oac-tree-gui-sub008/internal/flow"
	"github.com/oac-tree/oac-tree-gui-sub008/internal/sequencer"
)

// Domain is the part of the execution engine the controller drives.
// *sequencer.Runner implements it.
type Domain interface {
	Setup() error
	ExecuteProcedure() sequencer.Status
	Halt()
	IsHalted() bool
	Reset()
}

// Controller owns the worker goroutine of one job.
type Controller struct {
	domain Domain
	flow   *flow.Controller

	// opMu serialises ExecuteProcedure, Terminate and Close.
	opMu sync.Mutex

	mu           sync.Mutex
	status       Status
	done         chan struct{}
	onStatus     func(Status)
	interrupters []func()
}

// NewController creates an idle controller.
func NewController(domain Domain, fc *flow.Controller) *Controller {
	return &Controller{domain: domain, flow: fc}
}

// OnStatusChange installs the callback reporting every transition. It is
// called from the goroutine that caused the transition.
func (c *Controller) OnStatusChange(fn func(Status)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onStatus = fn
}

// AddInterrupter registers fn to run when Terminate or Close stops a busy
// run, after the domain was halted and the flow controller interrupted. It is the place to
// release anything else the worker may be blocked on.
func (c *Controller) AddInterrupter(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.interrupters = append(c.interrupters, fn)
}

func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// IsBusy is true while a run is in progress or being cancelled.
func (c *Controller) IsBusy() bool {
	st := c.Status()
	return st == Running || st == Canceling
}

func (c *Controller) setStatus(st Status) {
	c.mu.Lock()
	c.status = st
	fn := c.onStatus
	c.mu.Unlock()
	if fn != nil {
		fn(st)
	}
}

func (c *Controller) SetWaitingMode(mode flow.WaitingMode) { c.flow.SetWaitingMode(mode) }

// SetSleepTime sets the tick timeout between instructions.
func (c *Controller) SetSleepTime(d time.Duration) { c.flow.SetSleepTime(d) }

// Step releases one instruction of a paused run.
func (c *Controller) Step() { c.flow.StepRequest() }

// ExecuteProcedure starts a run. It does nothing while the controller is
// busy. With runSetup the domain is set up first, and a setup failure is
// returned before any goroutine starts.
func (c *Controller) ExecuteProcedure(runSetup bool) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	if c.IsBusy() {
		return nil
	}
	c.join()

	c.domain.Reset()
	c.flow.Rearm()
	if runSetup {
		if err := c.domain.Setup(); err != nil {
			return faults.SetupFailed(err)
		}
	}

	done := make(chan struct{})
	c.mu.Lock()
	c.done = done
	c.mu.Unlock()

	c.setStatus(Running)
	go c.work(done)
	return nil
}

func (c *Controller) work(done chan struct{}) {
	defer close(done)

	result := c.domain.ExecuteProcedure()
	halted := c.domain.IsHalted()
	c.domain.Reset()

	next := Completed
	switch {
	case halted:
		next = Stopped
	case result == sequencer.Failure:
		next = Failed
	}
	c.transition(Running, next)
}

// transition moves from one state to the next only if the controller is
// still in the expected state.
func (c *Controller) transition(from, to Status) bool {
	c.mu.Lock()
	if c.status != from {
		c.mu.Unlock()
		return false
	}
	c.status = to
	fn := c.onStatus
	c.mu.Unlock()
	if fn != nil {
		fn(to)
	}
	return true
}

// Terminate cancels a run and waits for the worker to exit. Without a run in
// progress it does nothing, so it may be called any number of times.
func (c *Controller) Terminate() {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	if !c.transition(Running, Canceling) {
		c.join()
		return
	}
	c.interrupt()
	c.join()
	c.setStatus(Canceled)
}

// Close halts a run in progress and waits for the worker. The status is
// left as is. Interrupters only run when the controller is busy, so closing
// an idle or finished controller leaves them untouched.
func (c *Controller) Close() {
	c.opMu.Lock()
	defer c.opMu.Unlock()
	if c.IsBusy() {
		c.interrupt()
	}
	c.join()
}

func (c *Controller) interrupt() {
	c.domain.Halt()
	c.flow.Interrupt()
	c.mu.Lock()
	interrupters := append([]func(){}, c.interrupters...)
	c.mu.Unlock()
	for _, fn := range interrupters {
		fn()
	}
}

// Done is closed when the current worker exits. Without a worker the
// returned channel is already closed.
func (c *Controller) Done() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.done == nil {
		closed := make(chan struct{})
		close(closed)
		return closed
	}
	return c.done
}

func (c *Controller) join() {
	<-c.Done()
}
