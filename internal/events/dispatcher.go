package events

import "sync/atomic"

// Handlers receive dispatched events on the consumer goroutine. Nil
// handlers are skipped. Any, when set, sees every event after its typed
// handler.
type Handlers struct {
	InstructionState  func(InstructionStateUpdated)
	Variable          func(VariableUpdated)
	JobState          func(JobStateChanged)
	ActiveInstruction func(ActiveInstructionChanged)
	BreakpointHit     func(BreakpointHit)
	Any               func(Event)
}

// Dispatcher queues events from any goroutine and delivers them through
// post, the scheduling function of the consumer goroutine. Bursts of pushes
// between two flushes cost a single post.
type Dispatcher struct {
	queue    *Queue
	post     func(func())
	handlers Handlers
	pending  atomic.Bool
	closed   atomic.Bool
}

func NewDispatcher(post func(func()), handlers Handlers) *Dispatcher {
	return &Dispatcher{queue: NewQueue(), post: post, handlers: handlers}
}

// Push enqueues e and schedules a flush unless one is already pending.
func (d *Dispatcher) Push(e Event) {
	if d.closed.Load() {
		return
	}
	d.queue.Push(e)
	if d.pending.CompareAndSwap(false, true) {
		d.post(d.flush)
	}
}

// Pending is the number of queued events not yet delivered.
func (d *Dispatcher) Pending() int {
	return d.queue.Count()
}

// Close stops delivery. Queued events are dropped.
func (d *Dispatcher) Close() {
	d.closed.Store(true)
}

// flush runs on the consumer goroutine only.
func (d *Dispatcher) flush() {
	d.pending.Store(false)
	for d.queue.Count() > 0 {
		e := d.queue.Pop()
		if d.closed.Load() {
			continue
		}
		d.dispatch(e)
	}
}

func (d *Dispatcher) dispatch(e Event) {
	h := d.handlers
	switch ev := e.(type) {
	case InstructionStateUpdated:
		if h.InstructionState != nil {
			h.InstructionState(ev)
		}
	case VariableUpdated:
		if h.Variable != nil {
			h.Variable(ev)
		}
	case JobStateChanged:
		if h.JobState != nil {
			h.JobState(ev)
		}
	case ActiveInstructionChanged:
		if h.ActiveInstruction != nil {
			h.ActiveInstruction(ev)
		}
	case BreakpointHit:
		if h.BreakpointHit != nil {
			h.BreakpointHit(ev)
		}
	}
	if h.Any != nil {
		h.Any(e)
	}
}
