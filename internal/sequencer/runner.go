package sequencer

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/zclconf/go-cty/cty"
)

// UserInterface receives the callbacks of a running procedure. All methods
// are invoked on the runner goroutine; OnUserInput, OnUserChoice and
// OnInstructionStatusChange may block.
type UserInterface interface {
	OnInstructionStatusChange(inst *Instruction, status Status)
	OnVariableChange(name string, value cty.Value, connected bool)
	OnLogMessage(text string, severity Severity)
	// OnUserInput asks for a new value; ok is false when the request was
	// abandoned.
	OnUserInput(current cty.Value, description string) (value cty.Value, ok bool)
	// OnUserChoice asks to pick one of options; ok is false when the request
	// was abandoned.
	OnUserChoice(options []string, metadata cty.Value) (index int, ok bool)
	OnBreakpointHit(inst *Instruction)
}

// Runner executes a procedure.
type Runner struct {
	ui UserInterface

	mu          sync.Mutex
	proc        *Procedure
	breakpoints map[int]struct{}
	haltCh      chan struct{}

	halted atomic.Bool
}

func NewRunner(ui UserInterface) *Runner {
	return &Runner{
		ui:          ui,
		breakpoints: make(map[int]struct{}),
		haltCh:      make(chan struct{}),
	}
}

// SetProcedure attaches the runner to proc and forwards its variable changes
// to the user interface. It must be called before the workspace is set up to
// see the initial values.
func (r *Runner) SetProcedure(proc *Procedure) {
	r.mu.Lock()
	r.proc = proc
	r.mu.Unlock()
	proc.Workspace().RegisterGenericCallback(r.ui.OnVariableChange, r)
}

func (r *Runner) Procedure() *Procedure {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.proc
}

// Setup sets up the attached procedure.
func (r *Runner) Setup() error {
	proc := r.Procedure()
	if proc == nil {
		return errNoProcedure
	}
	return proc.Setup()
}

// ExecuteProcedure runs the root instruction to completion on the calling
// goroutine and returns its status.
func (r *Runner) ExecuteProcedure() Status {
	proc := r.Procedure()
	if proc == nil {
		return Failure
	}
	root := proc.RootInstruction()
	if root == nil {
		return Failure
	}
	ec := &ExecContext{runner: r, proc: proc}
	return ec.ExecuteChild(root)
}

// Halt asks a running procedure to stop as soon as possible. It does not
// wait and may be called any number of times.
func (r *Runner) Halt() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.halted.CompareAndSwap(false, true) {
		close(r.haltCh)
	}
}

func (r *Runner) IsHalted() bool {
	return r.halted.Load()
}

// Reset clears a previous halt and resets the procedure.
func (r *Runner) Reset() {
	r.mu.Lock()
	if r.halted.CompareAndSwap(true, false) {
		r.haltCh = make(chan struct{})
	}
	proc := r.proc
	r.mu.Unlock()
	if proc != nil {
		proc.Reset()
	}
}

func (r *Runner) haltChan() <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.haltCh
}

func (r *Runner) SetBreakpoint(index int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.breakpoints[index] = struct{}{}
}

func (r *Runner) RemoveBreakpoint(index int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.breakpoints, index)
}

func (r *Runner) hasBreakpoint(index int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.breakpoints[index]
	return ok
}

// ExecContext is handed to behaviours while they execute.
type ExecContext struct {
	runner *Runner
	proc   *Procedure
}

func (ec *ExecContext) Procedure() *Procedure { return ec.proc }

func (ec *ExecContext) Workspace() *Workspace { return ec.proc.Workspace() }

// Halted reports whether the runner was asked to stop.
func (ec *ExecContext) Halted() bool { return ec.runner.IsHalted() }

// ExecuteChild runs inst and reports its status changes. A halted runner
// fails the instruction without starting it.
func (ec *ExecContext) ExecuteChild(inst *Instruction) Status {
	r := ec.runner
	if r.IsHalted() {
		return Failure
	}
	if r.hasBreakpoint(inst.index) {
		r.ui.OnBreakpointHit(inst)
	}
	inst.setStatus(Running)
	r.ui.OnInstructionStatusChange(inst, Running)
	if r.IsHalted() {
		inst.setStatus(Failure)
		r.ui.OnInstructionStatusChange(inst, Failure)
		return Failure
	}

	status := inst.behavior.Execute(ec, inst)
	inst.setStatus(status)
	r.ui.OnInstructionStatusChange(inst, status)
	return status
}

// Wait sleeps for d. It returns false when the runner is halted first.
func (ec *ExecContext) Wait(d time.Duration) bool {
	if d <= 0 {
		return !ec.Halted()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ec.runner.haltChan():
		return false
	}
}

func (ec *ExecContext) Log(severity Severity, text string) {
	ec.runner.ui.OnLogMessage(text, severity)
}

// UserInput asks the user for a value. A halted runner never asks.
func (ec *ExecContext) UserInput(current cty.Value, description string) (cty.Value, bool) {
	if ec.Halted() {
		return cty.NilVal, false
	}
	return ec.runner.ui.OnUserInput(current, description)
}

// UserChoice asks the user to pick an option. A halted runner never asks.
func (ec *ExecContext) UserChoice(options []string, metadata cty.Value) (int, bool) {
	if ec.Halted() {
		return -1, false
	}
	return ec.runner.ui.OnUserChoice(options, metadata)
}
