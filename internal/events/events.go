// Package events carries execution updates from the runner goroutine to the
// goroutine that owns the job's visible state.
package events

import (
	"fmt"

	"github.com/oac-tree/oac-tree-gui-sub008/internal/anyvalue"
	"github.com/oac-tree/oac-tree-gui-sub008/internal/runner"
	"github.com/oac-tree/oac-tree-gui-sub008/internal/sequencer"
	"github.com/zclconf/go-cty/cty"
)

// Event is one of the domain event types declared in this package.
type Event interface {
	isEvent()
	fmt.Stringer
}

// Invalid is returned when popping an empty queue.
type Invalid struct{}

// InstructionStateUpdated reports a new status of an instruction, addressed
// by its index in the expanded procedure.
type InstructionStateUpdated struct {
	Index  int
	Status sequencer.Status
}

// VariableUpdated reports a new value or availability of a variable,
// addressed by its position in the workspace.
type VariableUpdated struct {
	Index     int
	Value     cty.Value
	Connected bool
}

// JobStateChanged reports a runner state transition.
type JobStateChanged struct {
	Status runner.Status
}

// ActiveInstructionChanged reports the instruction that just started.
type ActiveInstructionChanged struct {
	Index int
}

// BreakpointHit reports that execution reached a breakpoint.
type BreakpointHit struct {
	Index int
}

func (Invalid) isEvent()                  {}
func (InstructionStateUpdated) isEvent()  {}
func (VariableUpdated) isEvent()          {}
func (JobStateChanged) isEvent()          {}
func (ActiveInstructionChanged) isEvent() {}
func (BreakpointHit) isEvent()            {}

func (Invalid) String() string { return "Invalid" }

func (e InstructionStateUpdated) String() string {
	return fmt.Sprintf("InstructionStateUpdated{%d %s}", e.Index, e.Status)
}

func (e VariableUpdated) String() string {
	return fmt.Sprintf("VariableUpdated{%d %s connected=%t}", e.Index, anyvalue.Format(e.Value), e.Connected)
}

func (e JobStateChanged) String() string {
	return fmt.Sprintf("JobStateChanged{%s}", e.Status)
}

func (e ActiveInstructionChanged) String() string {
	return fmt.Sprintf("ActiveInstructionChanged{%d}", e.Index)
}

func (e BreakpointHit) String() string {
	return fmt.Sprintf("BreakpointHit{%d}", e.Index)
}

// IsValid reports whether e is a real event.
func IsValid(e Event) bool {
	if e == nil {
		return false
	}
	_, invalid := e.(Invalid)
	return !invalid
}

// Equal compares events structurally.
func Equal(a, b Event) bool {
	if !IsValid(a) || !IsValid(b) {
		return !IsValid(a) && !IsValid(b)
	}
	switch av := a.(type) {
	case VariableUpdated:
		bv, ok := b.(VariableUpdated)
		return ok && av.Index == bv.Index && av.Connected == bv.Connected && anyvalue.Equal(av.Value, bv.Value)
	case InstructionStateUpdated:
		bv, ok := b.(InstructionStateUpdated)
		return ok && av == bv
	case JobStateChanged:
		bv, ok := b.(JobStateChanged)
		return ok && av == bv
	case ActiveInstructionChanged:
		bv, ok := b.(ActiveInstructionChanged)
		return ok && av == bv
	case BreakpointHit:
		bv, ok := b.(BreakpointHit)
		return ok && av == bv
	}
	return false
}
