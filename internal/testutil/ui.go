package testutil

import (
	"sync"

	"github.com/oac-tree/oac-tree-gui-sub008/internal/sequencer"
	"github.com/zclconf/go-cty/cty"
)

// StatusChange is one recorded instruction status callback.
type StatusChange struct {
	Name   string
	Status sequencer.Status
}

// RecordingUI is a sequencer.UserInterface that records callbacks and
// answers user requests from scripted values.
type RecordingUI struct {
	mu       sync.Mutex
	Inputs   []cty.Value
	Choices  []int
	statuses []StatusChange
	messages []string
}

func (u *RecordingUI) OnInstructionStatusChange(inst *sequencer.Instruction, status sequencer.Status) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.statuses = append(u.statuses, StatusChange{Name: inst.Name(), Status: status})
}

func (u *RecordingUI) OnVariableChange(string, cty.Value, bool) {}

func (u *RecordingUI) OnLogMessage(text string, _ sequencer.Severity) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.messages = append(u.messages, text)
}

// OnUserInput returns the next scripted input, or abandons the request when
// none is left.
func (u *RecordingUI) OnUserInput(cty.Value, string) (cty.Value, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if len(u.Inputs) == 0 {
		return cty.NilVal, false
	}
	v := u.Inputs[0]
	u.Inputs = u.Inputs[1:]
	return v, true
}

// OnUserChoice returns the next scripted choice, or abandons the request
// when none is left.
func (u *RecordingUI) OnUserChoice([]string, cty.Value) (int, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if len(u.Choices) == 0 {
		return -1, false
	}
	c := u.Choices[0]
	u.Choices = u.Choices[1:]
	return c, true
}

func (u *RecordingUI) OnBreakpointHit(*sequencer.Instruction) {}

// Statuses returns the recorded status changes.
func (u *RecordingUI) Statuses() []StatusChange {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]StatusChange(nil), u.statuses...)
}

// Messages returns the recorded log messages.
func (u *RecordingUI) Messages() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]string(nil), u.messages...)
}

// FinalStatus returns the last recorded status of the named instruction.
func (u *RecordingUI) FinalStatus(name string) sequencer.Status {
	u.mu.Lock()
	defer u.mu.Unlock()
	st := sequencer.NotExecuted
	for _, c := range u.statuses {
		if c.Name == name {
			st = c.Status
		}
	}
	return st
}
