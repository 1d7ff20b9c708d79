// Package jobsystem runs jobs: it wires an authored procedure to the engine,
// drives it on a worker goroutine and reflects its progress in the job's
// items on the event loop.
package jobsystem

import (
	"context"
	"log/slog"

	"github.com/oac-tree/oac-tree-gui-sub008/internal/events"
	"github.com/oac-tree/oac-tree-gui-sub008/internal/flow"
	"github.com/oac-tree/oac-tree-gui-sub008/internal/joblog"
	"github.com/oac-tree/oac-tree-gui-sub008/internal/request"
	"github.com/oac-tree/oac-tree-gui-sub008/internal/sequencer"
	"github.com/zclconf/go-cty/cty"
)

// InputRequest asks the user for a new variable value.
type InputRequest struct {
	Current     cty.Value
	Description string
}

// ChoiceRequest asks the user to pick one of Options.
type ChoiceRequest struct {
	Options  []string
	Metadata cty.Value
}

// UserContext answers user requests. Both functions run on the event loop;
// ok=false abandons the request.
type UserContext struct {
	Input  func(InputRequest) (cty.Value, bool)
	Choice func(ChoiceRequest) (int, bool)
}

// Observer receives the engine callbacks of one job on the worker
// goroutine and turns them into events, flow waits and user requests.
type Observer struct {
	push    func(events.Event)
	flow    *flow.Controller
	post    func(func())
	user    UserContext
	logger  *slog.Logger
	inputs  *request.Queue[cty.Value, InputRequest]
	choices *request.Queue[int, ChoiceRequest]
}

func NewObserver(push func(events.Event), fc *flow.Controller, post func(func()), user UserContext, logger *slog.Logger) *Observer {
	return &Observer{
		push:    push,
		flow:    fc,
		post:    post,
		user:    user,
		logger:  logger,
		inputs:  request.NewQueue[cty.Value, InputRequest](),
		choices: request.NewQueue[int, ChoiceRequest](),
	}
}

// OnInstructionStatusChange reports the status and, for an instruction
// about to run, blocks as long as the flow controller says so.
func (o *Observer) OnInstructionStatusChange(inst *sequencer.Instruction, status sequencer.Status) {
	o.push(events.InstructionStateUpdated{Index: inst.Index(), Status: status})
	if status != sequencer.Running {
		return
	}
	o.push(events.ActiveInstructionChanged{Index: inst.Index()})
	o.flow.WaitIfNecessary()
}

// OnVariableChange is a no-op: variables reach the items through the
// workspace synchronizer.
func (o *Observer) OnVariableChange(string, cty.Value, bool) {}

func (o *Observer) OnLogMessage(text string, severity sequencer.Severity) {
	o.logger.Log(context.Background(), Level(severity), text, joblog.KeySource, "procedure")
}

func (o *Observer) OnUserInput(current cty.Value, description string) (cty.Value, bool) {
	return o.inputs.GetData(InputRequest{Current: current, Description: description}, func() {
		o.post(func() {
			if o.inputs.Len() > 0 {
				o.inputs.OnDataRequest(o.answerInput)
			}
		})
	})
}

func (o *Observer) OnUserChoice(options []string, metadata cty.Value) (int, bool) {
	return o.choices.GetData(ChoiceRequest{Options: options, Metadata: metadata}, func() {
		o.post(func() {
			if o.choices.Len() > 0 {
				o.choices.OnDataRequest(o.answerChoice)
			}
		})
	})
}

// OnBreakpointHit reports the hit and switches to step mode, so the
// instruction waits before it runs.
func (o *Observer) OnBreakpointHit(inst *sequencer.Instruction) {
	o.push(events.BreakpointHit{Index: inst.Index()})
	o.flow.SetWaitingMode(flow.WaitForRelease)
}

func (o *Observer) answerInput(req InputRequest) (cty.Value, bool) {
	if o.user.Input == nil {
		return cty.NilVal, false
	}
	return o.user.Input(req)
}

func (o *Observer) answerChoice(req ChoiceRequest) (int, bool) {
	if o.user.Choice == nil {
		return -1, false
	}
	return o.user.Choice(req)
}

// CancelRequests abandons pending user requests and refuses new ones until
// ReopenRequests.
func (o *Observer) CancelRequests() {
	o.inputs.CancelAll()
	o.choices.CancelAll()
}

func (o *Observer) ReopenRequests() {
	o.inputs.Reopen()
	o.choices.Reopen()
}

// PendingRequests is the number of unanswered user requests.
func (o *Observer) PendingRequests() int {
	return o.inputs.Len() + o.choices.Len()
}

// Level maps an engine severity onto a log level.
func Level(s sequencer.Severity) slog.Level {
	switch s {
	case sequencer.SeverityDebug:
		return slog.LevelDebug
	case sequencer.SeverityWarning:
		return slog.LevelWarn
	case sequencer.SeverityError:
		return slog.LevelError
	}
	return slog.LevelInfo
}
