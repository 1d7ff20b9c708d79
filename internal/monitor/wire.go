// Package monitor publishes running jobs over socket.io and mirrors them in
// remote clients.
//
// The server emits job_info with a transform.JobInfo on connection and
// whenever a job is (re)prepared, and domain_event for every event the job
// dispatches. Clients send command to start, pause, step or stop a job.
// Every payload is an Envelope in JSON text. Each side numbers what it sends
// on a connection, waits for the acknowledgement before sending the next
// envelope and delivers what it receives in sequence order.
package monitor

import (
	"encoding/json"
	"fmt"

	"github.com/oac-tree/oac-tree-gui-sub008/internal/anyvalue"
	"github.com/oac-tree/oac-tree-gui-sub008/internal/events"
	"github.com/oac-tree/oac-tree-gui-sub008/internal/runner"
	"github.com/oac-tree/oac-tree-gui-sub008/internal/sequencer"
)

const (
	EventJobInfo     = "job_info"
	EventDomainEvent = "domain_event"
	EventCommand     = "command"
	EventCommandErr  = "command_error"
)

// Action is a job command a client can send.
type Action string

const (
	ActionStart Action = "start"
	ActionPause Action = "pause"
	ActionStep  Action = "step"
	ActionStop  Action = "stop"
)

// Command is the payload of a command event.
type Command struct {
	JobID  string `json:"job_id"`
	Action Action `json:"action"`
}

// CommandError reports a command the server could not apply.
type CommandError struct {
	Command
	Error string `json:"error"`
}

// EventMessage is the wire form of one events.Event of a job.
type EventMessage struct {
	JobID     string            `json:"job_id"`
	Type      string            `json:"type"`
	Index     int               `json:"index,omitempty"`
	Status    string            `json:"status,omitempty"`
	Value     *anyvalue.Encoded `json:"value,omitempty"`
	Connected bool              `json:"connected,omitempty"`
}

const (
	typeInstructionState  = "instruction_state"
	typeVariable          = "variable"
	typeJobState          = "job_state"
	typeActiveInstruction = "active_instruction"
	typeBreakpointHit     = "breakpoint_hit"
)

// EncodeEvent converts ev into its wire form.
func EncodeEvent(jobID string, ev events.Event) (EventMessage, error) {
	msg := EventMessage{JobID: jobID}
	switch e := ev.(type) {
	case events.InstructionStateUpdated:
		msg.Type, msg.Index, msg.Status = typeInstructionState, e.Index, e.Status.String()
	case events.VariableUpdated:
		enc, err := anyvalue.Encode(e.Value)
		if err != nil {
			return EventMessage{}, fmt.Errorf("variable %d: %w", e.Index, err)
		}
		msg.Type, msg.Index, msg.Value, msg.Connected = typeVariable, e.Index, &enc, e.Connected
	case events.JobStateChanged:
		msg.Type, msg.Status = typeJobState, e.Status.String()
	case events.ActiveInstructionChanged:
		msg.Type, msg.Index = typeActiveInstruction, e.Index
	case events.BreakpointHit:
		msg.Type, msg.Index = typeBreakpointHit, e.Index
	default:
		return EventMessage{}, fmt.Errorf("cannot encode event %s", ev)
	}
	return msg, nil
}

// DecodeEvent is the inverse of EncodeEvent.
func DecodeEvent(msg EventMessage) (events.Event, error) {
	switch msg.Type {
	case typeInstructionState:
		st, err := sequencer.ParseStatus(msg.Status)
		if err != nil {
			return nil, err
		}
		return events.InstructionStateUpdated{Index: msg.Index, Status: st}, nil
	case typeVariable:
		if msg.Value == nil {
			return nil, fmt.Errorf("variable %d: missing value", msg.Index)
		}
		value, err := anyvalue.Decode(*msg.Value)
		if err != nil {
			return nil, fmt.Errorf("variable %d: %w", msg.Index, err)
		}
		return events.VariableUpdated{Index: msg.Index, Value: value, Connected: msg.Connected}, nil
	case typeJobState:
		st, err := runner.ParseStatus(msg.Status)
		if err != nil {
			return nil, err
		}
		return events.JobStateChanged{Status: st}, nil
	case typeActiveInstruction:
		return events.ActiveInstructionChanged{Index: msg.Index}, nil
	case typeBreakpointHit:
		return events.BreakpointHit{Index: msg.Index}, nil
	}
	return nil, fmt.Errorf("unknown event type %q", msg.Type)
}

// unmarshalPayload decodes the first argument of a socket.io event. The
// argument is JSON text, or an already decoded JSON value.
func unmarshalPayload(args []any, v any) error {
	if len(args) == 0 {
		return fmt.Errorf("event without payload")
	}
	var raw []byte
	switch p := args[0].(type) {
	case string:
		raw = []byte(p)
	case []byte:
		raw = p
	default:
		b, err := json.Marshal(p)
		if err != nil {
			return err
		}
		raw = b
	}
	return json.Unmarshal(raw, v)
}
