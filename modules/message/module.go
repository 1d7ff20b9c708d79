package message

import (
	"github.com/oac-tree/oac-tree-gui-sub008/internal/registry"
	"github.com/oac-tree/oac-tree-gui-sub008/internal/sequencer"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

func (m *Module) Name() string { return "message" }

// Register registers the Message instruction.
func (m *Module) Register(r *registry.Registry) error {
	r.RegisterInstruction("Message", func() sequencer.Behavior { return &Message{} })
	return nil
}

// Message logs its "text" attribute with the given "severity".
type Message struct {
	text     string
	severity sequencer.Severity
}

func (m *Message) Setup(inst *sequencer.Instruction, _ *sequencer.Procedure) error {
	m.text, _ = inst.Attribute("text")
	sev, _ := inst.Attribute("severity")
	severity, err := sequencer.ParseSeverity(sev)
	if err != nil {
		return err
	}
	m.severity = severity
	return nil
}

func (m *Message) Execute(ec *sequencer.ExecContext, _ *sequencer.Instruction) sequencer.Status {
	ec.Log(m.severity, m.text)
	return sequencer.Success
}
