// Package userinput provides instructions that stop and ask the operator.
package userinput

import (
	"fmt"

	"github.com/oac-tree/oac-tree-gui-sub008/internal/registry"
	"github.com/oac-tree/oac-tree-gui-sub008/internal/sequencer"
	"github.com/zclconf/go-cty/cty"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

func (m *Module) Name() string { return "userinput" }

// Register registers the Input and UserChoice instructions.
func (m *Module) Register(r *registry.Registry) error {
	r.RegisterInstruction("Input", func() sequencer.Behavior { return &input{} })
	r.RegisterInstruction("UserChoice", func() sequencer.Behavior { return &choice{} })
	return nil
}

// input asks for a new value of "outputVar".
type input struct {
	outputVar   string
	description string
}

func (b *input) Setup(inst *sequencer.Instruction, proc *sequencer.Procedure) error {
	name, err := inst.RequiredAttribute("outputVar")
	if err != nil {
		return err
	}
	if proc.Workspace().Variable(name) == nil {
		return fmt.Errorf("Input %q: unknown variable %q", inst.Name(), name)
	}
	b.outputVar = name
	b.description, _ = inst.Attribute("description")
	return nil
}

func (b *input) Execute(ec *sequencer.ExecContext, inst *sequencer.Instruction) sequencer.Status {
	ws := ec.Workspace()
	current, err := ws.GetValue(b.outputVar)
	if err != nil {
		ec.Log(sequencer.SeverityError, err.Error())
		return sequencer.Failure
	}
	value, ok := ec.UserInput(current, b.description)
	if !ok {
		ec.Log(sequencer.SeverityWarning, fmt.Sprintf("Input %q: request was abandoned", inst.Name()))
		return sequencer.Failure
	}
	if err := ws.SetValue(b.outputVar, value); err != nil {
		ec.Log(sequencer.SeverityError, err.Error())
		return sequencer.Failure
	}
	return sequencer.Success
}

// choice asks which child to run and runs it.
type choice struct {
	description string
}

func (b *choice) Setup(inst *sequencer.Instruction, _ *sequencer.Procedure) error {
	if len(inst.Children()) == 0 {
		return fmt.Errorf("UserChoice %q has no options", inst.Name())
	}
	b.description, _ = inst.Attribute("description")
	return nil
}

func (b *choice) Execute(ec *sequencer.ExecContext, inst *sequencer.Instruction) sequencer.Status {
	children := inst.Children()
	options := make([]string, len(children))
	for i, child := range children {
		options[i] = child.Name()
		if options[i] == "" {
			options[i] = child.Kind()
		}
	}
	metadata := cty.ObjectVal(map[string]cty.Value{"text": cty.StringVal(b.description)})

	index, ok := ec.UserChoice(options, metadata)
	if !ok {
		ec.Log(sequencer.SeverityWarning, fmt.Sprintf("UserChoice %q: request was abandoned", inst.Name()))
		return sequencer.Failure
	}
	if index < 0 || index >= len(children) {
		ec.Log(sequencer.SeverityError, fmt.Sprintf("UserChoice %q: option %d out of range", inst.Name(), index))
		return sequencer.Failure
	}
	return ec.ExecuteChild(children[index])
}
