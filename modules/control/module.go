// Package control provides the compound instructions that decide which
// children run and how their results combine.
package control

import (
	"fmt"
	"strconv"

	"github.com/oac-tree/oac-tree-gui-sub008/internal/registry"
	"github.com/oac-tree/oac-tree-gui-sub008/internal/sequencer"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

func (m *Module) Name() string { return "control" }

// Register registers the instruction types with the registry.
func (m *Module) Register(r *registry.Registry) error {
	r.RegisterInstruction("Sequence", func() sequencer.Behavior { return &sequence{} })
	r.RegisterInstruction("Fallback", func() sequencer.Behavior { return &fallback{} })
	r.RegisterInstruction("Repeat", func() sequencer.Behavior { return &repeat{} })
	r.RegisterInstruction("Inverter", func() sequencer.Behavior { return &inverter{} })
	r.RegisterInstruction("Include", func() sequencer.Behavior { return &include{} })
	return nil
}

// sequence runs children in order and stops at the first failure.
type sequence struct{}

func (*sequence) Setup(*sequencer.Instruction, *sequencer.Procedure) error { return nil }

func (*sequence) Execute(ec *sequencer.ExecContext, inst *sequencer.Instruction) sequencer.Status {
	result := sequencer.Success
	for _, child := range inst.Children() {
		switch ec.ExecuteChild(child) {
		case sequencer.Failure:
			return sequencer.Failure
		case sequencer.Warning:
			result = sequencer.Warning
		}
	}
	return result
}

// fallback runs children in order until one succeeds.
type fallback struct{}

func (*fallback) Setup(*sequencer.Instruction, *sequencer.Procedure) error { return nil }

func (*fallback) Execute(ec *sequencer.ExecContext, inst *sequencer.Instruction) sequencer.Status {
	for _, child := range inst.Children() {
		if ec.Halted() {
			return sequencer.Failure
		}
		if st := ec.ExecuteChild(child); st != sequencer.Failure {
			return st
		}
	}
	return sequencer.Failure
}

func singleChild(inst *sequencer.Instruction) error {
	if n := len(inst.Children()); n != 1 {
		return fmt.Errorf("%s %q needs exactly one child, has %d", inst.Kind(), inst.Name(), n)
	}
	return nil
}

// repeat runs its child maxCount times, or until failure when maxCount is
// negative.
type repeat struct {
	maxCount int
}

func (b *repeat) Setup(inst *sequencer.Instruction, _ *sequencer.Procedure) error {
	if err := singleChild(inst); err != nil {
		return err
	}
	b.maxCount = -1
	if v, ok := inst.Attribute("maxCount"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("Repeat %q: invalid maxCount %q: %w", inst.Name(), v, err)
		}
		b.maxCount = n
	}
	return nil
}

func (b *repeat) Execute(ec *sequencer.ExecContext, inst *sequencer.Instruction) sequencer.Status {
	child := inst.Children()[0]
	for i := 0; b.maxCount < 0 || i < b.maxCount; i++ {
		if ec.ExecuteChild(child) == sequencer.Failure {
			return sequencer.Failure
		}
	}
	return sequencer.Success
}

// inverter swaps success and failure of its child.
type inverter struct{}

func (*inverter) Setup(inst *sequencer.Instruction, _ *sequencer.Procedure) error {
	return singleChild(inst)
}

func (*inverter) Execute(ec *sequencer.ExecContext, inst *sequencer.Instruction) sequencer.Status {
	switch ec.ExecuteChild(inst.Children()[0]) {
	case sequencer.Success:
		return sequencer.Failure
	case sequencer.Failure:
		if ec.Halted() {
			return sequencer.Failure
		}
		return sequencer.Success
	}
	return sequencer.Warning
}

// include expands into a copy of the top-level instruction named by path.
type include struct{}

func (*include) Expand(inst *sequencer.Instruction, proc *sequencer.Procedure) ([]*sequencer.Instruction, error) {
	path, err := inst.RequiredAttribute("path")
	if err != nil {
		return nil, err
	}
	clone, err := proc.CloneTopInstruction(path)
	if err != nil {
		return nil, err
	}
	return []*sequencer.Instruction{clone}, nil
}

func (*include) Setup(inst *sequencer.Instruction, _ *sequencer.Procedure) error {
	return singleChild(inst)
}

func (*include) Execute(ec *sequencer.ExecContext, inst *sequencer.Instruction) sequencer.Status {
	return ec.ExecuteChild(inst.Children()[0])
}
