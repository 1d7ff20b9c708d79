// Package variables provides the Local variable type and the instructions
// that operate on workspace values.
package variables

import (
	"fmt"

	"github.com/oac-tree/oac-tree-gui-sub008/internal/anyvalue"
	"github.com/oac-tree/oac-tree-gui-sub008/internal/registry"
	"github.com/oac-tree/oac-tree-gui-sub008/internal/sequencer"
	"github.com/zclconf/go-cty/cty"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

func (m *Module) Name() string { return "variables" }

// Register registers the Local variable type and the Copy and Equals
// instructions.
func (m *Module) Register(r *registry.Registry) error {
	r.RegisterVariable("Local", func() sequencer.VariableBehavior { return local{} })
	r.RegisterInstruction("Copy", func() sequencer.Behavior { return &binary{op: copyOp, left: "inputVar", right: "outputVar"} })
	r.RegisterInstruction("Equals", func() sequencer.Behavior { return &binary{op: equalsOp, left: "leftVar", right: "rightVar"} })
	return nil
}

// local keeps its value in memory and is available right after setup.
type local struct{}

func (local) Setup(v *sequencer.Variable) (cty.Value, bool, error) {
	if anyvalue.IsEmpty(v.InitialValue()) {
		return cty.NullVal(v.Type()), true, nil
	}
	return v.InitialValue(), true, nil
}

func (local) Teardown(*sequencer.Variable) {}

type op func(ec *sequencer.ExecContext, left, right string) sequencer.Status

// binary is an instruction working on two named variables.
type binary struct {
	op          op
	left, right string
	leftVar     string
	rightVar    string
}

func (b *binary) Setup(inst *sequencer.Instruction, proc *sequencer.Procedure) error {
	var err error
	if b.leftVar, err = inst.RequiredAttribute(b.left); err != nil {
		return err
	}
	if b.rightVar, err = inst.RequiredAttribute(b.right); err != nil {
		return err
	}
	for _, name := range []string{b.leftVar, b.rightVar} {
		if proc.Workspace().Variable(name) == nil {
			return fmt.Errorf("%s %q: unknown variable %q", inst.Kind(), inst.Name(), name)
		}
	}
	return nil
}

func (b *binary) Execute(ec *sequencer.ExecContext, _ *sequencer.Instruction) sequencer.Status {
	return b.op(ec, b.leftVar, b.rightVar)
}

func copyOp(ec *sequencer.ExecContext, from, to string) sequencer.Status {
	ws := ec.Workspace()
	value, err := ws.GetValue(from)
	if err == nil {
		err = ws.SetValue(to, value)
	}
	if err != nil {
		ec.Log(sequencer.SeverityError, err.Error())
		return sequencer.Failure
	}
	return sequencer.Success
}

func equalsOp(ec *sequencer.ExecContext, left, right string) sequencer.Status {
	ws := ec.Workspace()
	a, err := ws.GetValue(left)
	if err != nil {
		ec.Log(sequencer.SeverityError, err.Error())
		return sequencer.Failure
	}
	b, err := ws.GetValue(right)
	if err != nil {
		ec.Log(sequencer.SeverityError, err.Error())
		return sequencer.Failure
	}
	if anyvalue.Equal(a, b) {
		return sequencer.Success
	}
	return sequencer.Failure
}
