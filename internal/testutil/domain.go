package testutil

import (
	"testing"

	"github.com/oac-tree/oac-tree-gui-sub008/internal/registry"
	"github.com/oac-tree/oac-tree-gui-sub008/internal/sequencer"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

// Attrs is a shorthand for instruction attributes.
type Attrs map[string]string

// NewInstruction creates a named instruction of typeName with attributes
// and children.
func NewInstruction(t *testing.T, reg *registry.Registry, typeName, name string, attrs Attrs, children ...*sequencer.Instruction) *sequencer.Instruction {
	t.Helper()
	inst, err := reg.CreateInstruction(typeName)
	require.NoError(t, err)
	inst.SetName(name)
	for k, v := range attrs {
		inst.SetAttribute(k, v)
	}
	for _, c := range children {
		inst.AddChild(c)
	}
	return inst
}

// AddVariable adds a variable of typeName with an initial value to proc.
func AddVariable(t *testing.T, reg *registry.Registry, proc *sequencer.Procedure, typeName, name string, initial cty.Value, attrs Attrs) *sequencer.Variable {
	t.Helper()
	v, err := reg.CreateVariable(typeName)
	require.NoError(t, err)
	v.SetInitialValue(initial)
	for k, val := range attrs {
		v.SetAttribute(k, val)
	}
	require.NoError(t, proc.Workspace().AddVariable(name, v))
	return v
}

// Execute sets proc up and runs it to completion with ui.
func Execute(t *testing.T, proc *sequencer.Procedure, ui sequencer.UserInterface) sequencer.Status {
	t.Helper()
	runner := sequencer.NewRunner(ui)
	runner.SetProcedure(proc)
	require.NoError(t, runner.Setup())
	return runner.ExecuteProcedure()
}
