package variables_test

import (
	"testing"

	"github.com/oac-tree/oac-tree-gui-sub008/internal/registry"
	"github.com/oac-tree/oac-tree-gui-sub008/internal/sequencer"
	"github.com/oac-tree/oac-tree-gui-sub008/internal/testutil"
	"github.com/oac-tree/oac-tree-gui-sub008/modules/variables"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func newRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	ctx, _ := testutil.Context(t)
	r := registry.New()
	r.LoadModules(ctx, &variables.Module{})
	return r
}

func TestLocal_SetupPublishesInitialValue(t *testing.T) {
	r := newRegistry(t)
	proc := sequencer.NewProcedure("p")
	testutil.AddVariable(t, r, proc, "Local", "a", cty.StringVal("x"), nil)
	testutil.AddVariable(t, r, proc, "Local", "empty", cty.NilVal, nil)

	require.NoError(t, proc.Workspace().Setup())

	got, err := proc.Workspace().GetValue("a")
	require.NoError(t, err)
	assert.True(t, got.RawEquals(cty.StringVal("x")))
	assert.True(t, proc.Workspace().IsAvailable("a"))

	empty, err := proc.Workspace().GetValue("empty")
	require.NoError(t, err)
	assert.True(t, empty.IsNull())
}

func TestCopy(t *testing.T) {
	r := newRegistry(t)
	proc := sequencer.NewProcedure("p")
	testutil.AddVariable(t, r, proc, "Local", "src", cty.NumberIntVal(7), nil)
	testutil.AddVariable(t, r, proc, "Local", "dst", cty.NumberIntVal(0), nil)
	proc.AddInstruction(testutil.NewInstruction(t, r, "Copy", "cp", testutil.Attrs{"inputVar": "src", "outputVar": "dst"}))

	require.Equal(t, sequencer.Success, testutil.Execute(t, proc, &testutil.RecordingUI{}))
	got, err := proc.Workspace().GetValue("dst")
	require.NoError(t, err)
	assert.True(t, got.RawEquals(cty.NumberIntVal(7)))
}

func TestCopy_IncompatibleTypeFails(t *testing.T) {
	r := newRegistry(t)
	proc := sequencer.NewProcedure("p")
	testutil.AddVariable(t, r, proc, "Local", "src", cty.StringVal("abc"), nil)
	testutil.AddVariable(t, r, proc, "Local", "dst", cty.NumberIntVal(0), nil)
	proc.AddInstruction(testutil.NewInstruction(t, r, "Copy", "cp", testutil.Attrs{"inputVar": "src", "outputVar": "dst"}))

	ui := &testutil.RecordingUI{}
	assert.Equal(t, sequencer.Failure, testutil.Execute(t, proc, ui))
	assert.Len(t, ui.Messages(), 1)
}

func TestEquals(t *testing.T) {
	tests := []struct {
		name string
		a, b cty.Value
		want sequencer.Status
	}{
		{"same", cty.StringVal("on"), cty.StringVal("on"), sequencer.Success},
		{"different", cty.StringVal("on"), cty.StringVal("off"), sequencer.Failure},
		{"different type", cty.StringVal("1"), cty.NumberIntVal(1), sequencer.Failure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRegistry(t)
			proc := sequencer.NewProcedure("p")
			testutil.AddVariable(t, r, proc, "Local", "a", tt.a, nil)
			testutil.AddVariable(t, r, proc, "Local", "b", tt.b, nil)
			proc.AddInstruction(testutil.NewInstruction(t, r, "Equals", "eq", testutil.Attrs{"leftVar": "a", "rightVar": "b"}))

			assert.Equal(t, tt.want, testutil.Execute(t, proc, &testutil.RecordingUI{}))
		})
	}
}

func TestCopy_MissingAttribute(t *testing.T) {
	r := newRegistry(t)
	proc := sequencer.NewProcedure("p")
	testutil.AddVariable(t, r, proc, "Local", "src", cty.NumberIntVal(7), nil)
	proc.AddInstruction(testutil.NewInstruction(t, r, "Copy", "cp", testutil.Attrs{"inputVar": "src"}))

	err := proc.SetupPreamble()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "outputVar")
}
