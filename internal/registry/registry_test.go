package registry

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/oac-tree/oac-tree-gui-sub008/internal/ctxlog"
	"github.com/oac-tree/oac-tree-gui-sub008/internal/sequencer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

type noopVariable struct{}

func (noopVariable) Setup(v *sequencer.Variable) (cty.Value, bool, error) {
	return v.InitialValue(), true, nil
}
func (noopVariable) Teardown(*sequencer.Variable) {}

type fakeModule struct {
	name string
	err  error
}

func (m fakeModule) Name() string { return m.name }

func (m fakeModule) Register(r *Registry) error {
	if m.err != nil {
		return m.err
	}
	r.RegisterInstruction(m.name, func() sequencer.Behavior {
		return sequencer.ExecuteFunc(func(*sequencer.ExecContext, *sequencer.Instruction) sequencer.Status {
			return sequencer.Success
		})
	})
	return nil
}

func TestRegistry_CreateKnownAndUnknown(t *testing.T) {
	t.Parallel()

	r := New()
	r.RegisterVariable("Local", func() sequencer.VariableBehavior { return noopVariable{} })
	require.NoError(t, fakeModule{name: "Noop"}.Register(r))

	inst, err := r.CreateInstruction("Noop")
	require.NoError(t, err)
	assert.Equal(t, "Noop", inst.Kind())

	v, err := r.CreateVariable("Local")
	require.NoError(t, err)
	assert.Equal(t, "Local", v.TypeName())

	_, err = r.CreateInstruction("Missing")
	require.Error(t, err)
	_, err = r.CreateVariable("Missing")
	require.Error(t, err)

	assert.Equal(t, []string{"Noop"}, r.InstructionTypes())
	assert.Equal(t, []string{"Local"}, r.VariableTypes())
}

func TestRegistry_DuplicatePanics(t *testing.T) {
	t.Parallel()

	r := New()
	require.NoError(t, fakeModule{name: "Noop"}.Register(r))
	require.Panics(t, func() { _ = fakeModule{name: "Noop"}.Register(r) })
}

func TestRegistry_FailingModuleIsSkipped(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	ctx := ctxlog.WithLogger(context.Background(), slog.New(slog.NewTextHandler(&buf, nil)))

	r := New()
	loaded := r.LoadModules(ctx,
		fakeModule{name: "A"},
		fakeModule{name: "Broken", err: errors.New("shared library missing")},
		fakeModule{name: "B"},
	)

	assert.Equal(t, 2, loaded)
	assert.True(t, r.HasInstruction("A"))
	assert.False(t, r.HasInstruction("Broken"))
	assert.True(t, r.HasInstruction("B"))
	assert.Contains(t, buf.String(), "shared library missing")
}
