package env_vars_test

import (
	"testing"

	"github.com/oac-tree/oac-tree-gui-sub008/internal/registry"
	"github.com/oac-tree/oac-tree-gui-sub008/internal/sequencer"
	"github.com/oac-tree/oac-tree-gui-sub008/internal/testutil"
	"github.com/oac-tree/oac-tree-gui-sub008/modules/env_vars"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func TestEnv(t *testing.T) {
	t.Setenv("OACTREE_TEST_LIMIT", "12.5")
	t.Setenv("OACTREE_TEST_HOST", "ioc01")

	ctx, _ := testutil.Context(t)
	r := registry.New()
	r.LoadModules(ctx, &env_vars.Module{})
	proc := sequencer.NewProcedure("p")
	testutil.AddVariable(t, r, proc, "Env", "limit", cty.NumberIntVal(0), testutil.Attrs{"envName": "OACTREE_TEST_LIMIT"})
	testutil.AddVariable(t, r, proc, "Env", "OACTREE_TEST_HOST", cty.NilVal, nil)
	testutil.AddVariable(t, r, proc, "Env", "unset", cty.StringVal("fallback"), testutil.Attrs{"envName": "OACTREE_TEST_NOT_SET"})

	ws := proc.Workspace()
	require.NoError(t, ws.Setup())

	limit, err := ws.GetValue("limit")
	require.NoError(t, err)
	assert.True(t, limit.Equals(cty.NumberFloatVal(12.5)).True(), limit.GoString())

	host, err := ws.GetValue("OACTREE_TEST_HOST")
	require.NoError(t, err)
	assert.Equal(t, "ioc01", host.AsString())
	assert.True(t, ws.IsAvailable("OACTREE_TEST_HOST"))

	assert.False(t, ws.IsAvailable("unset"))
}

func TestEnv_ParseError(t *testing.T) {
	t.Setenv("OACTREE_TEST_BAD", "not-a-number")

	ctx, _ := testutil.Context(t)
	r := registry.New()
	r.LoadModules(ctx, &env_vars.Module{})
	proc := sequencer.NewProcedure("p")
	testutil.AddVariable(t, r, proc, "Env", "bad", cty.NumberIntVal(0), testutil.Attrs{"envName": "OACTREE_TEST_BAD"})

	assert.Error(t, proc.Workspace().Setup())
}
