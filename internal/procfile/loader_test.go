package procfile

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/oac-tree/oac-tree-gui-sub008/internal/model"
	"github.com/oac-tree/oac-tree-gui-sub008/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

const demo = `
procedure "demo" {
  description = "waits and greets"
  root        = "main"

  variable "Local" "counter" {
    type  = number
    value = "3"
  }

  variable "Env" "home" {
    envName = "HOME"
  }

  instruction "Sequence" "main" {
    instruction "Wait" "pause" {
      timeout = 0.5
    }
    instruction "Message" "greet" {
      text     = "hello"
      severity = "warning"
    }
    instruction "Include" "again" {
      path = "shared"
    }
  }

  instruction "Sequence" "shared" {
    instruction "MyPluginInstruction" "custom" {
      retries = 2
      verbose = true
    }
  }
}
`

func TestParse_TranslatesProcedure(t *testing.T) {
	ctx, _ := testutil.Context(t)

	procs, err := NewLoader().Parse(ctx, "demo.hcl", []byte(demo))

	require.NoError(t, err)
	require.Len(t, procs, 1)
	proc := procs[0]
	assert.Equal(t, "demo", proc.Name())
	assert.Equal(t, "waits and greets", proc.Description())

	top := proc.Instructions().Items()
	require.Len(t, top, 2)
	assert.True(t, top[0].IsRoot())
	assert.False(t, top[1].IsRoot())

	main := top[0]
	require.Len(t, main.Children(), 3)
	wait := main.Children()[0]
	assert.Equal(t, model.KindWait, wait.Kind())
	assert.Equal(t, "0.5", wait.Attribute("timeout"))
	msg := main.Children()[1]
	assert.Equal(t, model.KindMessage, msg.Kind())
	assert.Equal(t, "hello", msg.Attribute("text"))
	assert.Equal(t, "warning", msg.Attribute("severity"))
	assert.Equal(t, "shared", main.Children()[2].Attribute("path"))

	custom := top[1].Children()[0]
	assert.Equal(t, model.KindUniversal, custom.Kind())
	assert.Equal(t, "MyPluginInstruction", custom.DomainType())
	want := []model.Attribute{{Name: "retries", Value: "2"}, {Name: "verbose", Value: "true"}}
	if diff := cmp.Diff(want, custom.Attributes()); diff != "" {
		t.Errorf("attributes mismatch (-want +got):\n%s", diff)
	}

	ws := proc.Workspace()
	require.Equal(t, []string{"counter", "home"}, ws.Names())
	counter := ws.VariableByName("counter")
	assert.Equal(t, "Local", counter.DomainType())
	assert.True(t, counter.Value().Equals(cty.NumberIntVal(3)).True())
	home := ws.VariableByName("home")
	assert.Equal(t, "Env", home.DomainType())
	assert.Equal(t, "HOME", home.Attribute("envName"))
}

func TestParse_NestedInstructions(t *testing.T) {
	ctx, _ := testutil.Context(t)
	src := `
procedure "p" {
  variable "Local" "flag" {
    type  = bool
    value = true
    note  = "kept"
  }
  instruction "Sequence" "main" {
    instruction "Fallback" "try" {
      instruction "Wait" "w" {
        timeout = 0
      }
      instruction "Message" "m" {
        text = "fallback"
      }
    }
    instruction "Wait" "after" {}
  }
}
`

	procs, err := NewLoader().Parse(ctx, "p.hcl", []byte(src))

	require.NoError(t, err)
	main := procs[0].Instructions().Items()[0]
	require.Len(t, main.Children(), 2)
	try := main.Children()[0]
	require.Len(t, try.Children(), 2)
	assert.Equal(t, "0", try.Children()[0].Attribute("timeout"))
	assert.Equal(t, "fallback", try.Children()[1].Attribute("text"))
	assert.Empty(t, main.Attributes())
	assert.Empty(t, try.Attributes())

	flag := procs[0].Workspace().VariableByName("flag")
	want := []model.Attribute{{Name: "note", Value: "kept"}}
	if diff := cmp.Diff(want, flag.Attributes()); diff != "" {
		t.Errorf("variable attributes mismatch (-want +got):\n%s", diff)
	}
	assert.True(t, flag.Value().RawEquals(cty.True))
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"syntax", `procedure "p" {`},
		{"unknown root", `procedure "p" {
  root = "missing"
  instruction "Wait" "w" {}
}`},
		{"duplicate variable", `procedure "p" {
  variable "Local" "a" {}
  variable "Local" "a" {}
}`},
		{"bad type", `procedure "p" {
  variable "Local" "a" {
    type = tuple
  }
}`},
		{"value does not convert", `procedure "p" {
  variable "Local" "a" {
    type  = number
    value = "three"
  }
}`},
		{"duplicate procedure", `procedure "p" {}
procedure "p" {}`},
		{"attribute references a variable", `procedure "p" {
  instruction "Wait" "w" {
    timeout = var.t
  }
}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, _ := testutil.Context(t)
			_, err := NewLoader().Parse(ctx, "bad.hcl", []byte(tt.src))
			assert.Error(t, err)
		})
	}
}

func TestLoad_WalksDirectories(t *testing.T) {
	ctx, _ := testutil.Context(t)
	dir := testutil.WriteFiles(t, map[string]string{
		"a.hcl":        `procedure "first" {}`,
		"nested/b.hcl": `procedure "second" {}`,
		"notes.txt":    `procedure "ignored" {}`,
	})

	procs, err := NewLoader().Load(ctx, dir)

	require.NoError(t, err)
	names := make([]string, 0, len(procs))
	for _, p := range procs {
		names = append(names, p.Name())
	}
	assert.ElementsMatch(t, []string{"first", "second"}, names)

	procs, err = NewLoader().Load(ctx, filepath.Join(dir, "a.hcl"), dir)
	require.NoError(t, err)
	assert.Len(t, procs, 2)
}

func TestLoad_MissingPath(t *testing.T) {
	ctx, _ := testutil.Context(t)
	_, err := NewLoader().Load(ctx, filepath.Join(t.TempDir(), "nope.hcl"))
	assert.Error(t, err)
}

func TestFind(t *testing.T) {
	a, b := model.NewProcedure("a"), model.NewProcedure("b")

	got, err := Find([]*model.ProcedureItem{a}, "")
	require.NoError(t, err)
	assert.Same(t, a, got)

	_, err = Find([]*model.ProcedureItem{a, b}, "")
	assert.Error(t, err)

	got, err = Find([]*model.ProcedureItem{a, b}, "b")
	require.NoError(t, err)
	assert.Same(t, b, got)

	_, err = Find([]*model.ProcedureItem{a, b}, "c")
	assert.Error(t, err)
}
