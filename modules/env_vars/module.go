package env_vars

import (
	"os"

	"github.com/oac-tree/oac-tree-gui-sub008/internal/anyvalue"
	"github.com/oac-tree/oac-tree-gui-sub008/internal/registry"
	"github.com/oac-tree/oac-tree-gui-sub008/internal/sequencer"
	"github.com/zclconf/go-cty/cty"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

func (m *Module) Name() string { return "env_vars" }

// Register registers the Env variable type.
func (m *Module) Register(r *registry.Registry) error {
	r.RegisterVariable("Env", func() sequencer.VariableBehavior { return envVariable{} })
	return nil
}

// envVariable reads its value from the process environment variable named by
// the "envName" attribute, or by the variable name. It is unavailable while
// the environment variable is unset.
type envVariable struct{}

func (envVariable) Setup(v *sequencer.Variable) (cty.Value, bool, error) {
	name, _ := v.Attribute("envName")
	if name == "" {
		name = v.Name()
	}
	raw, ok := os.LookupEnv(name)
	if !ok {
		if anyvalue.IsEmpty(v.InitialValue()) {
			return cty.NullVal(v.Type()), false, nil
		}
		return v.InitialValue(), false, nil
	}
	value, err := anyvalue.ParseLiteral(v.Type(), raw)
	if err != nil {
		return cty.NilVal, false, err
	}
	return value, true, nil
}

func (envVariable) Teardown(*sequencer.Variable) {}
