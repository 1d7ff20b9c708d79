package registry

import (
	"context"
	"fmt"
	"sort"

	"github.com/oac-tree/oac-tree-gui-sub008/internal/ctxlog"
	"github.com/oac-tree/oac-tree-gui-sub008/internal/sequencer"
)

// Module is the interface that all modules must implement to be registered.
type Module interface {
	Name() string
	Register(r *Registry) error
}

// VariableFactory creates the behaviour of a new variable.
type VariableFactory func() sequencer.VariableBehavior

// Registry holds the instruction and variable factories of one application
// instance.
type Registry struct {
	instructions map[string]sequencer.BehaviorFactory
	variables    map[string]VariableFactory
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{
		instructions: make(map[string]sequencer.BehaviorFactory),
		variables:    make(map[string]VariableFactory),
	}
}

// RegisterInstruction registers the factory of an instruction type.
func (r *Registry) RegisterInstruction(typeName string, factory sequencer.BehaviorFactory) {
	if _, exists := r.instructions[typeName]; exists {
		panic(fmt.Sprintf("instruction type '%s' already registered", typeName))
	}
	r.instructions[typeName] = factory
}

// RegisterVariable registers the factory of a variable type.
func (r *Registry) RegisterVariable(typeName string, factory VariableFactory) {
	if _, exists := r.variables[typeName]; exists {
		panic(fmt.Sprintf("variable type '%s' already registered", typeName))
	}
	r.variables[typeName] = factory
}

// CreateInstruction creates a new instruction of the named type.
func (r *Registry) CreateInstruction(typeName string) (*sequencer.Instruction, error) {
	factory, ok := r.instructions[typeName]
	if !ok {
		return nil, fmt.Errorf("unknown instruction type %q", typeName)
	}
	return sequencer.NewInstruction(typeName, factory), nil
}

// CreateVariable creates a new variable of the named type.
func (r *Registry) CreateVariable(typeName string) (*sequencer.Variable, error) {
	factory, ok := r.variables[typeName]
	if !ok {
		return nil, fmt.Errorf("unknown variable type %q", typeName)
	}
	return sequencer.NewVariable(typeName, factory()), nil
}

func (r *Registry) HasInstruction(typeName string) bool {
	_, ok := r.instructions[typeName]
	return ok
}

// InstructionTypes returns the registered instruction types, sorted.
func (r *Registry) InstructionTypes() []string {
	return sortedKeys(r.instructions)
}

// VariableTypes returns the registered variable types, sorted.
func (r *Registry) VariableTypes() []string {
	return sortedKeys(r.variables)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// LoadModules registers every module. A module that fails is logged and
// skipped. It returns the number of modules loaded.
func (r *Registry) LoadModules(ctx context.Context, modules ...Module) int {
	logger := ctxlog.FromContext(ctx)
	loaded := 0
	for _, mod := range modules {
		if err := mod.Register(r); err != nil {
			logger.Warn("Module failed to load, continuing without it.", "module", mod.Name(), "error", err)
			continue
		}
		logger.Debug("Module registered.", "module", mod.Name())
		loaded++
	}
	logger.Debug("Registry populated.", "modules", loaded, "instructions", len(r.instructions), "variables", len(r.variables))
	return loaded
}
