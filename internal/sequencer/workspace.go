package sequencer

import (
	"fmt"
	"sort"
	"sync"

	"github.com/oac-tree/oac-tree-gui-sub008/internal/anyvalue"
	"github.com/zclconf/go-cty/cty"
)

// VariableBehavior implements one variable type.
type VariableBehavior interface {
	// Setup produces the initial value and whether the variable is
	// available right away.
	Setup(v *Variable) (cty.Value, bool, error)
	Teardown(v *Variable)
}

// Variable is a named value slot of a workspace.
type Variable struct {
	name     string
	typeName string
	attrs    map[string]string
	initial  cty.Value
	behavior VariableBehavior

	// guarded by the owning workspace
	value     cty.Value
	available bool
}

func NewVariable(typeName string, behavior VariableBehavior) *Variable {
	return &Variable{typeName: typeName, attrs: make(map[string]string), behavior: behavior}
}

func (v *Variable) Name() string { return v.name }

func (v *Variable) TypeName() string { return v.typeName }

func (v *Variable) SetAttribute(name, value string) { v.attrs[name] = value }

func (v *Variable) Attribute(name string) (string, bool) {
	val, ok := v.attrs[name]
	return val, ok
}

// Attributes returns a copy of the attribute map.
func (v *Variable) Attributes() map[string]string {
	out := make(map[string]string, len(v.attrs))
	for k, val := range v.attrs {
		out[k] = val
	}
	return out
}

func (v *Variable) SetInitialValue(value cty.Value) { v.initial = value }

func (v *Variable) InitialValue() cty.Value { return v.initial }

// Type is the declared value type, taken from the initial value. Variables
// without one hold strings.
func (v *Variable) Type() cty.Type {
	if anyvalue.IsEmpty(v.initial) {
		return cty.String
	}
	return v.initial.Type()
}

// GenericCallback observes every value or availability change.
type GenericCallback func(name string, value cty.Value, connected bool)

type callbackEntry struct {
	token any
	fn    GenericCallback
}

// Workspace holds the variables of a procedure.
type Workspace struct {
	mu     sync.Mutex
	vars   []*Variable
	byName map[string]*Variable
	setup  bool

	cbMu      sync.RWMutex
	callbacks []callbackEntry
}

func NewWorkspace() *Workspace {
	return &Workspace{byName: make(map[string]*Variable)}
}

// AddVariable registers v under name. Variables cannot be added once the
// workspace is set up.
func (w *Workspace) AddVariable(name string, v *Variable) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if name == "" {
		return fmt.Errorf("variable name is empty")
	}
	if w.setup {
		return fmt.Errorf("cannot add variable %q to a workspace that is already set up", name)
	}
	if _, exists := w.byName[name]; exists {
		return fmt.Errorf("variable %q already exists", name)
	}
	v.name = name
	w.vars = append(w.vars, v)
	w.byName[name] = v
	return nil
}

// VariableNames returns variable names in insertion order.
func (w *Workspace) VariableNames() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	names := make([]string, len(w.vars))
	for i, v := range w.vars {
		names[i] = v.name
	}
	return names
}

// SortedVariableNames returns variable names in lexical order.
func (w *Workspace) SortedVariableNames() []string {
	names := w.VariableNames()
	sort.Strings(names)
	return names
}

func (w *Workspace) Variables() []*Variable {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]*Variable(nil), w.vars...)
}

func (w *Workspace) Variable(name string) *Variable {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.byName[name]
}

func (w *Workspace) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.vars)
}

// Setup initialises every variable and then announces each of them to the
// registered callbacks. Calling Setup on a set-up workspace is a no-op.
func (w *Workspace) Setup() error {
	w.mu.Lock()
	if w.setup {
		w.mu.Unlock()
		return nil
	}
	for _, v := range w.vars {
		value, available, err := v.behavior.Setup(v)
		if err != nil {
			w.mu.Unlock()
			return fmt.Errorf("setup of variable %q failed: %w", v.name, err)
		}
		v.value = value
		v.available = available
	}
	w.setup = true
	changes := w.snapshotLocked()
	w.mu.Unlock()

	for _, c := range changes {
		w.notify(c.name, c.value, c.available)
	}
	return nil
}

// IsSuccessfullySetup reports whether Setup completed.
func (w *Workspace) IsSuccessfullySetup() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.setup
}

// Teardown releases the variables and reports them as disconnected.
func (w *Workspace) Teardown() {
	w.mu.Lock()
	if !w.setup {
		w.mu.Unlock()
		return
	}
	for _, v := range w.vars {
		v.behavior.Teardown(v)
		v.available = false
	}
	w.setup = false
	changes := w.snapshotLocked()
	w.mu.Unlock()

	for _, c := range changes {
		w.notify(c.name, c.value, c.available)
	}
}

type change struct {
	name      string
	value     cty.Value
	available bool
}

func (w *Workspace) snapshotLocked() []change {
	out := make([]change, len(w.vars))
	for i, v := range w.vars {
		out[i] = change{name: v.name, value: v.value, available: v.available}
	}
	return out
}

// GetValue returns the current value of a variable.
func (w *Workspace) GetValue(name string) (cty.Value, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	v, ok := w.byName[name]
	if !ok {
		return cty.NilVal, fmt.Errorf("unknown variable %q", name)
	}
	if !w.setup {
		return cty.NilVal, fmt.Errorf("workspace is not set up")
	}
	return v.value, nil
}

// IsAvailable reports the availability of a variable.
func (w *Workspace) IsAvailable(name string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	v, ok := w.byName[name]
	return ok && v.available
}

// SetValue stores a new value converted to the declared type of the variable
// and marks the variable available.
func (w *Workspace) SetValue(name string, value cty.Value) error {
	w.mu.Lock()
	v, ok := w.byName[name]
	if !ok {
		w.mu.Unlock()
		return fmt.Errorf("unknown variable %q", name)
	}
	if !w.setup {
		w.mu.Unlock()
		return fmt.Errorf("workspace is not set up")
	}
	converted, err := anyvalue.Coerce(value, v.Type())
	if err != nil {
		w.mu.Unlock()
		return fmt.Errorf("variable %q: %w", name, err)
	}
	v.value = converted
	v.available = true
	w.mu.Unlock()

	w.notify(name, converted, true)
	return nil
}

// SetAvailable changes the availability of a variable without touching its
// value, as a connection drop or recovery would.
func (w *Workspace) SetAvailable(name string, available bool) error {
	w.mu.Lock()
	v, ok := w.byName[name]
	if !ok {
		w.mu.Unlock()
		return fmt.Errorf("unknown variable %q", name)
	}
	v.available = available
	value := v.value
	w.mu.Unlock()

	w.notify(name, value, available)
	return nil
}

// RegisterGenericCallback adds cb to the observers of every variable. The
// token identifies the listener for GetCallbackGuard.
func (w *Workspace) RegisterGenericCallback(cb GenericCallback, token any) {
	w.cbMu.Lock()
	defer w.cbMu.Unlock()
	w.callbacks = append(w.callbacks, callbackEntry{token: token, fn: cb})
}

// CallbackGuard scopes the callbacks of one listener.
type CallbackGuard struct {
	ws    *Workspace
	token any
	once  sync.Once
}

// GetCallbackGuard returns a guard whose Release unregisters every callback
// registered with token.
func (w *Workspace) GetCallbackGuard(token any) *CallbackGuard {
	return &CallbackGuard{ws: w, token: token}
}

// Release unregisters the callbacks. It waits for callbacks that are
// running, so none of them fires after Release returns. Callbacks must not
// call Release themselves.
func (g *CallbackGuard) Release() {
	g.once.Do(func() {
		g.ws.cbMu.Lock()
		defer g.ws.cbMu.Unlock()
		kept := g.ws.callbacks[:0]
		for _, e := range g.ws.callbacks {
			if e.token != g.token {
				kept = append(kept, e)
			}
		}
		g.ws.callbacks = kept
	})
}

func (w *Workspace) notify(name string, value cty.Value, connected bool) {
	w.cbMu.RLock()
	defer w.cbMu.RUnlock()
	for _, e := range w.callbacks {
		e.fn(name, value, connected)
	}
}
