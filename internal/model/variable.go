package model

import (
	"sort"

	"github.com/google/uuid"
	"github.com/oac-tree/oac-tree-gui-sub008/internal/anyvalue"
	"github.com/zclconf/go-cty/cty"
)

// VariableItem mirrors one workspace variable.
type VariableItem struct {
	id         string
	name       string
	domainType string
	attrs      []Attribute
	value      cty.Value
	available  bool
	editable   bool

	nextSub     int
	subscribers map[int]func(*VariableItem)
}

func NewVariable(domainType, name string, value cty.Value) *VariableItem {
	return &VariableItem{
		id:          uuid.NewString(),
		name:        name,
		domainType:  domainType,
		value:       value,
		subscribers: make(map[int]func(*VariableItem)),
	}
}

func (v *VariableItem) ID() string { return v.id }

func (v *VariableItem) Name() string { return v.name }

func (v *VariableItem) DomainType() string { return v.domainType }

func (v *VariableItem) Attribute(name string) string {
	for _, a := range v.attrs {
		if a.Name == name {
			return a.Value
		}
	}
	return ""
}

func (v *VariableItem) SetAttribute(name, value string) {
	for idx := range v.attrs {
		if v.attrs[idx].Name == name {
			v.attrs[idx].Value = value
			return
		}
	}
	v.attrs = append(v.attrs, Attribute{Name: name, Value: value})
}

func (v *VariableItem) Attributes() []Attribute {
	return append([]Attribute(nil), v.attrs...)
}

func (v *VariableItem) Value() cty.Value { return v.value }

// SetValue stores value and notifies subscribers when it differs from the
// current one.
func (v *VariableItem) SetValue(value cty.Value) {
	if anyvalue.Equal(v.value, value) {
		return
	}
	v.value = value
	for _, fn := range v.subscriberList() {
		fn(v)
	}
}

func (v *VariableItem) IsAvailable() bool { return v.available }

func (v *VariableItem) SetAvailable(available bool) { v.available = available }

// IsEditable reports whether edits of the value reach a live workspace.
func (v *VariableItem) IsEditable() bool { return v.editable }

func (v *VariableItem) SetEditable(editable bool) { v.editable = editable }

// Subscribe registers fn for value changes and returns the function that
// removes it.
func (v *VariableItem) Subscribe(fn func(*VariableItem)) (unsubscribe func()) {
	id := v.nextSub
	v.nextSub++
	v.subscribers[id] = fn
	return func() { delete(v.subscribers, id) }
}

func (v *VariableItem) subscriberList() []func(*VariableItem) {
	ids := make([]int, 0, len(v.subscribers))
	for id := range v.subscribers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]func(*VariableItem), len(ids))
	for i, id := range ids {
		out[i] = v.subscribers[id]
	}
	return out
}

// WorkspaceItem is the ordered set of variables of a procedure.
type WorkspaceItem struct {
	vars []*VariableItem
}

func (w *WorkspaceItem) Add(vars ...*VariableItem) {
	w.vars = append(w.vars, vars...)
}

func (w *WorkspaceItem) Variables() []*VariableItem { return w.vars }

func (w *WorkspaceItem) Len() int { return len(w.vars) }

// Variable returns the variable at index, or nil.
func (w *WorkspaceItem) Variable(index int) *VariableItem {
	if index < 0 || index >= len(w.vars) {
		return nil
	}
	return w.vars[index]
}

func (w *WorkspaceItem) VariableByName(name string) *VariableItem {
	for _, v := range w.vars {
		if v.name == name {
			return v
		}
	}
	return nil
}

// Names returns the variable names in order.
func (w *WorkspaceItem) Names() []string {
	names := make([]string, len(w.vars))
	for i, v := range w.vars {
		names[i] = v.name
	}
	return names
}
