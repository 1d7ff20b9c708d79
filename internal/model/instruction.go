package model

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/oac-tree/oac-tree-gui-sub008/internal/sequencer"
)

// Attribute is a name/value pair of an instruction or variable.
type Attribute struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// BreakpointStatus is the breakpoint state of an instruction.
type BreakpointStatus int

const (
	BreakpointNotSet BreakpointStatus = iota
	BreakpointSet
	BreakpointDisabled
	BreakpointSetAndHit
)

func (b BreakpointStatus) String() string {
	switch b {
	case BreakpointSet:
		return "Set"
	case BreakpointDisabled:
		return "Disabled"
	case BreakpointSetAndHit:
		return "SetAndHit"
	}
	return "NotSet"
}

// ParseBreakpointStatus is the inverse of BreakpointStatus.String.
func ParseBreakpointStatus(name string) (BreakpointStatus, error) {
	for _, b := range []BreakpointStatus{BreakpointNotSet, BreakpointSet, BreakpointDisabled, BreakpointSetAndHit} {
		if b.String() == name {
			return b, nil
		}
	}
	return BreakpointNotSet, fmt.Errorf("unknown breakpoint status %q", name)
}

// ToggleBreakpoint cycles NotSet, Set, Disabled and back to NotSet. A hit
// breakpoint is disabled.
func ToggleBreakpoint(b BreakpointStatus) BreakpointStatus {
	switch b {
	case BreakpointNotSet:
		return BreakpointSet
	case BreakpointSet, BreakpointSetAndHit:
		return BreakpointDisabled
	}
	return BreakpointNotSet
}

// InstructionItem is a node of an instruction tree.
type InstructionItem struct {
	id         string
	kind       Kind
	domainType string
	name       string
	isRoot     bool
	attrs      []Attribute
	children   []*InstructionItem
	parent     *InstructionItem
	status     sequencer.Status
	breakpoint BreakpointStatus
}

// NewInstruction creates an instruction of a known kind with default
// attribute values.
func NewInstruction(kind Kind) *InstructionItem {
	item := &InstructionItem{id: uuid.NewString(), kind: kind, domainType: kind.DomainType()}
	for _, def := range kind.Schema() {
		item.attrs = append(item.attrs, Attribute{Name: def.Name, Value: def.Default})
	}
	return item
}

// NewInstructionFor creates an item for a domain type, falling back to a
// universal instruction that carries raw attributes.
func NewInstructionFor(domainType string) *InstructionItem {
	kind := KindFromDomainType(domainType)
	if kind != KindUniversal {
		return NewInstruction(kind)
	}
	return &InstructionItem{id: uuid.NewString(), kind: KindUniversal, domainType: domainType}
}

// ID is the identifier assigned at creation. It never changes.
func (i *InstructionItem) ID() string { return i.id }

func (i *InstructionItem) Kind() Kind { return i.kind }

func (i *InstructionItem) DomainType() string { return i.domainType }

func (i *InstructionItem) Name() string { return i.name }

func (i *InstructionItem) SetName(name string) { i.name = name }

func (i *InstructionItem) IsRoot() bool { return i.isRoot }

func (i *InstructionItem) SetRoot(root bool) { i.isRoot = root }

// Attribute returns the value of an attribute, or "" when absent.
func (i *InstructionItem) Attribute(name string) string {
	for _, a := range i.attrs {
		if a.Name == name {
			return a.Value
		}
	}
	return ""
}

// SetAttribute updates or appends an attribute.
func (i *InstructionItem) SetAttribute(name, value string) {
	for idx := range i.attrs {
		if i.attrs[idx].Name == name {
			i.attrs[idx].Value = value
			return
		}
	}
	i.attrs = append(i.attrs, Attribute{Name: name, Value: value})
}

// Attributes returns the attributes in declaration order.
func (i *InstructionItem) Attributes() []Attribute {
	return append([]Attribute(nil), i.attrs...)
}

func (i *InstructionItem) AddChild(child *InstructionItem) {
	child.parent = i
	i.children = append(i.children, child)
}

func (i *InstructionItem) Children() []*InstructionItem { return i.children }

func (i *InstructionItem) Parent() *InstructionItem { return i.parent }

func (i *InstructionItem) Status() sequencer.Status { return i.status }

func (i *InstructionItem) SetStatus(s sequencer.Status) { i.status = s }

func (i *InstructionItem) Breakpoint() BreakpointStatus { return i.breakpoint }

func (i *InstructionItem) SetBreakpoint(b BreakpointStatus) { i.breakpoint = b }

// Walk visits items and their descendants in pre-order.
func Walk(items []*InstructionItem, fn func(*InstructionItem)) {
	for _, item := range items {
		fn(item)
		Walk(item.children, fn)
	}
}

// InstructionContainer holds the top-level instructions of a procedure.
type InstructionContainer struct {
	items []*InstructionItem
}

func (c *InstructionContainer) Add(items ...*InstructionItem) {
	c.items = append(c.items, items...)
}

func (c *InstructionContainer) Items() []*InstructionItem { return c.items }

func (c *InstructionContainer) Len() int { return len(c.items) }

// Find looks up an instruction anywhere in the container by id.
func (c *InstructionContainer) Find(id string) *InstructionItem {
	var found *InstructionItem
	Walk(c.items, func(item *InstructionItem) {
		if found == nil && item.id == id {
			found = item
		}
	})
	return found
}
