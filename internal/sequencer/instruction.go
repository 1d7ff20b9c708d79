package sequencer

import (
	"fmt"
	"sort"
	"sync/atomic"
)

// Behavior implements the semantics of one instruction kind.
type Behavior interface {
	// Setup validates attributes once the runtime tree is complete.
	Setup(inst *Instruction, proc *Procedure) error
	// Execute runs the instruction to completion on the runner goroutine.
	Execute(ec *ExecContext, inst *Instruction) Status
}

// Expander is implemented by behaviours that generate their children during
// procedure setup, like include.
type Expander interface {
	Expand(inst *Instruction, proc *Procedure) ([]*Instruction, error)
}

// BehaviorFactory creates a fresh behaviour for a new instruction instance.
type BehaviorFactory func() Behavior

// ExecuteFunc adapts a plain function to a Behavior without setup logic.
type ExecuteFunc func(ec *ExecContext, inst *Instruction) Status

func (f ExecuteFunc) Setup(*Instruction, *Procedure) error { return nil }

func (f ExecuteFunc) Execute(ec *ExecContext, inst *Instruction) Status { return f(ec, inst) }

// Instruction is a node of a procedure tree.
type Instruction struct {
	kind      string
	name      string
	attrs     map[string]string
	children  []*Instruction
	parent    *Instruction
	factory   BehaviorFactory
	behavior  Behavior
	tag       string
	generated bool
	index     int
	status    atomic.Int32
}

// NewInstruction creates an instruction of the given kind. The factory is
// kept so the instruction can be cloned during expansion.
func NewInstruction(kind string, factory BehaviorFactory) *Instruction {
	return &Instruction{
		kind:     kind,
		attrs:    make(map[string]string),
		factory:  factory,
		behavior: factory(),
		index:    -1,
	}
}

func (i *Instruction) Kind() string { return i.kind }

func (i *Instruction) Name() string { return i.name }

func (i *Instruction) SetName(name string) { i.name = name }

// Tag is an opaque identifier assigned by whoever built the instruction.
func (i *Instruction) Tag() string { return i.tag }

func (i *Instruction) SetTag(tag string) { i.tag = tag }

// Index is the pre-order position of the instruction in the set-up
// procedure, or -1 before setup.
func (i *Instruction) Index() int { return i.index }

// Generated reports whether the instruction was created by expansion.
func (i *Instruction) Generated() bool { return i.generated }

func (i *Instruction) Behavior() Behavior { return i.behavior }

func (i *Instruction) Status() Status { return Status(i.status.Load()) }

func (i *Instruction) setStatus(s Status) { i.status.Store(int32(s)) }

func (i *Instruction) SetAttribute(name, value string) { i.attrs[name] = value }

func (i *Instruction) Attribute(name string) (string, bool) {
	v, ok := i.attrs[name]
	return v, ok
}

// AttributeNames returns the attribute names in sorted order.
func (i *Instruction) AttributeNames() []string {
	names := make([]string, 0, len(i.attrs))
	for name := range i.attrs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Attributes returns a copy of the attribute map.
func (i *Instruction) Attributes() map[string]string {
	out := make(map[string]string, len(i.attrs))
	for k, v := range i.attrs {
		out[k] = v
	}
	return out
}

func (i *Instruction) AddChild(child *Instruction) {
	child.parent = i
	i.children = append(i.children, child)
}

func (i *Instruction) Children() []*Instruction { return i.children }

func (i *Instruction) Parent() *Instruction { return i.parent }

// clone deep-copies the authored part of the subtree. Generated children and
// tags are not carried over.
func (i *Instruction) clone() *Instruction {
	c := NewInstruction(i.kind, i.factory)
	c.name = i.name
	for k, v := range i.attrs {
		c.attrs[k] = v
	}
	for _, child := range i.children {
		if child.generated {
			continue
		}
		c.AddChild(child.clone())
	}
	return c
}

// walk visits the subtree in pre-order.
func (i *Instruction) walk(fn func(*Instruction)) {
	fn(i)
	for _, child := range i.children {
		child.walk(fn)
	}
}

// RequiredAttribute returns a non-empty attribute or an error naming the
// instruction.
func (i *Instruction) RequiredAttribute(name string) (string, error) {
	v, ok := i.attrs[name]
	if !ok || v == "" {
		return "", fmt.Errorf("%s %q: attribute %q is required", i.kind, i.name, name)
	}
	return v, nil
}
