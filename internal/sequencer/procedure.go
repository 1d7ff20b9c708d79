package sequencer

import (
	"fmt"
	"sync"
)

// maxExpansionDepth bounds nested expansion so include cycles fail setup.
const maxExpansionDepth = 32

// Procedure is a forest of instructions and the workspace they operate on.
type Procedure struct {
	setupMu      sync.Mutex
	mu           sync.Mutex
	name         string
	instructions []*Instruction
	workspace    *Workspace
	arena        []*Instruction
	preamble     bool
}

func NewProcedure(name string) *Procedure {
	return &Procedure{name: name, workspace: NewWorkspace()}
}

func (p *Procedure) Name() string { return p.name }

func (p *Procedure) Workspace() *Workspace { return p.workspace }

// AddInstruction appends a top-level instruction.
func (p *Procedure) AddInstruction(inst *Instruction) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.instructions = append(p.instructions, inst)
}

// Instructions returns the top-level instructions.
func (p *Procedure) Instructions() []*Instruction {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*Instruction(nil), p.instructions...)
}

// TopInstruction finds a top-level instruction by name.
func (p *Procedure) TopInstruction(name string) *Instruction {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, inst := range p.instructions {
		if inst.name == name {
			return inst
		}
	}
	return nil
}

// RootInstruction is the top-level instruction marked with isRoot, or the
// first one when none is marked.
func (p *Procedure) RootInstruction() *Instruction {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, inst := range p.instructions {
		if v, _ := inst.Attribute(AttrIsRoot); v == "true" {
			return inst
		}
	}
	if len(p.instructions) == 0 {
		return nil
	}
	return p.instructions[0]
}

// AttrIsRoot marks the instruction a runner starts from.
const AttrIsRoot = "isRoot"

// IsPreambleDone reports whether the instruction tree has been expanded and
// indexed.
func (p *Procedure) IsPreambleDone() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.preamble
}

// SetupPreamble expands the instruction tree, assigns pre-order indices and
// runs behaviour setup. The workspace is left untouched so listeners can
// still attach to it. Calling it again is a no-op.
func (p *Procedure) SetupPreamble() error {
	p.setupMu.Lock()
	defer p.setupMu.Unlock()
	if p.IsPreambleDone() {
		return nil
	}
	tops := p.Instructions()
	if len(tops) == 0 {
		return fmt.Errorf("procedure %q has no instructions", p.name)
	}
	for _, top := range tops {
		if err := p.expand(top, 0); err != nil {
			return err
		}
	}

	arena := make([]*Instruction, 0, len(tops))
	for _, top := range tops {
		top.walk(func(inst *Instruction) {
			inst.index = len(arena)
			arena = append(arena, inst)
		})
	}
	for _, inst := range arena {
		if err := inst.behavior.Setup(inst, p); err != nil {
			return fmt.Errorf("setup of %s %q failed: %w", inst.kind, inst.name, err)
		}
	}
	p.mu.Lock()
	p.arena = arena
	p.preamble = true
	p.mu.Unlock()
	return nil
}

func (p *Procedure) expand(inst *Instruction, depth int) error {
	if depth > maxExpansionDepth {
		return fmt.Errorf("expansion of %s %q exceeds depth %d, check for include cycles", inst.kind, inst.name, maxExpansionDepth)
	}
	if exp, ok := inst.behavior.(Expander); ok {
		generated, err := exp.Expand(inst, p)
		if err != nil {
			return fmt.Errorf("expand %s %q: %w", inst.kind, inst.name, err)
		}
		for _, child := range generated {
			child.walk(func(c *Instruction) { c.generated = true })
			inst.AddChild(child)
		}
		depth++
	}
	for _, child := range inst.children {
		if err := p.expand(child, depth); err != nil {
			return err
		}
	}
	return nil
}

// CloneTopInstruction returns a fresh copy of the named top-level
// instruction, for use by expanders.
func (p *Procedure) CloneTopInstruction(name string) (*Instruction, error) {
	top := p.TopInstruction(name)
	if top == nil {
		return nil, fmt.Errorf("no top-level instruction named %q", name)
	}
	return top.clone(), nil
}

// Setup completes the preamble and sets up the workspace.
func (p *Procedure) Setup() error {
	if err := p.SetupPreamble(); err != nil {
		return err
	}
	return p.workspace.Setup()
}

// IsSetup reports whether both the preamble and the workspace are set up.
func (p *Procedure) IsSetup() bool {
	return p.IsPreambleDone() && p.workspace.IsSuccessfullySetup()
}

// Reset returns every instruction to NotExecuted. No callbacks are invoked.
func (p *Procedure) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, top := range p.instructions {
		top.walk(func(inst *Instruction) { inst.setStatus(NotExecuted) })
	}
}

// InstructionCount is the number of indexed instructions after setup.
func (p *Procedure) InstructionCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.arena)
}

// Instruction returns the instruction with the given pre-order index, or nil.
func (p *Procedure) Instruction(index int) *Instruction {
	p.mu.Lock()
	defer p.mu.Unlock()
	if index < 0 || index >= len(p.arena) {
		return nil
	}
	return p.arena[index]
}
