package transform

import (
	"strconv"

	"github.com/oac-tree/oac-tree-gui-sub008/internal/faults"
	"github.com/oac-tree/oac-tree-gui-sub008/internal/model"
	"github.com/oac-tree/oac-tree-gui-sub008/internal/registry"
	"github.com/oac-tree/oac-tree-gui-sub008/internal/sequencer"
)

// DomainBuilder creates engine procedures from authored ones and remembers
// which engine instruction came from which item.
type DomainBuilder struct {
	reg   *registry.Registry
	byTag map[string]*model.InstructionItem
	index *Index
}

func NewDomainBuilder(reg *registry.Registry) *DomainBuilder {
	return &DomainBuilder{reg: reg, byTag: make(map[string]*model.InstructionItem)}
}

// CreateProcedure builds the engine procedure for item. Each engine
// instruction is tagged with the id of the item it was made from.
func (b *DomainBuilder) CreateProcedure(item *model.ProcedureItem) (*sequencer.Procedure, error) {
	if b.reg == nil {
		return nil, faults.Logic("domain builder has no registry")
	}
	if len(b.byTag) != 0 {
		return nil, faults.Logic("domain builder was already used for another procedure")
	}
	proc := sequencer.NewProcedure(item.Name())
	for _, top := range item.Instructions().Items() {
		inst, err := b.createInstruction(top)
		if err != nil {
			return nil, err
		}
		proc.AddInstruction(inst)
	}
	if err := PopulateDomainWorkspace(b.reg, item.Workspace(), proc.Workspace()); err != nil {
		return nil, err
	}
	return proc, nil
}

func (b *DomainBuilder) createInstruction(item *model.InstructionItem) (*sequencer.Instruction, error) {
	if _, dup := b.byTag[item.ID()]; dup {
		return nil, faults.Logic("instruction id %q is used twice", item.ID())
	}
	inst, err := b.reg.CreateInstruction(item.DomainType())
	if err != nil {
		return nil, err
	}
	inst.SetName(item.Name())
	inst.SetTag(item.ID())
	for _, attr := range item.Attributes() {
		if attr.Value != "" {
			inst.SetAttribute(attr.Name, attr.Value)
		}
	}
	if item.IsRoot() {
		inst.SetAttribute(sequencer.AttrIsRoot, strconv.FormatBool(true))
	}
	b.byTag[item.ID()] = item

	for _, child := range item.Children() {
		c, err := b.createInstruction(child)
		if err != nil {
			return nil, err
		}
		inst.AddChild(c)
	}
	return inst, nil
}

// Index builds the index-to-item table of proc. The procedure preamble must
// be done so that every instruction has its final index.
func (b *DomainBuilder) Index(proc *sequencer.Procedure) (*Index, error) {
	if !proc.IsPreambleDone() {
		return nil, faults.Logic("procedure %q is not set up", proc.Name())
	}
	index := newIndex(proc.InstructionCount())
	for i := 0; i < index.Len(); i++ {
		inst := proc.Instruction(i)
		if inst.Generated() || inst.Tag() == "" {
			continue
		}
		item, ok := b.byTag[inst.Tag()]
		if !ok {
			return nil, faults.Logic("instruction %q has an unknown tag", inst.Name())
		}
		if err := index.set(i, item); err != nil {
			return nil, err
		}
	}
	b.index = index
	return index, nil
}

// InstructionItem returns the authored item behind the engine instruction
// at index, or nil for generated instructions and before Index ran.
func (b *DomainBuilder) InstructionItem(index int) *model.InstructionItem {
	if b.index == nil {
		return nil
	}
	return b.index.Item(index)
}

// InstructionIndex returns the engine index of an authored item.
func (b *DomainBuilder) InstructionIndex(item *model.InstructionItem) (int, bool) {
	if b.index == nil {
		return 0, false
	}
	return b.index.IndexOf(item)
}
