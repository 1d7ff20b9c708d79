package transform

import (
	"github.com/oac-tree/oac-tree-gui-sub008/internal/faults"
	"github.com/oac-tree/oac-tree-gui-sub008/internal/model"
	"github.com/oac-tree/oac-tree-gui-sub008/internal/registry"
	"github.com/oac-tree/oac-tree-gui-sub008/internal/sequencer"
)

// PopulateDomainWorkspace creates one engine variable per item in src.
// The target must be empty. Nothing is added when any variable fails.
func PopulateDomainWorkspace(reg *registry.Registry, src *model.WorkspaceItem, dst *sequencer.Workspace) error {
	if dst.Len() != 0 {
		return faults.Logic("domain workspace already holds %d variables", dst.Len())
	}
	vars := make([]*sequencer.Variable, 0, src.Len())
	seen := make(map[string]bool, src.Len())
	for _, item := range src.Variables() {
		if item.Name() == "" {
			return faults.Logic("variable %q has no name", item.ID())
		}
		if seen[item.Name()] {
			return faults.Logic("variable name %q is used twice", item.Name())
		}
		seen[item.Name()] = true
		v, err := reg.CreateVariable(item.DomainType())
		if err != nil {
			return err
		}
		for _, attr := range item.Attributes() {
			v.SetAttribute(attr.Name, attr.Value)
		}
		v.SetInitialValue(item.Value())
		vars = append(vars, v)
	}
	for i, v := range vars {
		if err := dst.AddVariable(src.Variable(i).Name(), v); err != nil {
			return err
		}
	}
	return nil
}

// PopulateWorkspaceItem mirrors the engine workspace src into dst, one item
// per variable in the same order. dst must be empty.
func PopulateWorkspaceItem(src *sequencer.Workspace, dst *model.WorkspaceItem) error {
	if dst.Len() != 0 {
		return faults.Logic("workspace item already holds %d variables", dst.Len())
	}
	for _, v := range src.Variables() {
		item := model.NewVariable(v.TypeName(), v.Name(), v.InitialValue())
		for _, name := range sortedKeys(v.Attributes()) {
			value, _ := v.Attribute(name)
			item.SetAttribute(name, value)
		}
		dst.Add(item)
	}
	return nil
}

// PopulateInstructionContainer mirrors the expanded instruction tree of src
// into dst and returns the index of the new items. dst must be empty and the
// preamble of src must be done.
func PopulateInstructionContainer(src *sequencer.Procedure, dst *model.InstructionContainer) (*Index, error) {
	if dst.Len() != 0 {
		return nil, faults.Logic("instruction container already holds %d instructions", dst.Len())
	}
	if !src.IsPreambleDone() {
		return nil, faults.Logic("procedure %q is not set up", src.Name())
	}
	index := newIndex(src.InstructionCount())
	root := src.RootInstruction()
	tops := src.Instructions()
	items := make([]*model.InstructionItem, 0, len(tops))
	for _, top := range tops {
		item, err := mirror(top, index)
		if err != nil {
			return nil, err
		}
		item.SetRoot(top == root)
		items = append(items, item)
	}
	dst.Add(items...)
	return index, nil
}

func mirror(inst *sequencer.Instruction, index *Index) (*model.InstructionItem, error) {
	item := model.NewInstructionFor(inst.Kind())
	item.SetName(inst.Name())
	for _, name := range inst.AttributeNames() {
		if name == sequencer.AttrIsRoot {
			continue
		}
		value, _ := inst.Attribute(name)
		item.SetAttribute(name, value)
	}
	if err := index.set(inst.Index(), item); err != nil {
		return nil, err
	}
	for _, child := range inst.Children() {
		c, err := mirror(child, index)
		if err != nil {
			return nil, err
		}
		item.AddChild(c)
	}
	return item, nil
}
