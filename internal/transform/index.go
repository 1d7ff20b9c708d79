package transform

import (
	"github.com/oac-tree/oac-tree-gui-sub008/internal/faults"
	"github.com/oac-tree/oac-tree-gui-sub008/internal/model"
)

// Index maps engine instruction indices to the items of one tree, and back.
// An index may have no item (instructions generated by expansion have no
// authored counterpart).
type Index struct {
	items []*model.InstructionItem
	byID  map[string]int
}

func newIndex(size int) *Index {
	return &Index{items: make([]*model.InstructionItem, size), byID: make(map[string]int, size)}
}

func (x *Index) set(index int, item *model.InstructionItem) error {
	if index < 0 || index >= len(x.items) {
		return faults.Logic("instruction index %d out of range [0,%d)", index, len(x.items))
	}
	if x.items[index] != nil {
		return faults.Logic("duplicate instruction index %d", index)
	}
	if _, dup := x.byID[item.ID()]; dup {
		return faults.Logic("instruction %q indexed twice", item.ID())
	}
	x.items[index] = item
	x.byID[item.ID()] = index
	return nil
}

// Len is the number of engine instructions covered.
func (x *Index) Len() int { return len(x.items) }

// Item returns the item at index, or nil.
func (x *Index) Item(index int) *model.InstructionItem {
	if index < 0 || index >= len(x.items) {
		return nil
	}
	return x.items[index]
}

// IndexOf returns the engine index of item.
func (x *Index) IndexOf(item *model.InstructionItem) (int, bool) {
	if item == nil {
		return 0, false
	}
	i, ok := x.byID[item.ID()]
	return i, ok
}
