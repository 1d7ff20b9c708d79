// Package breakpoint carries breakpoints across instruction trees and picks
// the row to highlight for the running instruction.
package breakpoint

import (
	"slices"

	"github.com/oac-tree/oac-tree-gui-sub008/internal/model"
)

// Info is the breakpoint of the instruction found by following Path from
// the top-level list: Path[0] is the top-level position, each further
// element a child position.
type Info struct {
	Path   []int
	Status model.BreakpointStatus
}

// Collect returns the breakpoints of items in pre-order. Instructions
// without a breakpoint are skipped.
func Collect(items []*model.InstructionItem) []Info {
	var out []Info
	var visit func(items []*model.InstructionItem, prefix []int)
	visit = func(items []*model.InstructionItem, prefix []int) {
		for i, item := range items {
			path := append(slices.Clone(prefix), i)
			if item.Breakpoint() != model.BreakpointNotSet {
				out = append(out, Info{Path: path, Status: item.Breakpoint()})
			}
			visit(item.Children(), path)
		}
	}
	visit(items, nil)
	return out
}

// Apply sets every breakpoint of infos on the instruction at its path.
// Paths that do not exist in items are skipped.
func Apply(items []*model.InstructionItem, infos []Info) {
	for _, info := range infos {
		if item := Find(items, info.Path); item != nil {
			item.SetBreakpoint(info.Status)
		}
	}
}

// Find follows path from items.
func Find(items []*model.InstructionItem, path []int) *model.InstructionItem {
	var item *model.InstructionItem
	for _, pos := range path {
		if pos < 0 || pos >= len(items) {
			return nil
		}
		item = items[pos]
		items = item.Children()
	}
	return item
}
