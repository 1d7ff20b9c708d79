package breakpoint

import "github.com/oac-tree/oac-tree-gui-sub008/internal/model"

// TreeView reports the expansion state of rows in an instruction tree view.
type TreeView interface {
	IsExpanded(item *model.InstructionItem) bool
}

// Collapsed is a TreeView in which every row is expanded unless its id is
// in the set.
type Collapsed map[string]bool

func (c Collapsed) IsExpanded(item *model.InstructionItem) bool { return !c[item.ID()] }

// VisibleAncestor returns item when all its ancestors are expanded, and
// otherwise the outermost collapsed ancestor, which is the closest row a
// view actually shows.
func VisibleAncestor(item *model.InstructionItem, view TreeView) *model.InstructionItem {
	visible := item
	for p := item.Parent(); p != nil; p = p.Parent() {
		if !view.IsExpanded(p) {
			visible = p
		}
	}
	return visible
}

// SelectionController selects the row of the running instruction.
type SelectionController struct {
	view     TreeView
	onSelect func(*model.InstructionItem)
	selected *model.InstructionItem
}

func NewSelectionController(view TreeView, onSelect func(*model.InstructionItem)) *SelectionController {
	return &SelectionController{view: view, onSelect: onSelect}
}

// OnActiveInstruction selects the visible row for item. The expansion state
// is read on every call since it may change between calls.
func (c *SelectionController) OnActiveInstruction(item *model.InstructionItem) {
	if item == nil {
		return
	}
	c.selected = VisibleAncestor(item, c.view)
	if c.onSelect != nil {
		c.onSelect(c.selected)
	}
}

// Selected is the last selected row.
func (c *SelectionController) Selected() *model.InstructionItem { return c.selected }
