package transform

import (
	"sort"

	"github.com/oac-tree/oac-tree-gui-sub008/internal/model"
	"github.com/oac-tree/oac-tree-gui-sub008/internal/sequencer"
)

// GUIBuilder creates the expanded procedure item of a set-up engine
// procedure.
type GUIBuilder struct {
	index *Index
}

func NewGUIBuilder() *GUIBuilder { return &GUIBuilder{} }

// CreateExpanded mirrors proc into a fresh procedure item. Variables are
// mirrored index for index, so the workspace can be synchronised.
func (b *GUIBuilder) CreateExpanded(proc *sequencer.Procedure) (*model.ProcedureItem, error) {
	item := model.NewProcedure(proc.Name())
	index, err := PopulateInstructionContainer(proc, item.Instructions())
	if err != nil {
		return nil, err
	}
	if err := PopulateWorkspaceItem(proc.Workspace(), item.Workspace()); err != nil {
		return nil, err
	}
	b.index = index
	return item, nil
}

// Index returns the table of the last expanded procedure.
func (b *GUIBuilder) Index() *Index { return b.index }

// InstructionItem returns the expanded item for an engine index.
func (b *GUIBuilder) InstructionItem(index int) *model.InstructionItem {
	if b.index == nil {
		return nil
	}
	return b.index.Item(index)
}

// InstructionIndex returns the engine index of an expanded item.
func (b *GUIBuilder) InstructionIndex(item *model.InstructionItem) (int, bool) {
	if b.index == nil {
		return 0, false
	}
	return b.index.IndexOf(item)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
