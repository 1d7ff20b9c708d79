package testutil

import (
	"github.com/oac-tree/oac-tree-gui-sub008/internal/model"
	"github.com/zclconf/go-cty/cty"
)

// TwoSequences builds Sequence0(Wait0), Sequence1(Wait1) and returns the
// procedure with its four instructions in pre-order.
func TwoSequences() (*model.ProcedureItem, []*model.InstructionItem) {
	proc := model.NewProcedure("two-sequences")
	var items []*model.InstructionItem
	for i, name := range []string{"0", "1"} {
		seq := model.NewInstruction(model.KindSequence)
		seq.SetName("Sequence" + name)
		wait := model.NewInstruction(model.KindWait)
		wait.SetName("Wait" + name)
		seq.AddChild(wait)
		if i == 0 {
			seq.SetRoot(true)
		}
		proc.Instructions().Add(seq)
		items = append(items, seq, wait)
	}
	return proc, items
}

// SingleVariable builds a procedure whose root waits for timeout seconds
// and whose workspace holds one local variable "var0" with value.
func SingleVariable(value cty.Value, timeout string) *model.ProcedureItem {
	proc := model.NewProcedure("single-variable")
	wait := model.NewInstruction(model.KindWait)
	wait.SetName("wait")
	wait.SetAttribute("timeout", timeout)
	proc.Instructions().Add(wait)
	proc.Workspace().Add(model.NewVariable("Local", "var0", value))
	return proc
}
