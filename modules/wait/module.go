package wait

import (
	"fmt"
	"strconv"
	"time"

	"github.com/oac-tree/oac-tree-gui-sub008/internal/registry"
	"github.com/oac-tree/oac-tree-gui-sub008/internal/sequencer"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

func (m *Module) Name() string { return "wait" }

// Register registers the Wait instruction.
func (m *Module) Register(r *registry.Registry) error {
	r.RegisterInstruction("Wait", func() sequencer.Behavior { return &Wait{} })
	return nil
}

// Wait succeeds after "timeout" seconds, or fails when the runner halts
// first.
type Wait struct {
	timeout time.Duration
}

func (w *Wait) Setup(inst *sequencer.Instruction, _ *sequencer.Procedure) error {
	v, ok := inst.Attribute("timeout")
	if !ok || v == "" {
		return nil
	}
	seconds, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("Wait %q: invalid timeout %q: %w", inst.Name(), v, err)
	}
	if seconds < 0 {
		return fmt.Errorf("Wait %q: timeout must not be negative", inst.Name())
	}
	w.timeout = time.Duration(seconds * float64(time.Second))
	return nil
}

func (w *Wait) Execute(ec *sequencer.ExecContext, _ *sequencer.Instruction) sequencer.Status {
	if ec.Wait(w.timeout) {
		return sequencer.Success
	}
	return sequencer.Failure
}
