package breakpoint

import "github.com/oac-tree/oac-tree-gui-sub008/internal/model"

// Controller saves breakpoints of one tree, restores them onto another of
// the same shape, and tracks the breakpoint execution stopped at.
type Controller struct {
	saved   []Info
	current *model.InstructionItem
}

func NewController() *Controller { return &Controller{} }

// SaveBreakpoints records the breakpoints of proc. A hit breakpoint is saved
// as Set.
func (c *Controller) SaveBreakpoints(proc *model.ProcedureItem) {
	c.saved = Collect(proc.Instructions().Items())
	for i := range c.saved {
		if c.saved[i].Status == model.BreakpointSetAndHit {
			c.saved[i].Status = model.BreakpointSet
		}
	}
}

// RestoreBreakpoints applies the saved breakpoints to proc by position.
func (c *Controller) RestoreBreakpoints(proc *model.ProcedureItem) {
	Apply(proc.Instructions().Items(), c.saved)
}

// Saved returns the recorded breakpoints.
func (c *Controller) Saved() []Info { return c.saved }

// SetAsActiveBreakpoint marks item as the breakpoint execution stopped at.
// Only one breakpoint is hit at a time; the previous one goes back to Set.
func (c *Controller) SetAsActiveBreakpoint(item *model.InstructionItem) {
	if item == nil {
		return
	}
	if c.current != nil && c.current != item {
		c.ResetCurrentActiveBreakpoint()
	}
	if item.Breakpoint() == model.BreakpointSet {
		item.SetBreakpoint(model.BreakpointSetAndHit)
	}
	c.current = item
}

// ResetCurrentActiveBreakpoint turns the hit breakpoint back to Set. It does
// nothing when no breakpoint is hit.
func (c *Controller) ResetCurrentActiveBreakpoint() {
	if c.current == nil {
		return
	}
	if c.current.Breakpoint() == model.BreakpointSetAndHit {
		c.current.SetBreakpoint(model.BreakpointSet)
	}
	c.current = nil
}

// Current is the hit breakpoint, or nil.
func (c *Controller) Current() *model.InstructionItem { return c.current }
