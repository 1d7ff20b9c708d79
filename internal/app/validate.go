package app

import (
	"errors"
	"fmt"

	"github.com/oac-tree/oac-tree-gui-sub008/internal/faults"
	"github.com/oac-tree/oac-tree-gui-sub008/internal/transform"
	"github.com/oac-tree/oac-tree-gui-sub008/internal/ui"
)

// Validate builds and sets up every loaded procedure without running it
// and prints the expanded trees. It returns the joined errors of the
// procedures that failed.
func (a *App) Validate() error {
	var errs []error
	for _, proc := range a.procedures {
		domain, err := transform.NewDomainBuilder(a.registry).CreateProcedure(proc)
		if err == nil {
			if serr := domain.SetupPreamble(); serr != nil {
				err = faults.SetupFailed(serr)
			}
		}
		if err != nil {
			fmt.Fprintln(a.outW, ui.ErrorMsg("%s: %v", proc.Name(), err))
			errs = append(errs, fmt.Errorf("procedure %q: %w", proc.Name(), err))
			continue
		}
		expanded, err := transform.NewGUIBuilder().CreateExpanded(domain)
		if err != nil {
			errs = append(errs, fmt.Errorf("procedure %q: %w", proc.Name(), err))
			continue
		}
		fmt.Fprintln(a.outW, ui.SuccessMsg("%s: %d instructions, %d variables", proc.Name(), domain.InstructionCount(), domain.Workspace().Len()))
		fmt.Fprint(a.outW, ui.Tree(expanded))
	}
	return errors.Join(errs...)
}
