package app

import (
	"github.com/oac-tree/oac-tree-gui-sub008/internal/ctxlog"
	"github.com/oac-tree/oac-tree-gui-sub008/internal/procfile"
)

// LoadProcedures reads every procedure found in the configured paths.
func (a *App) LoadProcedures() error {
	logger := ctxlog.FromContext(a.ctx)
	logger.Debug("Loading procedures...", "paths", a.config.ProcedurePaths)

	procs, err := procfile.NewLoader().Load(a.ctx, a.config.ProcedurePaths...)
	if err != nil {
		return err
	}
	a.procedures = procs
	logger.Info("Procedures loaded successfully.", "procedures_found", len(procs))
	return nil
}
