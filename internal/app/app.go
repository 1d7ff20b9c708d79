package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/oac-tree/oac-tree-gui-sub008/internal/ctxlog"
	"github.com/oac-tree/oac-tree-gui-sub008/internal/eventloop"
	"github.com/oac-tree/oac-tree-gui-sub008/internal/model"
	"github.com/oac-tree/oac-tree-gui-sub008/internal/registry"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW   io.Writer
	inR    io.Reader
	ctx    context.Context
	logger *slog.Logger
	config *Config

	registry   *registry.Registry
	procedures []*model.ProcedureItem

	loop       *eventloop.Loop
	jobs       *model.JobModel
	httpServer *http.Server
}

// NewApp builds the logger and the registry and loads the procedures named
// by cfg. in answers the user requests of the procedure.
func NewApp(outW io.Writer, in io.Reader, cfg *Config, modules ...registry.Module) (*App, error) {
	if in == nil {
		in = strings.NewReader("")
	}
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	reg := registry.New()
	if len(modules) == 0 {
		modules = coreModules
	}
	loaded := reg.LoadModules(ctx, modules...)
	logger.Debug("All Go modules registered.", "count", loaded)

	a := &App{
		outW:     outW,
		inR:      in,
		ctx:      ctx,
		logger:   logger,
		config:   cfg,
		registry: reg,
		loop:     eventloop.New(),
		jobs:     &model.JobModel{},
	}
	if err := a.LoadProcedures(); err != nil {
		return nil, fmt.Errorf("failed to load procedures: %w", err)
	}
	return a, nil
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Procedures returns the loaded procedures.
func (a *App) Procedures() []*model.ProcedureItem {
	return a.procedures
}

// Jobs returns the job model.
func (a *App) Jobs() *model.JobModel {
	return a.jobs
}
