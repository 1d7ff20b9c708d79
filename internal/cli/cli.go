package cli

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/oac-tree/oac-tree-gui-sub008/internal/app"
	"github.com/spf13/cobra"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

type globalFlags struct {
	logLevel  string
	logFormat string
}

// Execute runs the command line described by args. Usage errors are
// returned as an ExitError with code 2, a failed job as code 1.
func Execute(ctx context.Context, outW io.Writer, in io.Reader, args []string) error {
	root := NewRootCmd(outW, in)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if err == nil {
		return nil
	}
	var exitErr *ExitError
	switch {
	case errors.As(err, &exitErr):
		return exitErr
	case errors.Is(err, app.ErrJobFailed):
		return &ExitError{Code: 1, Message: err.Error()}
	case isUsageError(err):
		return &ExitError{Code: 2, Message: err.Error()}
	}
	return err
}

// NewRootCmd builds the oactree command tree.
func NewRootCmd(outW io.Writer, in io.Reader) *cobra.Command {
	var gf globalFlags

	root := &cobra.Command{
		Use:           "oactree",
		Short:         "Run and monitor oac-tree procedures",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			gf.logFormat = strings.ToLower(gf.logFormat)
			gf.logLevel = strings.ToLower(gf.logLevel)
			return nil
		},
	}
	root.SetOut(outW)
	root.SetErr(outW)
	root.SetIn(in)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &ExitError{Code: 2, Message: err.Error()}
	})
	root.PersistentFlags().StringVar(&gf.logLevel, "log-level", "info", "Logging level: 'debug', 'info', 'warn' or 'error'")
	root.PersistentFlags().StringVar(&gf.logFormat, "log-format", "text", "Log output format: 'text' or 'json'")

	root.AddCommand(runCmd(&gf))
	root.AddCommand(validateCmd(&gf))
	root.AddCommand(attachCmd(&gf))
	return root
}

func runCmd(gf *globalFlags) *cobra.Command {
	var (
		procedure   string
		step        bool
		tick        time.Duration
		breakpoints []string
		monitorAddr string
		logDB       string
		healthPort  int
	)

	cmd := &cobra.Command{
		Use:   "run FILE...",
		Short: "Execute a procedure as a job",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.NewConfig(app.Config{
				ProcedurePaths:  args,
				ProcedureName:   procedure,
				LogFormat:       gf.logFormat,
				LogLevel:        gf.logLevel,
				TickTimeout:     tick,
				StepMode:        step,
				Breakpoints:     breakpoints,
				MonitorAddr:     monitorAddr,
				HealthcheckPort: healthPort,
				LogDBPath:       logDB,
			})
			if err != nil {
				return &ExitError{Code: 2, Message: err.Error()}
			}
			a, err := app.NewApp(cmd.OutOrStdout(), cmd.InOrStdin(), cfg)
			if err != nil {
				return err
			}
			return a.Run(cmd.Context())
		},
	}

	f := cmd.Flags()
	f.StringVarP(&procedure, "procedure", "p", "", "Procedure to run when the files define several")
	f.BoolVar(&step, "step", false, "Start paused and advance one instruction per prompt")
	f.DurationVar(&tick, "tick", 0, "Delay between instruction ticks")
	f.StringSliceVarP(&breakpoints, "breakpoint", "b", nil, "Set a breakpoint on the named instruction (repeatable)")
	f.StringVar(&monitorAddr, "monitor-addr", "", "Serve job state over socket.io on this address")
	f.StringVar(&logDB, "log-db", "", "Persist the job log to this SQLite file")
	f.IntVar(&healthPort, "healthcheck-port", 0, "Port for the HTTP health check server. 0 is disabled.")
	return cmd
}

func validateCmd(gf *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "validate FILE...",
		Short: "Load and set up procedures without running them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.NewConfig(app.Config{
				ProcedurePaths: args,
				LogFormat:      gf.logFormat,
				LogLevel:       gf.logLevel,
			})
			if err != nil {
				return &ExitError{Code: 2, Message: err.Error()}
			}
			a, err := app.NewApp(cmd.OutOrStdout(), nil, cfg)
			if err != nil {
				return err
			}
			if err := a.Validate(); err != nil {
				return &ExitError{Code: 1, Message: err.Error()}
			}
			return nil
		},
	}
}

func attachCmd(gf *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "attach URL",
		Short: "Mirror the jobs of a running monitor",
		Long: "Connects to a monitor started with 'run --monitor-addr' and prints job state.\n" +
			"Type start, pause, step or stop to control the last announced job.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Attach(cmd.Context(), cmd.OutOrStdout(), cmd.InOrStdin(), args[0], gf.logLevel, gf.logFormat)
		},
	}
}

func isUsageError(err error) bool {
	msg := err.Error()
	return strings.HasPrefix(msg, "unknown command") ||
		strings.HasPrefix(msg, "accepts ") ||
		strings.HasPrefix(msg, "requires at least")
}
