package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oac-tree/oac-tree-gui-sub008/internal/ctxlog"
	"github.com/oac-tree/oac-tree-gui-sub008/internal/events"
	"github.com/oac-tree/oac-tree-gui-sub008/internal/joblog"
	"github.com/oac-tree/oac-tree-gui-sub008/internal/jobsystem"
	"github.com/oac-tree/oac-tree-gui-sub008/internal/model"
	"github.com/oac-tree/oac-tree-gui-sub008/internal/monitor"
	"github.com/oac-tree/oac-tree-gui-sub008/internal/procfile"
	"github.com/oac-tree/oac-tree-gui-sub008/internal/runner"
	"github.com/oac-tree/oac-tree-gui-sub008/internal/transform"
	"github.com/oac-tree/oac-tree-gui-sub008/internal/ui"
	"golang.org/x/sync/errgroup"
)

// ErrJobFailed is returned by Run when the procedure finished with a
// failure.
var ErrJobFailed = errors.New("job failed")

const drainTimeout = 2 * time.Second

// Run executes the selected procedure as a job and prints its final state.
// It returns when the job finishes or ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	proc, err := procfile.Find(a.procedures, a.config.ProcedureName)
	if err != nil {
		return err
	}

	var store joblog.Store
	if a.config.LogDBPath != "" {
		s, err := joblog.OpenSQLite(ctx, a.config.LogDBPath)
		if err != nil {
			return err
		}
		defer s.Close()
		store = s
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	console := ui.NewConsole(a.inR, a.outW)
	sink := &runSink{app: a, console: console, cancel: cancel}
	manager, err := jobsystem.NewJobManager(ctx, a.jobs, jobsystem.Options{
		Registry: a.registry,
		Post:     a.loop.Post,
		User:     console.UserContext(),
		Sink:     sink,
		LogStore: store,
		LogLevel: parseLevel(a.config.LogLevel),
	})
	if err != nil {
		return err
	}
	sink.manager = manager

	if a.config.MonitorAddr != "" {
		server, err := monitor.NewServer(ctx, a.config.MonitorAddr, a.loop.Post, manager)
		if err != nil {
			return err
		}
		defer server.Close()
		sink.server = server
	}
	a.healthCheckServer()
	defer a.closeHealthCheckServer()

	job, err := manager.SubmitJob(proc)
	if err != nil {
		return fmt.Errorf("failed to prepare job: %w", err)
	}
	sink.jobID = job.ID()
	if err := applyBreakpoints(manager, job, a.config.Breakpoints); err != nil {
		return err
	}
	if err := manager.SetTickTimeout(job.ID(), a.config.TickTimeout); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// The loop only stops when gctx is done, which is a normal end of
		// the run whether it was cancelled or its deadline passed.
		if err := a.loop.Run(gctx); err != nil && gctx.Err() == nil {
			return err
		}
		return nil
	})
	if sink.server != nil {
		g.Go(func() error { return sink.server.Serve(gctx) })
	}

	a.loop.Post(func() {
		a.logger.Info("Starting job.", "job_id", job.ID(), "procedure", proc.Name(), "step", a.config.StepMode)
		start := manager.Start
		if a.config.StepMode {
			start = manager.Step
		}
		if err := start(job.ID()); err != nil {
			sink.fail(err)
		}
	})
	waitErr := g.Wait()

	if !job.Status().IsFinished() {
		a.logger.Info("Run interrupted, stopping job.", "job_id", job.ID())
		if err := manager.Stop(job.ID()); err != nil {
			a.logger.Warn("Stop failed.", "error", err)
		}
	}
	a.loop.WaitFor(func() bool { return job.Status().IsFinished() }, drainTimeout)
	manager.Close()

	fmt.Fprint(a.outW, "\n"+ui.JobSummary(job))
	a.logger.Debug("App.Run method finished.", "status", job.Status().String())

	switch {
	case sink.err != nil:
		return sink.err
	case waitErr != nil:
		return waitErr
	case job.Status() == runner.Failed:
		return ErrJobFailed
	}
	return nil
}

// applyBreakpoints sets a breakpoint on every expanded instruction with one
// of the given names.
func applyBreakpoints(manager *jobsystem.JobManager, job *model.JobItem, names []string) error {
	for _, name := range names {
		found := false
		var err error
		model.Walk(job.ExpandedProcedure().Instructions().Items(), func(item *model.InstructionItem) {
			if item.Name() != name || item.Breakpoint() != model.BreakpointNotSet || err != nil {
				return
			}
			found = true
			err = manager.ToggleBreakpoint(job.ID(), item)
		})
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("breakpoint: no instruction named %q", name)
		}
	}
	return nil
}

// runSink forwards job updates to the monitor and drives the console: a
// paused job waits for a step, continue or stop answer, and a finished job
// ends the run. It is called on the event loop.
type runSink struct {
	app     *App
	console *ui.Console
	cancel  context.CancelFunc
	manager *jobsystem.JobManager
	server  *monitor.Server
	jobID   string
	err     error
}

func (s *runSink) PublishJobInfo(info transform.JobInfo) {
	if s.server != nil {
		s.server.PublishJobInfo(info)
	}
}

func (s *runSink) PublishEvent(jobID string, ev events.Event) {
	if s.server != nil {
		s.server.PublishEvent(jobID, ev)
	}
	st, ok := ev.(events.JobStateChanged)
	if !ok || jobID != s.jobID {
		return
	}
	switch {
	case st.Status == runner.Paused:
		s.app.loop.Post(s.prompt)
	case st.Status.IsFinished():
		s.app.logger.Info("Job finished.", "job_id", jobID, "status", st.Status.String())
		s.cancel()
	}
}

func (s *runSink) prompt() {
	job := s.app.jobs.Job(s.jobID)
	if job == nil || job.Status() != runner.Paused {
		return
	}
	answer, ok := s.console.Line("paused: [enter] step, [c]ontinue, [q]uit")
	if !ok {
		answer = "c"
	}
	var err error
	switch strings.ToLower(answer) {
	case "", "s", "step":
		err = s.manager.Step(s.jobID)
	case "c", "continue":
		err = s.manager.Start(s.jobID)
	case "q", "quit":
		err = s.manager.Stop(s.jobID)
	default:
		fmt.Fprintln(s.app.outW, ui.WarnMsg("unknown answer %q", answer))
		s.app.loop.Post(s.prompt)
		return
	}
	if err != nil {
		s.fail(err)
	}
}

func (s *runSink) fail(err error) {
	if s.err == nil {
		s.err = err
	}
	s.cancel()
}
