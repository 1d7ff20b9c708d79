package jobsystem

import (
	"context"
	"log/slog"
	"time"

	"github.com/oac-tree/oac-tree-gui-sub008/internal/breakpoint"
	"github.com/oac-tree/oac-tree-gui-sub008/internal/ctxlog"
	"github.com/oac-tree/oac-tree-gui-sub008/internal/events"
	"github.com/oac-tree/oac-tree-gui-sub008/internal/faults"
	"github.com/oac-tree/oac-tree-gui-sub008/internal/flow"
	"github.com/oac-tree/oac-tree-gui-sub008/internal/model"
	"github.com/oac-tree/oac-tree-gui-sub008/internal/registry"
	"github.com/oac-tree/oac-tree-gui-sub008/internal/runner"
	"github.com/oac-tree/oac-tree-gui-sub008/internal/sequencer"
	"github.com/oac-tree/oac-tree-gui-sub008/internal/transform"
	"github.com/oac-tree/oac-tree-gui-sub008/internal/workspacesync"
)

// HandlerConfig holds the collaborators of a JobHandler.
type HandlerConfig struct {
	Registry *registry.Registry
	// Post schedules a function on the event loop.
	Post func(func())
	User UserContext
	// View is the expansion state used to pick the row of the running
	// instruction. Nil means every row is visible.
	View breakpoint.TreeView
	// OnSelect receives the row to highlight.
	OnSelect func(*model.InstructionItem)
	// OnEvent observes every event after it was applied to the items.
	OnEvent func(events.Event)
}

// JobHandler owns everything one job needs to run. Except for the
// observer, all its methods are called on the event loop.
type JobHandler struct {
	ctx  context.Context
	job  *model.JobItem
	proc *model.ProcedureItem
	cfg  HandlerConfig

	breakpoints *breakpoint.Controller
	selection   *breakpoint.SelectionController

	domainBuilder *transform.DomainBuilder
	guiBuilder    *transform.GUIBuilder
	domain        *sequencer.Procedure
	dispatcher    *events.Dispatcher
	flow          *flow.Controller
	observer      *Observer
	runner        *sequencer.Runner
	controller    *runner.Controller
	sync          *workspacesync.Synchronizer
}

// NewJobHandler creates the handler of job, which runs proc. The logger of
// ctx receives the messages of the procedure.
func NewJobHandler(ctx context.Context, job *model.JobItem, proc *model.ProcedureItem, cfg HandlerConfig) (*JobHandler, error) {
	if job == nil || proc == nil {
		return nil, faults.Logic("job handler needs a job and its procedure")
	}
	if cfg.Registry == nil {
		return nil, faults.Logic("job handler needs a registry")
	}
	if cfg.Post == nil {
		return nil, faults.Logic("job handler needs an event loop")
	}
	view := cfg.View
	if view == nil {
		view = breakpoint.Collapsed{}
	}
	h := &JobHandler{ctx: ctx, job: job, proc: proc, cfg: cfg, breakpoints: breakpoint.NewController()}
	h.selection = breakpoint.NewSelectionController(view, cfg.OnSelect)
	return h, nil
}

func (h *JobHandler) Job() *model.JobItem { return h.job }

func (h *JobHandler) logger() *slog.Logger { return ctxlog.FromContext(h.ctx) }

// PrepareJob builds a fresh domain procedure and expanded procedure. The
// breakpoints of the previous expansion, or of the authored procedure on
// the first call, carry over.
func (h *JobHandler) PrepareJob() error {
	if h.IsRunning() {
		return faults.Runtime("job %q is running", h.job.ID())
	}
	if prev := h.job.ExpandedProcedure(); prev != nil {
		h.breakpoints.SaveBreakpoints(prev)
	} else {
		h.breakpoints.SaveBreakpoints(h.proc)
	}
	h.teardown()

	h.domainBuilder = transform.NewDomainBuilder(h.cfg.Registry)
	domain, err := h.domainBuilder.CreateProcedure(h.proc)
	if err != nil {
		return err
	}
	if err := domain.SetupPreamble(); err != nil {
		return faults.SetupFailed(err)
	}
	if _, err := h.domainBuilder.Index(domain); err != nil {
		return err
	}
	h.guiBuilder = transform.NewGUIBuilder()
	expanded, err := h.guiBuilder.CreateExpanded(domain)
	if err != nil {
		return err
	}
	h.breakpoints.RestoreBreakpoints(expanded)

	h.dispatcher = events.NewDispatcher(h.cfg.Post, events.Handlers{
		InstructionState:  h.onInstructionState,
		JobState:          h.onJobState,
		ActiveInstruction: h.onActiveInstruction,
		BreakpointHit:     h.onBreakpointHit,
		Any:               h.onAny,
	})
	h.flow = flow.New()
	h.flow.SetSleepTime(h.job.TickTimeout())
	dispatcher := h.dispatcher
	h.flow.OnWaitingChange(func(waiting bool) {
		if waiting {
			dispatcher.Push(events.JobStateChanged{Status: runner.Paused})
		} else {
			dispatcher.Push(events.JobStateChanged{Status: runner.Running})
		}
	})
	h.observer = NewObserver(dispatcher.Push, h.flow, h.cfg.Post, h.cfg.User, h.logger())
	h.runner = sequencer.NewRunner(h.observer)
	h.runner.SetProcedure(domain)

	if domain.Workspace().Len() > 0 {
		ws, err := workspacesync.New(h.ctx, domain.Workspace(), expanded.Workspace(), h.cfg.Post)
		if err != nil {
			return err
		}
		ws.OnUpdate(func(ev events.VariableUpdated) { h.onAny(ev) })
		if err := ws.Start(); err != nil {
			ws.Shutdown()
			return err
		}
		h.sync = ws
	}

	model.Walk(expanded.Instructions().Items(), func(item *model.InstructionItem) {
		if item.Breakpoint() == model.BreakpointSet {
			if index, ok := h.guiBuilder.InstructionIndex(item); ok {
				h.runner.SetBreakpoint(index)
			}
		}
	})

	h.controller = runner.NewController(h.runner, h.flow)
	h.controller.OnStatusChange(func(st runner.Status) {
		dispatcher.Push(events.JobStateChanged{Status: st})
	})
	h.controller.AddInterrupter(h.observer.CancelRequests)

	h.domain = domain
	h.job.SetExpandedProcedure(expanded)
	h.job.SetStatus(runner.Idle)
	h.logger().Debug("Job prepared.", "procedure", h.proc.Name(), "instructions", domain.InstructionCount())
	return nil
}

func (h *JobHandler) teardown() {
	if h.controller != nil {
		h.controller.Close()
	}
	if h.sync != nil {
		h.sync.Shutdown()
		h.sync = nil
	}
	if h.dispatcher != nil {
		h.dispatcher.Close()
	}
}

// Start runs the job, or resumes it when it is paused.
func (h *JobHandler) Start() error {
	if h.controller == nil {
		return faults.Logic("job %q is not prepared", h.job.ID())
	}
	if h.controller.IsBusy() {
		h.breakpoints.ResetCurrentActiveBreakpoint()
		h.controller.SetWaitingMode(flow.Proceed)
		return nil
	}
	return h.execute()
}

func (h *JobHandler) execute() error {
	h.breakpoints.ResetCurrentActiveBreakpoint()
	model.Walk(h.job.ExpandedProcedure().Instructions().Items(), func(item *model.InstructionItem) {
		item.SetStatus(sequencer.NotExecuted)
	})
	h.observer.ReopenRequests()
	if err := h.controller.ExecuteProcedure(true); err != nil {
		h.logger().Error("Job setup failed.", "error", err)
		return err
	}
	return nil
}

// Pause holds the job before its next instruction.
func (h *JobHandler) Pause() {
	if h.controller != nil {
		h.controller.SetWaitingMode(flow.WaitForRelease)
	}
}

// Step runs one instruction. An idle job is started in step mode.
func (h *JobHandler) Step() error {
	if h.controller == nil {
		return faults.Logic("job %q is not prepared", h.job.ID())
	}
	h.controller.SetWaitingMode(flow.WaitForRelease)
	if !h.controller.IsBusy() {
		if err := h.execute(); err != nil {
			return err
		}
	}
	h.breakpoints.ResetCurrentActiveBreakpoint()
	h.controller.Step()
	return nil
}

// Stop cancels the job and waits for its worker to exit.
func (h *JobHandler) Stop() {
	if h.controller != nil {
		h.controller.Terminate()
	}
}

// SetTickTimeout sets the delay between instructions.
func (h *JobHandler) SetTickTimeout(d time.Duration) {
	h.job.SetTickTimeout(d)
	if h.controller != nil {
		h.controller.SetSleepTime(d)
	}
}

// SetStepMode makes the next Start wait before every instruction.
func (h *JobHandler) SetStepMode(step bool) {
	if h.controller == nil {
		return
	}
	if step {
		h.controller.SetWaitingMode(flow.WaitForRelease)
	} else {
		h.controller.SetWaitingMode(flow.Proceed)
	}
}

// ToggleBreakpoint cycles the breakpoint of an expanded instruction and
// updates the runner.
func (h *JobHandler) ToggleBreakpoint(item *model.InstructionItem) error {
	if h.guiBuilder == nil {
		return faults.Logic("job %q is not prepared", h.job.ID())
	}
	index, ok := h.guiBuilder.InstructionIndex(item)
	if !ok {
		return faults.Logic("instruction %q does not belong to job %q", item.Name(), h.job.ID())
	}
	if h.breakpoints.Current() == item {
		h.breakpoints.ResetCurrentActiveBreakpoint()
	}
	next := model.ToggleBreakpoint(item.Breakpoint())
	item.SetBreakpoint(next)
	if next == model.BreakpointSet {
		h.runner.SetBreakpoint(index)
	} else {
		h.runner.RemoveBreakpoint(index)
	}
	return nil
}

// IsRunning reports whether the job's worker is busy.
func (h *JobHandler) IsRunning() bool {
	return h.controller != nil && h.controller.IsBusy()
}

// Status is the status of the runner, which may be ahead of the job item.
func (h *JobHandler) Status() runner.Status {
	if h.controller == nil {
		return runner.Idle
	}
	return h.controller.Status()
}

// Done is closed when the current run's worker exits.
func (h *JobHandler) Done() <-chan struct{} {
	if h.controller == nil {
		closed := make(chan struct{})
		close(closed)
		return closed
	}
	return h.controller.Done()
}

// InstructionItem returns the expanded item of an engine index.
func (h *JobHandler) InstructionItem(index int) *model.InstructionItem {
	if h.guiBuilder == nil {
		return nil
	}
	return h.guiBuilder.InstructionItem(index)
}

// AuthoredItem returns the authored item an engine index was built from,
// or nil for generated instructions.
func (h *JobHandler) AuthoredItem(index int) *model.InstructionItem {
	if h.domainBuilder == nil {
		return nil
	}
	return h.domainBuilder.InstructionItem(index)
}

// PendingRequests is the number of unanswered user requests.
func (h *JobHandler) PendingRequests() int {
	if h.observer == nil {
		return 0
	}
	return h.observer.PendingRequests()
}

// Close stops the job and releases the engine resources.
func (h *JobHandler) Close() {
	h.teardown()
	h.controller = nil
}

func (h *JobHandler) onInstructionState(ev events.InstructionStateUpdated) {
	if item := h.InstructionItem(ev.Index); item != nil {
		item.SetStatus(ev.Status)
	}
}

func (h *JobHandler) onActiveInstruction(ev events.ActiveInstructionChanged) {
	h.selection.OnActiveInstruction(h.InstructionItem(ev.Index))
}

func (h *JobHandler) onJobState(ev events.JobStateChanged) {
	// Pause and resume reports can trail the end of a run.
	if (ev.Status == runner.Paused || ev.Status == runner.Running) && !h.IsRunning() {
		return
	}
	h.job.SetStatus(ev.Status)
	if ev.Status.IsFinished() {
		h.breakpoints.ResetCurrentActiveBreakpoint()
	}
}

func (h *JobHandler) onBreakpointHit(ev events.BreakpointHit) {
	item := h.InstructionItem(ev.Index)
	if item == nil {
		return
	}
	h.breakpoints.SetAsActiveBreakpoint(item)
	h.logger().Info("Breakpoint hit.", "instruction", item.Name(), "index", ev.Index)
}

func (h *JobHandler) onAny(ev events.Event) {
	if h.cfg.OnEvent != nil {
		h.cfg.OnEvent(ev)
	}
}
