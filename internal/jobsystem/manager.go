package jobsystem

import (
	"context"
	"log/slog"
	"time"

	"github.com/oac-tree/oac-tree-gui-sub008/internal/breakpoint"
	"github.com/oac-tree/oac-tree-gui-sub008/internal/ctxlog"
	"github.com/oac-tree/oac-tree-gui-sub008/internal/events"
	"github.com/oac-tree/oac-tree-gui-sub008/internal/faults"
	"github.com/oac-tree/oac-tree-gui-sub008/internal/joblog"
	"github.com/oac-tree/oac-tree-gui-sub008/internal/model"
	"github.com/oac-tree/oac-tree-gui-sub008/internal/registry"
	"github.com/oac-tree/oac-tree-gui-sub008/internal/transform"
	slogmulti "github.com/samber/slog-multi"
)

// EventSink receives what a remote monitor needs to mirror the jobs.
type EventSink interface {
	PublishJobInfo(info transform.JobInfo)
	PublishEvent(jobID string, ev events.Event)
}

// Options configures a JobManager.
type Options struct {
	Registry *registry.Registry
	// Post schedules a function on the event loop that owns the job model.
	Post func(func())
	User UserContext
	// Sink is optional.
	Sink EventSink
	// LogStore persists the job logs. Optional.
	LogStore joblog.Store
	LogLevel slog.Leveler
	View     breakpoint.TreeView
	OnSelect func(*model.InstructionItem)
}

type managedJob struct {
	handler *JobHandler
	proc    *model.ProcedureItem
	log     *joblog.Log
}

// JobManager owns the handlers of the jobs in a job model. All methods must
// be called on the event loop.
type JobManager struct {
	ctx    context.Context
	jobs   *model.JobModel
	opts   Options
	byID   map[string]*managedJob
	active string
}

func NewJobManager(ctx context.Context, jobs *model.JobModel, opts Options) (*JobManager, error) {
	if jobs == nil {
		return nil, faults.Logic("job manager needs a job model")
	}
	if opts.Registry == nil {
		return nil, faults.Logic("job manager needs a registry")
	}
	if opts.Post == nil {
		return nil, faults.Logic("job manager needs an event loop")
	}
	return &JobManager{ctx: ctx, jobs: jobs, opts: opts, byID: make(map[string]*managedJob)}, nil
}

// SubmitJob creates a job for proc, prepares it and makes it the active
// job. A job that fails to prepare is not added.
func (m *JobManager) SubmitJob(proc *model.ProcedureItem) (*model.JobItem, error) {
	if proc == nil {
		return nil, faults.Logic("no procedure to submit")
	}
	job := model.NewJob(proc)
	jl := joblog.New(m.opts.LogLevel, m.opts.LogStore)
	base := ctxlog.FromContext(m.ctx)
	ctx := ctxlog.WithLogger(m.ctx, slog.New(slogmulti.Fanout(base.Handler(), jl)))
	ctx = ctxlog.WithJob(ctx, job.ID())

	jobID := job.ID()
	handler, err := NewJobHandler(ctx, job, proc, HandlerConfig{
		Registry: m.opts.Registry,
		Post:     m.opts.Post,
		User:     m.opts.User,
		View:     m.opts.View,
		OnSelect: m.opts.OnSelect,
		OnEvent:  func(ev events.Event) { m.publishEvent(jobID, ev) },
	})
	if err != nil {
		return nil, err
	}
	if err := handler.PrepareJob(); err != nil {
		handler.Close()
		return nil, err
	}
	m.jobs.Add(job)
	m.byID[jobID] = &managedJob{handler: handler, proc: proc, log: jl}
	m.active = jobID
	ctxlog.FromContext(ctx).Info("Job submitted.", "procedure", proc.Name())
	m.publishInfo(handler)
	return job, nil
}

func (m *JobManager) lookup(id string) (*managedJob, error) {
	mj, ok := m.byID[id]
	if !ok {
		return nil, faults.Logic("unknown job %q", id)
	}
	return mj, nil
}

// Handler returns the handler of a job.
func (m *JobManager) Handler(id string) (*JobHandler, error) {
	mj, err := m.lookup(id)
	if err != nil {
		return nil, err
	}
	return mj.handler, nil
}

// Log returns the log of a job.
func (m *JobManager) Log(id string) (*joblog.Log, error) {
	mj, err := m.lookup(id)
	if err != nil {
		return nil, err
	}
	return mj.log, nil
}

func (m *JobManager) Start(id string) error {
	mj, err := m.lookup(id)
	if err != nil {
		return err
	}
	return mj.handler.Start()
}

func (m *JobManager) Pause(id string) error {
	mj, err := m.lookup(id)
	if err != nil {
		return err
	}
	mj.handler.Pause()
	return nil
}

func (m *JobManager) Step(id string) error {
	mj, err := m.lookup(id)
	if err != nil {
		return err
	}
	return mj.handler.Step()
}

// Stop cancels a job and waits for its worker. Stopping an idle job does
// nothing.
func (m *JobManager) Stop(id string) error {
	mj, err := m.lookup(id)
	if err != nil {
		return err
	}
	mj.handler.Stop()
	return nil
}

// RegenerateJob rebuilds the expanded procedure of a job from its authored
// procedure, keeping the breakpoints.
func (m *JobManager) RegenerateJob(id string) error {
	mj, err := m.lookup(id)
	if err != nil {
		return err
	}
	if err := mj.handler.PrepareJob(); err != nil {
		return err
	}
	m.publishInfo(mj.handler)
	return nil
}

// RemoveJob drops a job that is not running.
func (m *JobManager) RemoveJob(id string) error {
	mj, err := m.lookup(id)
	if err != nil {
		return err
	}
	if mj.handler.IsRunning() {
		return faults.Runtime("job %q is running", id)
	}
	mj.handler.Close()
	delete(m.byID, id)
	m.jobs.Remove(id)
	if m.active == id {
		m.active = ""
	}
	return nil
}

// SetActiveJob selects the job shown to the user. An empty id clears the
// selection.
func (m *JobManager) SetActiveJob(id string) error {
	if id == "" {
		m.active = ""
		return nil
	}
	if _, err := m.lookup(id); err != nil {
		return err
	}
	m.active = id
	return nil
}

// ActiveJob returns the selected job, or nil.
func (m *JobManager) ActiveJob() *model.JobItem {
	if m.active == "" {
		return nil
	}
	return m.jobs.Job(m.active)
}

// ToggleBreakpoint cycles the breakpoint of an instruction of a job's
// expanded procedure.
func (m *JobManager) ToggleBreakpoint(id string, item *model.InstructionItem) error {
	mj, err := m.lookup(id)
	if err != nil {
		return err
	}
	return mj.handler.ToggleBreakpoint(item)
}

func (m *JobManager) SetTickTimeout(id string, d time.Duration) error {
	mj, err := m.lookup(id)
	if err != nil {
		return err
	}
	mj.handler.SetTickTimeout(d)
	return nil
}

// JobInfo describes a job for a remote monitor.
func (m *JobManager) JobInfo(id string) (transform.JobInfo, error) {
	mj, err := m.lookup(id)
	if err != nil {
		return transform.JobInfo{}, err
	}
	return transform.NewJobInfo(mj.handler.Job())
}

// JobInfos describes every job in submission order.
func (m *JobManager) JobInfos() []transform.JobInfo {
	var infos []transform.JobInfo
	for _, job := range m.jobs.Jobs() {
		info, err := m.JobInfo(job.ID())
		if err != nil {
			continue
		}
		infos = append(infos, info)
	}
	return infos
}

// Close stops every job.
func (m *JobManager) Close() {
	for _, mj := range m.byID {
		mj.handler.Close()
	}
}

func (m *JobManager) publishInfo(h *JobHandler) {
	if m.opts.Sink == nil {
		return
	}
	info, err := transform.NewJobInfo(h.Job())
	if err != nil {
		ctxlog.FromContext(m.ctx).Warn("Cannot describe job.", "job_id", h.Job().ID(), "error", err)
		return
	}
	m.opts.Sink.PublishJobInfo(info)
}

func (m *JobManager) publishEvent(jobID string, ev events.Event) {
	if m.opts.Sink != nil {
		m.opts.Sink.PublishEvent(jobID, ev)
	}
}
