package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/oac-tree/oac-tree-gui-sub008/internal/runner"
)

// JobItem is one execution of a procedure.
type JobItem struct {
	id            string
	procedureID   string
	procedureName string
	status        runner.Status
	tickTimeout   time.Duration
	expanded      *ProcedureItem
	remote        bool
}

// NewJob creates a job for proc. The job refers to the procedure by id and
// does not own it.
func NewJob(proc *ProcedureItem) *JobItem {
	return &JobItem{id: uuid.NewString(), procedureID: proc.ID(), procedureName: proc.Name()}
}

// NewRemoteJob creates a job mirroring one that runs elsewhere.
func NewRemoteJob(id, procedureName string) *JobItem {
	return &JobItem{id: id, procedureName: procedureName, remote: true}
}

func (j *JobItem) ID() string { return j.id }

func (j *JobItem) ProcedureID() string { return j.procedureID }

func (j *JobItem) ProcedureName() string { return j.procedureName }

func (j *JobItem) IsRemote() bool { return j.remote }

func (j *JobItem) Status() runner.Status { return j.status }

func (j *JobItem) SetStatus(s runner.Status) { j.status = s }

func (j *JobItem) TickTimeout() time.Duration { return j.tickTimeout }

func (j *JobItem) SetTickTimeout(d time.Duration) { j.tickTimeout = d }

// ExpandedProcedure is the runtime tree produced by setup, or nil before a
// successful setup.
func (j *JobItem) ExpandedProcedure() *ProcedureItem { return j.expanded }

func (j *JobItem) SetExpandedProcedure(p *ProcedureItem) { j.expanded = p }

// JobModel is the ordered collection of jobs.
type JobModel struct {
	jobs []*JobItem
}

func (m *JobModel) Add(job *JobItem) { m.jobs = append(m.jobs, job) }

// Remove drops the job with id and reports whether it existed.
func (m *JobModel) Remove(id string) bool {
	for i, j := range m.jobs {
		if j.id == id {
			m.jobs = append(m.jobs[:i], m.jobs[i+1:]...)
			return true
		}
	}
	return false
}

func (m *JobModel) Job(id string) *JobItem {
	for _, j := range m.jobs {
		if j.id == id {
			return j
		}
	}
	return nil
}

func (m *JobModel) Jobs() []*JobItem { return append([]*JobItem(nil), m.jobs...) }

func (m *JobModel) Len() int { return len(m.jobs) }
