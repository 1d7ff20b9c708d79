package transform

import (
	"time"

	"github.com/oac-tree/oac-tree-gui-sub008/internal/anyvalue"
	"github.com/oac-tree/oac-tree-gui-sub008/internal/faults"
	"github.com/oac-tree/oac-tree-gui-sub008/internal/model"
	"github.com/oac-tree/oac-tree-gui-sub008/internal/runner"
	"github.com/oac-tree/oac-tree-gui-sub008/internal/sequencer"
)

// InstructionInfo describes one node of an expanded instruction tree.
type InstructionInfo struct {
	Index      int               `json:"index"`
	Type       string            `json:"type"`
	Name       string            `json:"name,omitempty"`
	Root       bool              `json:"root,omitempty"`
	Attributes []model.Attribute `json:"attributes,omitempty"`
	Status     string            `json:"status,omitempty"`
	Breakpoint string            `json:"breakpoint,omitempty"`
	Children   []InstructionInfo `json:"children,omitempty"`
}

// VariableInfo describes one workspace variable.
type VariableInfo struct {
	Index     int              `json:"index"`
	Name      string           `json:"name"`
	Type      string           `json:"type"`
	Value     anyvalue.Encoded `json:"value"`
	Available bool             `json:"available"`
}

// JobInfo is the snapshot of a job that remote observers start from.
type JobInfo struct {
	JobID         string            `json:"job_id"`
	ProcedureName string            `json:"procedure_name"`
	Status        string            `json:"status"`
	TickTimeoutMS int64             `json:"tick_timeout_ms,omitempty"`
	Instructions  []InstructionInfo `json:"instructions"`
	Variables     []VariableInfo    `json:"variables"`
}

// NewJobInfo snapshots job. The job must have an expanded procedure.
func NewJobInfo(job *model.JobItem) (JobInfo, error) {
	expanded := job.ExpandedProcedure()
	if expanded == nil {
		return JobInfo{}, faults.Logic("job %q has no expanded procedure", job.ID())
	}
	info := JobInfo{
		JobID:         job.ID(),
		ProcedureName: job.ProcedureName(),
		Status:        job.Status().String(),
		TickTimeoutMS: job.TickTimeout().Milliseconds(),
	}
	next := 0
	for _, item := range expanded.Instructions().Items() {
		info.Instructions = append(info.Instructions, instructionInfo(item, &next))
	}
	for i, v := range expanded.Workspace().Variables() {
		value, err := anyvalue.Encode(v.Value())
		if err != nil {
			return JobInfo{}, faults.Runtime("encode variable %q: %v", v.Name(), err)
		}
		info.Variables = append(info.Variables, VariableInfo{
			Index:     i,
			Name:      v.Name(),
			Type:      v.DomainType(),
			Value:     value,
			Available: v.IsAvailable(),
		})
	}
	return info, nil
}

func instructionInfo(item *model.InstructionItem, next *int) InstructionInfo {
	info := InstructionInfo{
		Index:      *next,
		Type:       item.DomainType(),
		Name:       item.Name(),
		Root:       item.IsRoot(),
		Attributes: item.Attributes(),
		Status:     item.Status().String(),
	}
	if item.Breakpoint() != model.BreakpointNotSet {
		info.Breakpoint = item.Breakpoint().String()
	}
	*next++
	for _, child := range item.Children() {
		info.Children = append(info.Children, instructionInfo(child, next))
	}
	return info
}

// BuildFromJobInfo reconstructs a remote job and the index of its expanded
// instructions.
func BuildFromJobInfo(info JobInfo) (*model.JobItem, *Index, error) {
	if info.JobID == "" {
		return nil, nil, faults.Logic("job info has no job id")
	}
	status, err := runner.ParseStatus(info.Status)
	if err != nil {
		return nil, nil, faults.Logic("job %q: %v", info.JobID, err)
	}
	count := 0
	for _, top := range info.Instructions {
		count += countInfo(top)
	}

	expanded := model.NewProcedure(info.ProcedureName)
	index := newIndex(count)
	for _, top := range info.Instructions {
		item, err := itemFromInfo(top, index)
		if err != nil {
			return nil, nil, err
		}
		expanded.Instructions().Add(item)
	}
	for i, vi := range info.Variables {
		if vi.Index != i {
			return nil, nil, faults.Logic("variable %q has index %d, expected %d", vi.Name, vi.Index, i)
		}
		value, err := anyvalue.Decode(vi.Value)
		if err != nil {
			return nil, nil, faults.Logic("variable %q: %v", vi.Name, err)
		}
		v := model.NewVariable(vi.Type, vi.Name, value)
		v.SetAvailable(vi.Available)
		expanded.Workspace().Add(v)
	}

	job := model.NewRemoteJob(info.JobID, info.ProcedureName)
	job.SetStatus(status)
	job.SetTickTimeout(time.Duration(info.TickTimeoutMS) * time.Millisecond)
	job.SetExpandedProcedure(expanded)
	return job, index, nil
}

func countInfo(info InstructionInfo) int {
	n := 1
	for _, c := range info.Children {
		n += countInfo(c)
	}
	return n
}

func itemFromInfo(info InstructionInfo, index *Index) (*model.InstructionItem, error) {
	item := model.NewInstructionFor(info.Type)
	item.SetName(info.Name)
	item.SetRoot(info.Root)
	for _, attr := range info.Attributes {
		item.SetAttribute(attr.Name, attr.Value)
	}
	if info.Status != "" {
		st, err := sequencer.ParseStatus(info.Status)
		if err != nil {
			return nil, faults.Logic("instruction %d: %v", info.Index, err)
		}
		item.SetStatus(st)
	}
	if info.Breakpoint != "" {
		bp, err := model.ParseBreakpointStatus(info.Breakpoint)
		if err != nil {
			return nil, faults.Logic("instruction %d: %v", info.Index, err)
		}
		item.SetBreakpoint(bp)
	}
	if err := index.set(info.Index, item); err != nil {
		return nil, err
	}
	for _, c := range info.Children {
		child, err := itemFromInfo(c, index)
		if err != nil {
			return nil, err
		}
		item.AddChild(child)
	}
	return item, nil
}
