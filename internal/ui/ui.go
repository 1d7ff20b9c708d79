// Package ui renders procedures and jobs for the terminal.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/oac-tree/oac-tree-gui-sub008/internal/anyvalue"
	"github.com/oac-tree/oac-tree-gui-sub008/internal/model"
	"github.com/oac-tree/oac-tree-gui-sub008/internal/runner"
	"github.com/oac-tree/oac-tree-gui-sub008/internal/sequencer"
)

var (
	purple = lipgloss.Color("99")
	green  = lipgloss.Color("76")
	red    = lipgloss.Color("204")
	yellow = lipgloss.Color("214")
	dim    = lipgloss.Color("243")
	faint  = lipgloss.Color("238")
)

var (
	AccentStyle  = lipgloss.NewStyle().Foreground(purple)
	SuccessStyle = lipgloss.NewStyle().Foreground(green)
	ErrorStyle   = lipgloss.NewStyle().Foreground(red)
	WarnStyle    = lipgloss.NewStyle().Foreground(yellow)
	MutedStyle   = lipgloss.NewStyle().Foreground(dim)
	BoldStyle    = lipgloss.NewStyle().Bold(true)
	LabelStyle   = lipgloss.NewStyle().Foreground(dim)
)

func Accent(s string) string { return AccentStyle.Render(s) }
func Bold(s string) string   { return BoldStyle.Render(s) }
func Muted(s string) string  { return MutedStyle.Render(s) }

func SuccessMsg(format string, a ...any) string {
	return SuccessStyle.Render("✓") + " " + fmt.Sprintf(format, a...)
}

func WarnMsg(format string, a ...any) string {
	return WarnStyle.Render("!") + " " + fmt.Sprintf(format, a...)
}

func ErrorMsg(format string, a ...any) string {
	return ErrorStyle.Render("✗") + " " + fmt.Sprintf(format, a...)
}

func InfoMsg(format string, a ...any) string {
	return AccentStyle.Render("●") + " " + fmt.Sprintf(format, a...)
}

// InstructionStatus renders an instruction status in its color.
func InstructionStatus(s sequencer.Status) string {
	switch s {
	case sequencer.Running:
		return AccentStyle.Render(s.String())
	case sequencer.Success:
		return SuccessStyle.Render(s.String())
	case sequencer.Failure:
		return ErrorStyle.Render(s.String())
	case sequencer.Warning:
		return WarnStyle.Render(s.String())
	}
	return MutedStyle.Render(s.String())
}

// JobStatus renders a runner status in its color.
func JobStatus(s runner.Status) string {
	switch s {
	case runner.Running:
		return AccentStyle.Render(s.String())
	case runner.Completed:
		return SuccessStyle.Render(s.String())
	case runner.Failed:
		return ErrorStyle.Render(s.String())
	case runner.Paused, runner.Canceling, runner.Canceled, runner.Stopped:
		return WarnStyle.Render(s.String())
	}
	return MutedStyle.Render(s.String())
}

func breakpointMark(b model.BreakpointStatus) string {
	switch b {
	case model.BreakpointSet:
		return ErrorStyle.Render("●") + " "
	case model.BreakpointSetAndHit:
		return WarnStyle.Render("▶") + " "
	case model.BreakpointDisabled:
		return MutedStyle.Render("○") + " "
	}
	return ""
}

// Tree renders an instruction tree, one instruction per line, with its
// status and breakpoint.
func Tree(proc *model.ProcedureItem) string {
	var sb strings.Builder
	items := proc.Instructions().Items()
	for i, item := range items {
		writeNode(&sb, item, "", i == len(items)-1, true)
	}
	return sb.String()
}

func writeNode(sb *strings.Builder, item *model.InstructionItem, prefix string, last, top bool) {
	branch, next := "├─ ", prefix+"│  "
	if last {
		branch, next = "└─ ", prefix+"   "
	}
	if top {
		branch, next = "", ""
	}
	label := Bold(item.DomainType())
	if item.Name() != "" {
		label += " " + item.Name()
	}
	if item.IsRoot() {
		label += " " + Accent("(root)")
	}
	sb.WriteString(prefix + branch + breakpointMark(item.Breakpoint()) + label + "  " + InstructionStatus(item.Status()) + "\n")
	children := item.Children()
	for i, child := range children {
		writeNode(sb, child, next, i == len(children)-1, false)
	}
}

// Variables renders a workspace as a table.
func Variables(ws *model.WorkspaceItem) string {
	rows := make([][]string, 0, ws.Len())
	for _, v := range ws.Variables() {
		avail := ErrorStyle.Render("no")
		if v.IsAvailable() {
			avail = SuccessStyle.Render("yes")
		}
		rows = append(rows, []string{v.Name(), v.DomainType(), anyvalue.Format(v.Value()), avail})
	}
	return Table([]string{"Name", "Type", "Value", "Available"}, rows)
}

// Table renders a styled table with rounded borders.
func Table(headers []string, rows [][]string) string {
	headerStyle := lipgloss.NewStyle().Foreground(purple).Bold(true).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)
	oddStyle := cellStyle.Foreground(dim)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(faint)).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case row%2 == 0:
				return cellStyle
			default:
				return oddStyle
			}
		}).
		Headers(headers...).
		Rows(rows...)
	return t.String()
}

// JobSummary renders the job header followed by its expanded tree and
// workspace.
func JobSummary(job *model.JobItem) string {
	var sb strings.Builder
	sb.WriteString(LabelStyle.Render("job:") + " " + job.ID() + "\n")
	sb.WriteString(LabelStyle.Render("procedure:") + " " + job.ProcedureName() + "\n")
	sb.WriteString(LabelStyle.Render("status:") + " " + JobStatus(job.Status()) + "\n")
	if expanded := job.ExpandedProcedure(); expanded != nil {
		sb.WriteString("\n" + Tree(expanded))
		if expanded.Workspace().Len() > 0 {
			sb.WriteString("\n" + Variables(expanded.Workspace()) + "\n")
		}
	}
	return sb.String()
}
