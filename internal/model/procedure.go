package model

import "github.com/google/uuid"

// ProcedureItem is an authored procedure: instructions plus workspace.
type ProcedureItem struct {
	id           string
	name         string
	description  string
	instructions InstructionContainer
	workspace    WorkspaceItem
}

func NewProcedure(name string) *ProcedureItem {
	return &ProcedureItem{id: uuid.NewString(), name: name}
}

func (p *ProcedureItem) ID() string { return p.id }

func (p *ProcedureItem) Name() string { return p.name }

func (p *ProcedureItem) Description() string { return p.description }

func (p *ProcedureItem) SetDescription(d string) { p.description = d }

func (p *ProcedureItem) Instructions() *InstructionContainer { return &p.instructions }

func (p *ProcedureItem) Workspace() *WorkspaceItem { return &p.workspace }
