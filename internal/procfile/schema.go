package procfile

import "github.com/hashicorp/hcl/v2"

// fileRoot decodes the top-level blocks of any file.
type fileRoot struct {
	Procedures []*procedureBlock `hcl:"procedure,block"`
	Remain     hcl.Body          `hcl:",remain"`
}

type procedureBlock struct {
	Name         string              `hcl:"name,label"`
	Description  *string             `hcl:"description,optional"`
	Root         *string             `hcl:"root,optional"`
	Variables    []*variableBlock    `hcl:"variable,block"`
	Instructions []*instructionBlock `hcl:"instruction,block"`
}

// instructionBlock is `instruction "<type>" "<name>" { ... }`. Every
// attribute of the body becomes an instruction attribute.
type instructionBlock struct {
	Type     string              `hcl:"type,label"`
	Name     string              `hcl:"name,label"`
	Children []*instructionBlock `hcl:"instruction,block"`
	Body     hcl.Body            `hcl:",remain"`
}

// variableBlock is `variable "<type>" "<name>" { ... }`. The optional
// `type` and `value` attributes give the initial value; the others become
// variable attributes.
type variableBlock struct {
	Type      string         `hcl:"type,label"`
	Name      string         `hcl:"name,label"`
	ValueType hcl.Expression `hcl:"type,optional"`
	Value     hcl.Expression `hcl:"value,optional"`
	Body      hcl.Body       `hcl:",remain"`
}
