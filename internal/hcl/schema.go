package hcl

import (
	"github.com/hashicorp/hcl/v2"
)

// --- HCL file schema ---
//
// These structs mirror the workflow document's block structure one-to-one.
// They are decoded by gohcl and then translated into the format-agnostic
// workflow model; nothing outside this package sees them.

// fileRoot is the top-level structure of a workflow file.
type fileRoot struct {
	Workflows []*workflowBlock `hcl:"workflow,block"`
}

// workflowBlock is a `workflow "<name>" { ... }` block.
type workflowBlock struct {
	Name string     `hcl:"name,label"`
	On   *onBlock   `hcl:"on,block"`
	Jobs []*jobBlock `hcl:"job,block"`
}

// onBlock declares which events trigger the workflow.
type onBlock struct {
	Push             *pushBlock     `hcl:"push,block"`
	PullRequest      *emptyBlock    `hcl:"pull_request,block"`
	WorkflowDispatch *emptyBlock    `hcl:"workflow_dispatch,block"`
}

// pushBlock optionally restricts push triggers to named branches.
type pushBlock struct {
	Branches []string `hcl:"branches,optional"`
}

// emptyBlock marks the presence of a trigger that takes no options.
type emptyBlock struct{}

// jobBlock is a `job "<name>" { ... }` block.
type jobBlock struct {
	Name   string       `hcl:"name,label"`
	Needs  []string     `hcl:"needs,optional"`
	Matrix *matrixBlock `hcl:"matrix,block"`
	Steps  []*stepBlock `hcl:"step,block"`
}

// matrixBlock holds the job's matrix axes in declaration order.
type matrixBlock struct {
	Axes []*axisBlock `hcl:"axis,block"`
}

// axisBlock is one matrix axis with its ordered value list.
type axisBlock struct {
	Name   string   `hcl:"name,label"`
	Values []string `hcl:"values"`
}

// stepBlock is a `step "<name>" { ... }` block. The `with` attribute is
// captured as a raw expression so matrix values can be substituted per
// instance later.
type stepBlock struct {
	Name string         `hcl:"name,label"`
	Uses string         `hcl:"uses"`
	With hcl.Expression `hcl:"with,optional"`
}
