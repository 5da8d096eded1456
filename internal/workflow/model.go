package workflow

import (
	"github.com/hashicorp/hcl/v2"
)

// Spec is the unified, format-agnostic representation of a workflow
// definition. It is built once by a loader at run start and is read-only
// afterwards; every component receives it explicitly.
type Spec struct {
	// Name is the workflow's declared name.
	Name string
	// On holds the trigger rules deciding whether a run is initiated at all.
	On TriggerRules
	// Jobs holds the job templates in declaration order. Declaration order
	// is significant: it determines expansion and reporting order.
	Jobs []*JobTemplate
}

// Job returns the job template with the given name, or nil if none exists.
func (s *Spec) Job(name string) *JobTemplate {
	for _, j := range s.Jobs {
		if j.Name == name {
			return j
		}
	}
	return nil
}

// JobTemplate is the declared unit of work before matrix expansion.
type JobTemplate struct {
	// Name is unique within the workflow.
	Name string
	// Needs lists the names of job templates this job depends on.
	Needs []string
	// Matrix holds the matrix axes in declaration order. Nil or empty means
	// the template expands to exactly one instance.
	Matrix []*Axis
	// Steps is the ordered step sequence executed by each instance.
	Steps []*StepDef
}

// Axis is one matrix axis: a name and its ordered value list.
type Axis struct {
	Name   string
	Values []string
}

// StepDef is the format-agnostic representation of a `step` block. The
// `with` arguments are kept as an unevaluated expression so that matrix
// values can be substituted per instance at graph-build time.
type StepDef struct {
	Name string
	// Uses names the step runner that executes this step.
	Uses string
	// With is the raw arguments expression, or nil if the step takes none.
	With hcl.Expression
}

// Event is the kind of external event that can trigger a run.
type Event string

const (
	EventPush             Event = "push"
	EventPullRequest      Event = "pull_request"
	EventWorkflowDispatch Event = "workflow_dispatch"
)

// KnownEvent reports whether s names a supported trigger event.
func KnownEvent(s string) bool {
	switch Event(s) {
	case EventPush, EventPullRequest, EventWorkflowDispatch:
		return true
	}
	return false
}

// TriggerRules captures the workflow's `on` block. A nil rule means the
// corresponding event kind does not trigger the workflow.
type TriggerRules struct {
	Push             *PushRule
	PullRequest      bool
	WorkflowDispatch bool
}

// PushRule filters push events by branch. An empty Branches list accepts
// pushes to any branch.
type PushRule struct {
	Branches []string
}
