// Package trigger decides whether an external event initiates a workflow
// run. The decision is a pure function over the trigger context and the
// workflow's declared rules, evaluated exactly once before any job graph is
// built.
package trigger

import (
	"slices"

	"github.com/gantryci/gantry/internal/workflow"
)

// Context describes the external event asking for a run.
type Context struct {
	// Event is the event kind: push, pull_request or workflow_dispatch.
	Event workflow.Event
	// Branch is the branch the event refers to. Only consulted for push
	// events with a branch filter.
	Branch string
}

// Allows reports whether the given trigger context matches the workflow's
// rules. A false result means the run is never initiated; it is not an error.
func Allows(rules workflow.TriggerRules, tc Context) bool {
	switch tc.Event {
	case workflow.EventPush:
		if rules.Push == nil {
			return false
		}
		if len(rules.Push.Branches) == 0 {
			return true
		}
		return slices.Contains(rules.Push.Branches, tc.Branch)
	case workflow.EventPullRequest:
		return rules.PullRequest
	case workflow.EventWorkflowDispatch:
		return rules.WorkflowDispatch
	}
	return false
}
