package graph

import (
	"github.com/gantryci/gantry/internal/matrix"
)

// InstanceID identifies one job instance: the template name plus the
// rendered matrix assignment. It is comparable and used as a map key, so
// rebuilding the graph from an unchanged spec yields the same identities.
type InstanceID struct {
	Job     string
	Variant string
}

// String renders the identity, e.g. "test[channel=nightly]" or "format" for
// an instance without matrix bindings.
func (id InstanceID) String() string {
	if id.Variant == "" {
		return id.Job
	}
	return id.Job + "[" + id.Variant + "]"
}

// MarshalText lets identities serialize in their rendered form.
func (id InstanceID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// Status is the lifecycle state of a job instance.
//
// Transitions are monotonic:
//
//	Pending → Ready → Running → Succeeded | Failed
//	Pending → Skipped
//	Ready   → Skipped (cancellation only)
type Status int

const (
	// Pending — waiting for dependencies to succeed.
	Pending Status = iota
	// Ready — all dependencies succeeded, selected for dispatch.
	Ready
	// Running — currently executing its step sequence.
	Running
	// Succeeded — every step completed successfully.
	Succeeded
	// Failed — a step failed; the remaining steps were aborted.
	Failed
	// Skipped — never ran because a dependency failed or the run was cancelled.
	Skipped
)

// String returns the uppercase status name used in logs and reports.
func (s Status) String() string {
	switch s {
	case Pending:
		return "PENDING"
	case Ready:
		return "READY"
	case Running:
		return "RUNNING"
	case Succeeded:
		return "SUCCEEDED"
	case Failed:
		return "FAILED"
	case Skipped:
		return "SKIPPED"
	}
	return "UNKNOWN"
}

// MarshalText lets statuses serialize by name in JSON payloads.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// IsTerminal reports whether the status is final.
func (s Status) IsTerminal() bool {
	switch s {
	case Succeeded, Failed, Skipped:
		return true
	}
	return false
}

// CanTransition reports whether moving from s to next respects the
// monotonic lifecycle. Terminal states never transition again.
func (s Status) CanTransition(next Status) bool {
	switch s {
	case Pending:
		return next == Ready || next == Skipped
	case Ready:
		return next == Running || next == Skipped
	case Running:
		return next == Succeeded || next == Failed
	}
	return false
}

// BoundStep is one step of an instance with its arguments already evaluated
// against the instance's matrix assignment. The params are opaque to the
// core; the step runner named by Uses interprets them.
type BoundStep struct {
	Name   string
	Uses   string
	Params map[string]string
}

// Instance is one concrete, independently schedulable execution unit,
// materialized from a job template and a matrix assignment.
//
// The Status, FailedStep and Diagnostic fields are mutable run state. They
// are owned by the scheduler: all writes happen inside its single decision
// point, never from executors directly.
type Instance struct {
	ID         InstanceID
	Assignment matrix.Assignment
	Steps      []BoundStep

	// Needs holds the identities of every instance this one waits on
	// (fan-in: all instances of each needed template).
	Needs []InstanceID
	// Dependents holds the identities of every instance waiting on this one.
	Dependents []InstanceID

	Status Status
	// FailedStep names the step whose failure terminated the instance.
	FailedStep string
	// Diagnostic carries the failing step's exit information, or the skip reason.
	Diagnostic string
}

// Graph is the full set of job instances for one run, with resolved
// dependency edges.
type Graph struct {
	// Instances maps identity to instance.
	Instances map[InstanceID]*Instance
	// Order lists identities in declaration/expansion order, used for
	// deterministic reporting.
	Order []InstanceID
}

// Instance returns the instance with the given identity, or nil.
func (g *Graph) Instance(id InstanceID) *Instance {
	return g.Instances[id]
}

// Len returns the number of instances in the graph.
func (g *Graph) Len() int {
	return len(g.Instances)
}
