package graph

import "errors"

// Build-time validation errors. All of them are fatal: they are reported
// before any job instance executes and never produce a partial run.
var (
	// ErrDuplicateJob — two job templates share a name.
	ErrDuplicateJob = errors.New("duplicate job name")

	// ErrUnknownDependency — a needs entry references a job that does not exist.
	ErrUnknownDependency = errors.New("needs references unknown job")

	// ErrSelfDependency — a job lists itself in needs.
	ErrSelfDependency = errors.New("job depends on itself")

	// ErrCyclicDependency — the needs edges form a cycle.
	ErrCyclicDependency = errors.New("cyclic dependency detected")

	// ErrStepBinding — a step's arguments could not be evaluated for an instance.
	ErrStepBinding = errors.New("step argument binding failed")
)
