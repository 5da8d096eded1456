// Package executor runs one job instance's step sequence to completion.
// Steps execute strictly in order and the first failure aborts the rest;
// everything else about a step is delegated to its runner.
package executor

import (
	"context"
	"fmt"

	"github.com/gantryci/gantry/internal/ctxlog"
	"github.com/gantryci/gantry/internal/graph"
	"github.com/gantryci/gantry/internal/runner"
)

// StepError reports the step whose failure terminated an instance, carrying
// the runner's diagnostic output for the final report.
type StepError struct {
	// Step is the failing step's name.
	Step string
	// Diagnostic is the runner's output at the point of failure.
	Diagnostic string
	// Err is the underlying failure.
	Err error
}

// Error implements the error interface.
func (e *StepError) Error() string {
	return fmt.Sprintf("step %q failed: %v", e.Step, e.Err)
}

// Unwrap returns the underlying failure.
func (e *StepError) Unwrap() error {
	return e.Err
}

// Executor dispatches each step of an instance to its registered runner.
type Executor struct {
	registry *runner.Registry
}

// New creates an executor backed by the given runner registry.
func New(registry *runner.Registry) *Executor {
	return &Executor{registry: registry}
}

// Run executes the instance's steps in declaration order. It returns nil
// only if every step succeeded; otherwise it returns a *StepError for the
// first failing step and the remaining steps never run.
//
// Run never touches the instance's status. Status transitions belong to the
// scheduler.
func (e *Executor) Run(ctx context.Context, inst *graph.Instance) error {
	logger := ctxlog.FromContext(ctx).With("instance", inst.ID.String())

	for _, step := range inst.Steps {
		if err := ctx.Err(); err != nil {
			return &StepError{Step: step.Name, Err: err}
		}

		stepLogger := logger.With("step", step.Name, "uses", step.Uses)
		stepLogger.Info("▶️ Starting step")

		r, ok := e.registry.Lookup(step.Uses)
		if !ok {
			return &StepError{Step: step.Name, Err: fmt.Errorf("unknown runner %q", step.Uses)}
		}

		diagnostic, err := r.Run(ctx, step.Params, inst.Assignment)
		if err != nil {
			stepLogger.Error("Step failed.", "error", err)
			return &StepError{Step: step.Name, Diagnostic: diagnostic, Err: err}
		}
		stepLogger.Info("✅ Finished step")
	}

	return nil
}
