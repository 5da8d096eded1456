// Package runner defines the step delegate contract and the registry of
// available step runners. The core never interprets step semantics: a step
// names a runner via `uses`, and the runner does the actual work.
package runner

import (
	"context"
	"fmt"

	"github.com/gantryci/gantry/internal/matrix"
)

// Runner executes one step. It receives the step's evaluated parameters and
// the owning instance's matrix bindings, and returns a diagnostic string
// (output, exit information) alongside the error. A non-nil error marks the
// step as failed.
type Runner interface {
	Run(ctx context.Context, params map[string]string, assignment matrix.Assignment) (string, error)
}

// Registry holds all runners available to a run, keyed by the `uses`
// reference from the workflow document.
type Registry struct {
	runners map[string]Runner
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{runners: make(map[string]Runner)}
}

// Register adds a runner under the given name. Registering the same name
// twice is a programmer error and panics.
func (r *Registry) Register(name string, runner Runner) {
	if _, exists := r.runners[name]; exists {
		panic(fmt.Sprintf("runner %q already registered", name))
	}
	r.runners[name] = runner
}

// Lookup returns the runner registered under name.
func (r *Registry) Lookup(name string) (Runner, bool) {
	runner, ok := r.runners[name]
	return runner, ok
}

// Validate checks that every `uses` reference in the given step lists
// resolves to a registered runner. An unresolved reference is a fatal
// build-time error, reported before any job executes.
func (r *Registry) Validate(uses []string) error {
	for _, name := range uses {
		if _, ok := r.runners[name]; !ok {
			return fmt.Errorf("step uses unknown runner %q", name)
		}
	}
	return nil
}
