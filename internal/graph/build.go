// Package graph builds the directed acyclic graph of job instances for one
// workflow run: matrix expansion, step binding and dependency resolution.
package graph

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"

	"github.com/gantryci/gantry/internal/ctxlog"
	"github.com/gantryci/gantry/internal/matrix"
	"github.com/gantryci/gantry/internal/workflow"
)

// Build constructs a complete, validated instance graph from a workflow spec.
//
// Validation runs over job template names before any expansion, so cyclic or
// unresolved needs are reported without creating a single instance. After
// validation, each template is expanded into one instance per matrix
// assignment, step arguments are bound against the assignment, and fan-in
// dependency edges are linked: every instance of a template depends on all
// instances of each template it needs.
func Build(ctx context.Context, spec *workflow.Spec) (*Graph, error) {
	logger := ctxlog.FromContext(ctx)

	if err := validateTemplates(spec); err != nil {
		return nil, err
	}
	logger.Debug("Template validation passed.", "jobs", len(spec.Jobs))

	g := &Graph{Instances: make(map[InstanceID]*Instance)}

	// byJob remembers each template's instance identities in expansion
	// order, for the fan-in linking pass below.
	byJob := make(map[string][]InstanceID)

	for _, job := range spec.Jobs {
		assignments, err := matrix.Expand(job.Matrix)
		if err != nil {
			return nil, fmt.Errorf("job %q: %w", job.Name, err)
		}

		for _, assignment := range assignments {
			id := InstanceID{Job: job.Name, Variant: assignment.String()}

			steps, err := bindSteps(job.Steps, assignment)
			if err != nil {
				return nil, fmt.Errorf("job %q: %w", id, err)
			}

			g.Instances[id] = &Instance{
				ID:         id,
				Assignment: assignment,
				Steps:      steps,
				Status:     Pending,
			}
			g.Order = append(g.Order, id)
			byJob[job.Name] = append(byJob[job.Name], id)
		}
	}
	logger.Debug("Instance expansion complete.", "instances", len(g.Instances))

	for _, job := range spec.Jobs {
		for _, instID := range byJob[job.Name] {
			inst := g.Instances[instID]
			for _, needed := range job.Needs {
				for _, depID := range byJob[needed] {
					inst.Needs = append(inst.Needs, depID)
					g.Instances[depID].Dependents = append(g.Instances[depID].Dependents, instID)
				}
			}
		}
	}
	logger.Debug("Dependency linking complete.")

	return g, nil
}

// validateTemplates checks name uniqueness, needs resolution and acyclicity
// over the job templates, before any matrix expansion.
func validateTemplates(spec *workflow.Spec) error {
	names := make(map[string]bool, len(spec.Jobs))
	for _, job := range spec.Jobs {
		if names[job.Name] {
			return fmt.Errorf("job %q: %w", job.Name, ErrDuplicateJob)
		}
		names[job.Name] = true
	}

	for _, job := range spec.Jobs {
		for _, needed := range job.Needs {
			if needed == job.Name {
				return fmt.Errorf("job %q: %w", job.Name, ErrSelfDependency)
			}
			if !names[needed] {
				return fmt.Errorf("job %q needs %q: %w", job.Name, needed, ErrUnknownDependency)
			}
		}
	}

	return detectCycles(spec)
}

// detectCycles runs a depth-first search over the template-level needs
// edges. The error names the cycle path, e.g. "a -> b -> a".
func detectCycles(spec *workflow.Spec) error {
	const (
		unvisited = iota
		visiting
		visited
	)
	state := make(map[string]int, len(spec.Jobs))

	var path []string
	var visit func(job *workflow.JobTemplate) error
	visit = func(job *workflow.JobTemplate) error {
		state[job.Name] = visiting
		path = append(path, job.Name)

		for _, needed := range job.Needs {
			switch state[needed] {
			case visiting:
				cycle := append(trimToCycleStart(path, needed), needed)
				return fmt.Errorf("%w: %s", ErrCyclicDependency, strings.Join(cycle, " -> "))
			case unvisited:
				if err := visit(spec.Job(needed)); err != nil {
					return err
				}
			}
		}

		path = path[:len(path)-1]
		state[job.Name] = visited
		return nil
	}

	for _, job := range spec.Jobs {
		if state[job.Name] == unvisited {
			if err := visit(job); err != nil {
				return err
			}
		}
	}
	return nil
}

// trimToCycleStart drops the path prefix that is not part of the cycle.
func trimToCycleStart(path []string, start string) []string {
	for i, name := range path {
		if name == start {
			return append([]string(nil), path[i:]...)
		}
	}
	return append([]string(nil), path...)
}

// bindSteps evaluates each step's `with` expression against the matrix
// assignment, producing the instance's concrete step list.
func bindSteps(defs []*workflow.StepDef, assignment matrix.Assignment) ([]BoundStep, error) {
	evalCtx := evalContext(assignment)

	steps := make([]BoundStep, 0, len(defs))
	for _, def := range defs {
		params, err := evaluateParams(def.With, evalCtx)
		if err != nil {
			return nil, fmt.Errorf("step %q: %w: %v", def.Name, ErrStepBinding, err)
		}
		steps = append(steps, BoundStep{
			Name:   def.Name,
			Uses:   def.Uses,
			Params: params,
		})
	}
	return steps, nil
}

// evalContext exposes the assignment's bindings as matrix.<axis> variables.
func evalContext(assignment matrix.Assignment) *hcl.EvalContext {
	vars := make(map[string]cty.Value, len(assignment))
	for _, b := range assignment {
		vars[b.Axis] = cty.StringVal(b.Value)
	}
	matrixVal := cty.EmptyObjectVal
	if len(vars) > 0 {
		matrixVal = cty.ObjectVal(vars)
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{"matrix": matrixVal},
	}
}

// evaluateParams resolves a `with` expression into string parameters.
func evaluateParams(expr hcl.Expression, evalCtx *hcl.EvalContext) (map[string]string, error) {
	if expr == nil {
		return map[string]string{}, nil
	}

	val, diags := expr.Value(evalCtx)
	if diags.HasErrors() {
		return nil, diags
	}
	if val.IsNull() {
		return map[string]string{}, nil
	}
	if !val.Type().IsObjectType() && !val.Type().IsMapType() {
		return nil, fmt.Errorf("with must be an object, got %s", val.Type().FriendlyName())
	}

	params := make(map[string]string)
	for key, elem := range val.AsValueMap() {
		str, err := convert.Convert(elem, cty.String)
		if err != nil {
			return nil, fmt.Errorf("argument %q: %w", key, err)
		}
		if str.IsNull() {
			return nil, fmt.Errorf("argument %q is null", key)
		}
		params[key] = str.AsString()
	}
	return params, nil
}
