package hcl

import (
	"fmt"

	"github.com/gantryci/gantry/internal/workflow"
)

// translate converts the decoded HCL blocks into the format-agnostic
// workflow model, applying the structural checks that don't need the full
// graph builder: the on block must exist, and matrix axes must be unique.
func translate(block *workflowBlock) (*workflow.Spec, error) {
	if block.On == nil {
		return nil, fmt.Errorf("workflow %q: %w", block.Name, ErrMissingOn)
	}

	spec := &workflow.Spec{
		Name: block.Name,
		On:   translateTriggers(block.On),
	}

	for _, job := range block.Jobs {
		template, err := translateJob(job)
		if err != nil {
			return nil, err
		}
		spec.Jobs = append(spec.Jobs, template)
	}
	return spec, nil
}

func translateTriggers(on *onBlock) workflow.TriggerRules {
	rules := workflow.TriggerRules{
		PullRequest:      on.PullRequest != nil,
		WorkflowDispatch: on.WorkflowDispatch != nil,
	}
	if on.Push != nil {
		rules.Push = &workflow.PushRule{Branches: on.Push.Branches}
	}
	return rules
}

func translateJob(job *jobBlock) (*workflow.JobTemplate, error) {
	template := &workflow.JobTemplate{
		Name:  job.Name,
		Needs: job.Needs,
	}

	if job.Matrix != nil {
		seen := make(map[string]bool, len(job.Matrix.Axes))
		for _, axis := range job.Matrix.Axes {
			if seen[axis.Name] {
				return nil, fmt.Errorf("job %q axis %q: %w", job.Name, axis.Name, ErrDuplicateAxis)
			}
			seen[axis.Name] = true
			template.Matrix = append(template.Matrix, &workflow.Axis{
				Name:   axis.Name,
				Values: axis.Values,
			})
		}
	}

	for _, step := range job.Steps {
		template.Steps = append(template.Steps, &workflow.StepDef{
			Name: step.Name,
			Uses: step.Uses,
			With: step.With,
		})
	}
	return template, nil
}
