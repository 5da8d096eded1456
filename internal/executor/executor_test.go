package executor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gantryci/gantry/internal/graph"
	"github.com/gantryci/gantry/internal/matrix"
	"github.com/gantryci/gantry/internal/runner"
)

// scriptedRunner records the steps it is asked to run and fails the ones it
// is scripted to fail.
type scriptedRunner struct {
	calls      []string
	fail       map[string]error
	diagnostic string
}

func (r *scriptedRunner) Run(_ context.Context, params map[string]string, _ matrix.Assignment) (string, error) {
	name := params["name"]
	r.calls = append(r.calls, name)
	if err := r.fail[name]; err != nil {
		return r.diagnostic, err
	}
	return "", nil
}

func instanceWithSteps(names ...string) *graph.Instance {
	inst := &graph.Instance{ID: graph.InstanceID{Job: "build"}}
	for _, name := range names {
		inst.Steps = append(inst.Steps, graph.BoundStep{
			Name:   name,
			Uses:   "scripted",
			Params: map[string]string{"name": name},
		})
	}
	return inst
}

func newExecutor(scripted *scriptedRunner) *Executor {
	registry := runner.New()
	registry.Register("scripted", scripted)
	return New(registry)
}

func TestRunStepsInOrder(t *testing.T) {
	scripted := &scriptedRunner{}
	inst := instanceWithSteps("checkout", "compile", "test")

	err := newExecutor(scripted).Run(context.Background(), inst)

	require.NoError(t, err)
	assert.Equal(t, []string{"checkout", "compile", "test"}, scripted.calls)
}

func TestRunShortCircuitsOnFailure(t *testing.T) {
	cause := errors.New("exit status 1")
	scripted := &scriptedRunner{
		fail:       map[string]error{"compile": cause},
		diagnostic: "cc: undefined reference",
	}
	inst := instanceWithSteps("checkout", "compile", "test")

	err := newExecutor(scripted).Run(context.Background(), inst)

	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, "compile", stepErr.Step)
	assert.Equal(t, "cc: undefined reference", stepErr.Diagnostic)
	assert.ErrorIs(t, err, cause)

	// The step after the failure never runs.
	assert.Equal(t, []string{"checkout", "compile"}, scripted.calls)
}

func TestRunUnknownRunner(t *testing.T) {
	inst := &graph.Instance{
		ID:    graph.InstanceID{Job: "build"},
		Steps: []graph.BoundStep{{Name: "compile", Uses: "missing"}},
	}

	err := New(runner.New()).Run(context.Background(), inst)

	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, "compile", stepErr.Step)
	assert.ErrorContains(t, err, `unknown runner "missing"`)
}

func TestRunCancelledContext(t *testing.T) {
	scripted := &scriptedRunner{}
	inst := instanceWithSteps("checkout")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := newExecutor(scripted).Run(ctx, inst)

	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, scripted.calls)
}

func TestRunDoesNotTouchStatus(t *testing.T) {
	scripted := &scriptedRunner{fail: map[string]error{"compile": errors.New("boom")}}
	inst := instanceWithSteps("compile")
	inst.Status = graph.Running

	_ = newExecutor(scripted).Run(context.Background(), inst)

	assert.Equal(t, graph.Running, inst.Status)
	assert.Empty(t, inst.FailedStep)
}
