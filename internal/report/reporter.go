// Package report collects per-instance outcomes as they arrive and turns
// them into the final run result.
package report

import (
	"sync"
	"time"

	"github.com/gantryci/gantry/internal/graph"
)

// Outcome is one instance's terminal result.
type Outcome struct {
	ID         graph.InstanceID `json:"instance"`
	Status     graph.Status     `json:"status"`
	FailedStep string           `json:"failed_step,omitempty"`
	Diagnostic string           `json:"diagnostic,omitempty"`
	FinishedAt time.Time        `json:"finished_at"`
}

// RunResult is the aggregate outcome of one run.
type RunResult struct {
	Workflow string    `json:"workflow"`
	Event    string    `json:"event"`
	Branch   string    `json:"branch,omitempty"`
	RunID    string    `json:"run_id"`
	Started  time.Time `json:"started"`
	Finished time.Time `json:"finished"`
	// Outcomes lists every instance in declaration/expansion order.
	Outcomes []Outcome `json:"outcomes"`
	// Succeeded is true iff no instance Failed. Skipped instances do not
	// count against success.
	Succeeded bool `json:"succeeded"`
}

// Reporter implements scheduler.Listener: it records terminal statuses in
// arrival order (streaming) and assembles the final RunResult once the run
// is complete.
type Reporter struct {
	mu       sync.Mutex
	order    []graph.InstanceID
	outcomes map[graph.InstanceID]Outcome
	started  time.Time
}

// New creates a reporter that will present outcomes in the given order,
// which callers take from the graph's declaration/expansion order.
func New(order []graph.InstanceID) *Reporter {
	return &Reporter{
		order:    order,
		outcomes: make(map[graph.InstanceID]Outcome, len(order)),
		started:  time.Now(),
	}
}

// InstanceFinished records one terminal status. It is safe for concurrent
// use, although the scheduler only calls it from its event loop.
func (r *Reporter) InstanceFinished(inst *graph.Instance) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.outcomes[inst.ID] = Outcome{
		ID:         inst.ID,
		Status:     inst.Status,
		FailedStep: inst.FailedStep,
		Diagnostic: inst.Diagnostic,
		FinishedAt: time.Now(),
	}
}

// Outcome returns the recorded outcome for an instance, if it finished.
func (r *Reporter) Outcome(id graph.InstanceID) (Outcome, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.outcomes[id]
	return o, ok
}

// Result assembles the final run result. The run is Succeeded iff the set
// of Failed instances is empty; instances with no recorded outcome (possible
// only on early abort) are reported as Skipped.
func (r *Reporter) Result() *RunResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := &RunResult{
		Started:   r.started,
		Finished:  time.Now(),
		Succeeded: true,
	}
	for _, id := range r.order {
		outcome, ok := r.outcomes[id]
		if !ok {
			outcome = Outcome{ID: id, Status: graph.Skipped}
		}
		if outcome.Status == graph.Failed {
			result.Succeeded = false
		}
		result.Outcomes = append(result.Outcomes, outcome)
	}
	return result
}
