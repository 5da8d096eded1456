// Package scheduler walks the instance graph, dispatching ready instances
// to the executor while respecting dependency order and the configured
// concurrency cap.
package scheduler

import (
	"context"
	"errors"

	"github.com/gantryci/gantry/internal/ctxlog"
	"github.com/gantryci/gantry/internal/executor"
	"github.com/gantryci/gantry/internal/graph"
)

// InstanceRunner executes one instance's step sequence. A nil return means
// every step succeeded. The scheduler never calls it with an instance whose
// dependencies have not all succeeded.
type InstanceRunner interface {
	Run(ctx context.Context, inst *graph.Instance) error
}

// Listener observes terminal statuses as they are reached, in arrival
// order, so reporting can stream progress instead of waiting for the end.
type Listener interface {
	InstanceFinished(inst *graph.Instance)
}

// Config holds the scheduler's policy knobs.
type Config struct {
	// MaxConcurrency caps the number of simultaneously Running instances.
	// Zero means unbounded.
	MaxConcurrency int
}

// Scheduler owns the instance status table for one run. Every status
// transition happens inside its single event loop, so readiness evaluation
// and the transition it triggers are atomic with respect to each other.
type Scheduler struct {
	graph    *graph.Graph
	runner   InstanceRunner
	listener Listener
	cfg      Config
}

// New creates a scheduler for the given graph. The listener may be nil.
func New(g *graph.Graph, runner InstanceRunner, listener Listener, cfg Config) *Scheduler {
	return &Scheduler{graph: g, runner: runner, listener: listener, cfg: cfg}
}

// completion is the message an instance goroutine sends back to the event loop.
type completion struct {
	id  graph.InstanceID
	err error
}

// Run drives the graph to completion: it repeatedly dispatches every
// Pending instance whose dependencies have all Succeeded, reacts to
// completions in arrival order, and propagates failures to dependents as
// Skipped. It returns once no instance is Pending, Ready or Running.
//
// Cancellation via ctx marks all undispatched instances Skipped and waits
// for the Running ones to wind down; their partial results are still
// reported.
func (s *Scheduler) Run(ctx context.Context) {
	logger := ctxlog.FromContext(ctx)

	completions := make(chan completion)
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	running := 0
	cancelled := false
	done := ctx.Done()

	for {
		if !cancelled {
			running += s.dispatch(runCtx, completions, running)
		}

		if running == 0 && (cancelled || s.settled()) {
			break
		}

		select {
		case c := <-completions:
			running--
			s.finish(ctx, c)
		case <-done:
			cancelled = true
			done = nil
			logger.Warn("Run cancelled, skipping undispatched instances.")
			s.skipUndispatched(ctx, "run cancelled")
		}
	}

	logger.Debug("Scheduler finished.", "instances", s.graph.Len())
}

// dispatch moves every currently-ready instance into Running, up to the
// concurrency cap, and returns how many were started. Readiness is derived
// from dependency statuses on the spot; it is never stored.
func (s *Scheduler) dispatch(ctx context.Context, completions chan<- completion, running int) int {
	logger := ctxlog.FromContext(ctx)
	started := 0

	for _, id := range s.graph.Order {
		if s.cfg.MaxConcurrency > 0 && running+started >= s.cfg.MaxConcurrency {
			break
		}

		inst := s.graph.Instance(id)
		if inst.Status != graph.Pending || !s.depsSucceeded(inst) {
			continue
		}

		s.transition(ctx, inst, graph.Ready)
		s.transition(ctx, inst, graph.Running)
		logger.Info("🚀 Dispatching instance.", "instance", inst.ID.String())
		started++

		go func(inst *graph.Instance) {
			completions <- completion{id: inst.ID, err: s.runner.Run(ctx, inst)}
		}(inst)
	}

	return started
}

// finish records one completion and propagates its consequences.
func (s *Scheduler) finish(ctx context.Context, c completion) {
	logger := ctxlog.FromContext(ctx)
	inst := s.graph.Instance(c.id)

	if c.err == nil {
		s.transition(ctx, inst, graph.Succeeded)
		logger.Info("✅ Instance succeeded.", "instance", inst.ID.String())
		return
	}

	var stepErr *executor.StepError
	if errors.As(c.err, &stepErr) {
		inst.FailedStep = stepErr.Step
		inst.Diagnostic = stepErr.Diagnostic
		if inst.Diagnostic == "" {
			inst.Diagnostic = stepErr.Err.Error()
		}
	} else {
		inst.Diagnostic = c.err.Error()
	}

	s.transition(ctx, inst, graph.Failed)
	logger.Error("❌ Instance failed.", "instance", inst.ID.String(), "step", inst.FailedStep, "error", c.err)

	s.skipDependents(ctx, inst)
}

// skipDependents transitively marks every instance depending on the failed
// one as Skipped, without dispatching it. Skipped is recorded distinctly
// from Failed so reporting can tell "broke" from "never ran".
func (s *Scheduler) skipDependents(ctx context.Context, failed *graph.Instance) {
	logger := ctxlog.FromContext(ctx)

	for _, depID := range failed.Dependents {
		dep := s.graph.Instance(depID)
		if dep.Status != graph.Pending {
			continue
		}
		dep.Diagnostic = "dependency " + failed.ID.String() + " failed"
		s.transition(ctx, dep, graph.Skipped)
		logger.Warn("⏭️ Skipping dependent instance.", "instance", dep.ID.String(), "dependency", failed.ID.String())
		s.skipDependents(ctx, dep)
	}
}

// skipUndispatched marks every Pending instance Skipped after cancellation.
func (s *Scheduler) skipUndispatched(ctx context.Context, reason string) {
	for _, id := range s.graph.Order {
		inst := s.graph.Instance(id)
		if inst.Status == graph.Pending || inst.Status == graph.Ready {
			inst.Diagnostic = reason
			s.transition(ctx, inst, graph.Skipped)
		}
	}
}

// depsSucceeded reports whether every dependency of inst has Succeeded.
func (s *Scheduler) depsSucceeded(inst *graph.Instance) bool {
	for _, depID := range inst.Needs {
		if s.graph.Instance(depID).Status != graph.Succeeded {
			return false
		}
	}
	return true
}

// settled reports whether no instance is Pending, Ready or Running.
func (s *Scheduler) settled() bool {
	for _, inst := range s.graph.Instances {
		if !inst.Status.IsTerminal() {
			return false
		}
	}
	return true
}

// transition applies a status change, enforcing the monotonic lifecycle,
// and notifies the listener when a terminal status is reached.
func (s *Scheduler) transition(ctx context.Context, inst *graph.Instance, next graph.Status) {
	if !inst.Status.CanTransition(next) {
		ctxlog.FromContext(ctx).Error("Illegal status transition ignored.",
			"instance", inst.ID.String(), "from", inst.Status.String(), "to", next.String())
		return
	}
	inst.Status = next

	if next.IsTerminal() && s.listener != nil {
		s.listener.InstanceFinished(inst)
	}
}
