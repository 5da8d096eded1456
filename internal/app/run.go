package app

import (
	"context"

	"github.com/google/uuid"

	"github.com/gantryci/gantry/internal/ctxlog"
	"github.com/gantryci/gantry/internal/executor"
	"github.com/gantryci/gantry/internal/history"
	"github.com/gantryci/gantry/internal/notify"
	"github.com/gantryci/gantry/internal/report"
	"github.com/gantryci/gantry/internal/scheduler"
	"github.com/gantryci/gantry/internal/trigger"
	"github.com/gantryci/gantry/internal/workflow"
)

// Run executes the workflow for the configured trigger context. The second
// return value reports whether the run was initiated at all: a trigger
// filter rejection is not an error, the run simply never starts.
func (a *App) Run(ctx context.Context) (*report.RunResult, bool, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)

	tc := trigger.Context{Event: workflow.Event(a.config.Event), Branch: a.config.Branch}
	if !trigger.Allows(a.spec.On, tc) {
		a.logger.Info("Trigger filter rejected the event, run not initiated.",
			"workflow", a.spec.Name, "event", a.config.Event, "branch", a.config.Branch)
		return nil, false, nil
	}

	g, err := a.buildGraph(ctx)
	if err != nil {
		return nil, true, err
	}
	a.logger.Debug("Job graph built.", "instances", g.Len())

	reporter := report.New(g.Order)

	if g.Len() > 0 {
		a.logger.Info("🚀 Starting run.", "workflow", a.spec.Name, "instances", g.Len())
		sched := scheduler.New(g, executor.New(a.registry), reporter,
			scheduler.Config{MaxConcurrency: a.config.MaxConcurrency})
		sched.Run(ctx)
		a.logger.Info("🏁 Run finished.")
	} else {
		a.logger.Warn("Workflow has no jobs, nothing to execute.")
	}

	result := reporter.Result()
	result.RunID = uuid.NewString()
	result.Workflow = a.spec.Name
	result.Event = a.config.Event
	result.Branch = a.config.Branch

	a.recordHistory(result)
	a.sendNotification(ctx, result)

	return result, true, nil
}

// recordHistory appends the result to the run-history database. Recording
// is best-effort: a storage failure is logged, not propagated.
func (a *App) recordHistory(result *report.RunResult) {
	if a.config.HistoryPath == "" {
		return
	}

	store, err := history.Open(a.config.HistoryPath)
	if err != nil {
		a.logger.Warn("Failed to open run history, result not recorded.", "error", err)
		return
	}
	defer store.Close()

	if err := store.RecordRun(result); err != nil {
		a.logger.Warn("Failed to record run history.", "error", err)
	}
}

// sendNotification delivers the result to the configured webhook, if any.
// Delivery is best-effort and never affects the run's outcome.
func (a *App) sendNotification(ctx context.Context, result *report.RunResult) {
	if a.config.NotifyURL == "" {
		return
	}

	// A cancelled run still reports its partial results.
	ctx = context.WithoutCancel(ctx)
	if err := notify.NewWebhook(a.config.NotifyURL).Send(ctx, result); err != nil {
		a.logger.Warn("Failed to deliver run notification.", "error", err)
	}
}
