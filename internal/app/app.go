// Package app wires the workflow loader, graph builder, scheduler, executor
// and reporter into one runnable application instance.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/gantryci/gantry/internal/ctxlog"
	"github.com/gantryci/gantry/internal/graph"
	"github.com/gantryci/gantry/internal/runner"
	"github.com/gantryci/gantry/internal/workflow"
)

// Loader is the contract for a format-specific workflow loader.
type Loader interface {
	Load(ctx context.Context, path string) (*workflow.Spec, error)
}

// App encapsulates one invocation's dependencies, configuration and
// lifecycle. The workflow spec is loaded once at construction and is
// read-only afterwards.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	config   *Config
	spec     *workflow.Spec
	registry *runner.Registry
}

// NewApp constructs a fully initialized App: it configures an isolated
// logger, loads the workflow document, and registers the built-in step
// runners.
func NewApp(outW io.Writer, config *Config, loader Loader) (*App, error) {
	logger := newLogger(config.LogLevel, config.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	spec, err := loader.Load(ctx, config.WorkflowPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load workflow: %w", err)
	}
	logger.Debug("Workflow definition loaded.", "workflow", spec.Name)

	return &App{
		outW:     outW,
		logger:   logger,
		config:   config,
		spec:     spec,
		registry: defaultRegistry(config.Workdir),
	}, nil
}

// Spec returns the loaded workflow spec. This is primarily for testing.
func (a *App) Spec() *workflow.Spec {
	return a.spec
}

// defaultRegistry registers the built-in step runners.
func defaultRegistry(workdir string) *runner.Registry {
	reg := runner.New()
	reg.Register("shell", runner.NewShell(workdir))
	reg.Register("checkout", runner.NewCheckout(workdir))
	reg.Register("toolchain", runner.NewToolchain())
	reg.Register("print", runner.NewPrint())
	return reg
}

// buildGraph expands the spec into the validated instance graph and checks
// every step's runner reference, so that all fatal errors surface before
// any job executes.
func (a *App) buildGraph(ctx context.Context) (*graph.Graph, error) {
	g, err := graph.Build(ctx, a.spec)
	if err != nil {
		return nil, fmt.Errorf("failed to build job graph: %w", err)
	}

	var uses []string
	for _, job := range a.spec.Jobs {
		for _, step := range job.Steps {
			uses = append(uses, step.Uses)
		}
	}
	if err := a.registry.Validate(uses); err != nil {
		return nil, err
	}

	return g, nil
}

// Validate loads and validates the workflow without executing anything. It
// returns the instance graph so callers can present the expansion.
func (a *App) Validate(ctx context.Context) (*graph.Graph, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	return a.buildGraph(ctx)
}
