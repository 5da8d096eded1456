// Package testutil provides a harness for end-to-end tests that run a
// workflow document through the full load/build/schedule/execute pipeline.
package testutil

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gantryci/gantry/internal/app"
	"github.com/gantryci/gantry/internal/hcl"
	"github.com/gantryci/gantry/internal/report"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// RunOptions tweaks a harness invocation.
type RunOptions struct {
	Event          string
	Branch         string
	MaxConcurrency int
}

// HarnessResult holds the outcomes of an end-to-end run.
type HarnessResult struct {
	Result    *report.RunResult
	Triggered bool
	Err       error
	LogOutput string
}

// RunWorkflow writes the workflow document to a temporary directory and
// runs it end to end. Steps execute against the temporary directory, so
// shell steps in tests should stick to portable commands.
func RunWorkflow(t *testing.T, document string, opts RunOptions) *HarnessResult {
	t.Helper()

	tmpDir := t.TempDir()
	workflowPath := filepath.Join(tmpDir, "workflow.hcl")
	require.NoError(t, os.WriteFile(workflowPath, []byte(document), 0o644))

	if opts.Event == "" {
		opts.Event = "workflow_dispatch"
	}

	logBuffer := &SafeBuffer{}

	config, err := app.NewConfig(app.Config{
		WorkflowPath:   workflowPath,
		Workdir:        tmpDir,
		Event:          opts.Event,
		Branch:         opts.Branch,
		MaxConcurrency: opts.MaxConcurrency,
		LogLevel:       "debug",
		LogFormat:      "text",
	})
	require.NoError(t, err)

	application, err := app.NewApp(logBuffer, config, hcl.NewLoader())
	if err != nil {
		return &HarnessResult{Err: err, LogOutput: logBuffer.String()}
	}

	result, triggered, err := application.Run(context.Background())
	return &HarnessResult{
		Result:    result,
		Triggered: triggered,
		Err:       err,
		LogOutput: logBuffer.String(),
	}
}
