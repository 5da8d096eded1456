package history

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gantryci/gantry/internal/graph"
	"github.com/gantryci/gantry/internal/report"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleResult(runID string, started time.Time) *report.RunResult {
	return &report.RunResult{
		Workflow: "ci",
		Event:    "push",
		Branch:   "main",
		RunID:    runID,
		Started:  started,
		Finished: started.Add(time.Minute),
		Outcomes: []report.Outcome{
			{ID: graph.InstanceID{Job: "build", Variant: "channel=stable"}, Status: graph.Succeeded},
			{ID: graph.InstanceID{Job: "build", Variant: "channel=nightly"}, Status: graph.Failed, FailedStep: "compile", Diagnostic: "exit status 1"},
			{ID: graph.InstanceID{Job: "test", Variant: "channel=stable"}, Status: graph.Skipped, Diagnostic: "dependency build[channel=nightly] failed"},
		},
		Succeeded: false,
	}
}

func TestRecordAndReadBackRun(t *testing.T) {
	store := openTestStore(t)
	started := time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC)

	require.NoError(t, store.RecordRun(sampleResult("run-1", started)))

	runs, err := store.RecentRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "run-1", runs[0].ID)
	assert.Equal(t, "ci", runs[0].Workflow)
	assert.Equal(t, "push", runs[0].Event)
	assert.Equal(t, "main", runs[0].Branch)
	assert.Equal(t, "FAILED", runs[0].Status)

	instances, err := store.RunInstances("run-1")
	require.NoError(t, err)
	require.Len(t, instances, 3)

	// Instance rows come back in report order.
	assert.Equal(t, "build[channel=stable]", instances[0].Instance)
	assert.Equal(t, "SUCCEEDED", instances[0].Status)
	assert.Equal(t, "build[channel=nightly]", instances[1].Instance)
	assert.Equal(t, "FAILED", instances[1].Status)
	assert.Equal(t, "compile", instances[1].FailedStep)
	assert.Equal(t, "exit status 1", instances[1].Diagnostic)
	assert.Equal(t, "SKIPPED", instances[2].Status)
}

func TestRecentRunsNewestFirst(t *testing.T) {
	store := openTestStore(t)
	base := time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC)

	require.NoError(t, store.RecordRun(sampleResult("run-old", base)))
	require.NoError(t, store.RecordRun(sampleResult("run-new", base.Add(time.Hour))))

	runs, err := store.RecentRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-new", runs[0].ID)
	assert.Equal(t, "run-old", runs[1].ID)
}

func TestRecentRunsHonorsLimit(t *testing.T) {
	store := openTestStore(t)
	base := time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC)

	for i, id := range []string{"run-1", "run-2", "run-3"} {
		require.NoError(t, store.RecordRun(sampleResult(id, base.Add(time.Duration(i)*time.Minute))))
	}

	runs, err := store.RecentRuns(2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestDuplicateRunIDFails(t *testing.T) {
	store := openTestStore(t)
	started := time.Now().UTC()

	require.NoError(t, store.RecordRun(sampleResult("run-1", started)))
	assert.Error(t, store.RecordRun(sampleResult("run-1", started)))
}

func TestRunInstancesUnknownRun(t *testing.T) {
	store := openTestStore(t)

	instances, err := store.RunInstances("missing")
	require.NoError(t, err)
	assert.Empty(t, instances)
}

func TestOpenCreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "history.db")

	store, err := Open(path)
	require.NoError(t, err)
	defer store.Close()

	assert.FileExists(t, path)
}
