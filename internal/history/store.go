// Package history persists run results to a local SQLite database so past
// runs can be listed after the process exits. It is an append-only log, not
// a coordination mechanism.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/gantryci/gantry/internal/report"
)

// Store wraps the SQLite database holding run history.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the history database at the given path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		workflow TEXT NOT NULL,
		event TEXT NOT NULL,
		branch TEXT,
		status TEXT NOT NULL,
		started_at TIMESTAMP NOT NULL,
		finished_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS instances (
		run_id TEXT NOT NULL REFERENCES runs(id),
		instance TEXT NOT NULL,
		status TEXT NOT NULL,
		failed_step TEXT,
		diagnostic TEXT,
		position INTEGER NOT NULL,
		UNIQUE(run_id, instance)
	);

	CREATE INDEX IF NOT EXISTS idx_instances_run ON instances(run_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// RunRecord is one row of the run log.
type RunRecord struct {
	ID         string
	Workflow   string
	Event      string
	Branch     string
	Status     string
	StartedAt  time.Time
	FinishedAt time.Time
}

// InstanceRecord is one instance outcome of a recorded run.
type InstanceRecord struct {
	Instance   string
	Status     string
	FailedStep string
	Diagnostic string
}

// RecordRun stores a finished run and its per-instance outcomes in one
// transaction.
func (s *Store) RecordRun(res *report.RunResult) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	status := "FAILED"
	if res.Succeeded {
		status = "SUCCEEDED"
	}

	_, err = tx.Exec(
		`INSERT INTO runs (id, workflow, event, branch, status, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		res.RunID, res.Workflow, res.Event, res.Branch, status, res.Started, res.Finished,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for i, o := range res.Outcomes {
		_, err = tx.Exec(
			`INSERT INTO instances (run_id, instance, status, failed_step, diagnostic, position)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			res.RunID, o.ID.String(), o.Status.String(), o.FailedStep, o.Diagnostic, i,
		)
		if err != nil {
			return fmt.Errorf("insert instance %s: %w", o.ID, err)
		}
	}

	return tx.Commit()
}

// RecentRuns returns the most recent runs, newest first.
func (s *Store) RecentRuns(limit int) ([]RunRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, workflow, event, branch, status, started_at, finished_at
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		var r RunRecord
		var branch sql.NullString
		if err := rows.Scan(&r.ID, &r.Workflow, &r.Event, &branch, &r.Status, &r.StartedAt, &r.FinishedAt); err != nil {
			return nil, err
		}
		r.Branch = branch.String
		records = append(records, r)
	}
	return records, rows.Err()
}

// RunInstances returns the instance outcomes of one recorded run, in the
// order they were reported.
func (s *Store) RunInstances(runID string) ([]InstanceRecord, error) {
	rows, err := s.db.Query(
		`SELECT instance, status, failed_step, diagnostic
		 FROM instances WHERE run_id = ? ORDER BY position`, runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []InstanceRecord
	for rows.Next() {
		var r InstanceRecord
		var failedStep, diagnostic sql.NullString
		if err := rows.Scan(&r.Instance, &r.Status, &failedStep, &diagnostic); err != nil {
			return nil, err
		}
		r.FailedStep = failedStep.String
		r.Diagnostic = diagnostic.String
		records = append(records, r)
	}
	return records, rows.Err()
}
