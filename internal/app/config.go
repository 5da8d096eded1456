package app

import "errors"

// Config holds everything an App instance needs to run one workflow.
type Config struct {
	// WorkflowPath is a single .hcl file or a directory of them.
	WorkflowPath string
	// Workdir is the working directory job steps run in.
	Workdir string

	// Event and Branch form the trigger context for this invocation.
	Event  string
	Branch string

	// MaxConcurrency caps simultaneously running instances. Zero means
	// unbounded.
	MaxConcurrency int

	LogFormat string
	LogLevel  string

	// HistoryPath is the SQLite run-history database. Empty disables
	// recording.
	HistoryPath string
	// NotifyURL is an optional webhook receiving the final run result.
	NotifyURL string
}

// NewConfig validates a Config and returns it.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.WorkflowPath == "" {
		return nil, errors.New("WorkflowPath is a required configuration field and cannot be empty")
	}
	if cfg.MaxConcurrency < 0 {
		return nil, errors.New("MaxConcurrency cannot be negative")
	}
	return &cfg, nil
}
