// Package cli defines the gantry command tree.
package cli

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gantryci/gantry/internal/app"
	"github.com/gantryci/gantry/internal/hcl"
	"github.com/gantryci/gantry/internal/history"
	"github.com/gantryci/gantry/internal/workflow"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// rootFlags holds the flags shared by every command.
type rootFlags struct {
	logLevel  string
	logFormat string
}

// Execute runs the gantry command tree against the given arguments, writing
// all output to outW. The returned error may be an *ExitError carrying the
// process exit code.
func Execute(outW io.Writer, args []string) error {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:           "gantry",
		Short:         "A declarative, local-first CI workflow runner",
		Long:          "Gantry expands a declarative workflow into a job graph and executes it,\nrespecting dependency order and matrix fan-out.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "info", "Logging level: 'debug', 'info', 'warn' or 'error'.")
	root.PersistentFlags().StringVar(&flags.logFormat, "log-format", "text", "Log output format: 'text' or 'json'.")

	root.AddCommand(newRunCommand(outW, flags))
	root.AddCommand(newValidateCommand(outW, flags))
	root.AddCommand(newHistoryCommand(outW, flags))

	root.SetArgs(args)
	root.SetOut(outW)
	return root.Execute()
}

// validateRootFlags rejects unknown logging options before any work starts.
func validateRootFlags(flags *rootFlags) error {
	switch strings.ToLower(flags.logFormat) {
	case "text", "json":
	default:
		return &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}
	switch strings.ToLower(flags.logLevel) {
	case "debug", "info", "warn", "error":
	default:
		return &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}
	return nil
}

func newRunCommand(outW io.Writer, flags *rootFlags) *cobra.Command {
	var (
		event          string
		branch         string
		maxConcurrency int
		workdir        string
		historyDB      string
		notifyURL      string
	)

	cmd := &cobra.Command{
		Use:   "run <workflow.hcl|dir>",
		Short: "Run a workflow for a trigger event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateRootFlags(flags); err != nil {
				return err
			}
			if !workflow.KnownEvent(event) {
				return &ExitError{Code: 2, Message: fmt.Sprintf("unknown event kind %q", event)}
			}

			config, err := app.NewConfig(app.Config{
				WorkflowPath:   args[0],
				Workdir:        workdir,
				Event:          event,
				Branch:         branch,
				MaxConcurrency: maxConcurrency,
				LogLevel:       flags.logLevel,
				LogFormat:      flags.logFormat,
				HistoryPath:    historyDB,
				NotifyURL:      notifyURL,
			})
			if err != nil {
				return &ExitError{Code: 2, Message: err.Error()}
			}

			application, err := app.NewApp(outW, config, hcl.NewLoader())
			if err != nil {
				return &ExitError{Code: 2, Message: err.Error()}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			result, triggered, err := application.Run(ctx)
			if err != nil {
				return &ExitError{Code: 2, Message: err.Error()}
			}
			if !triggered {
				fmt.Fprintf(outW, "run not triggered: event %q (branch %q) does not match the workflow's trigger rules\n", event, branch)
				return nil
			}

			result.Render(outW)
			if !result.Succeeded {
				return &ExitError{Code: 1, Message: "run failed"}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&event, "event", string(workflow.EventWorkflowDispatch), "Trigger event kind: push, pull_request or workflow_dispatch.")
	cmd.Flags().StringVar(&branch, "branch", "", "Branch the trigger event refers to.")
	cmd.Flags().IntVar(&maxConcurrency, "max-concurrency", 0, "Maximum simultaneously running job instances. 0 is unbounded.")
	cmd.Flags().StringVar(&workdir, "workdir", ".", "Working directory job steps run in.")
	cmd.Flags().StringVar(&historyDB, "history-db", defaultHistoryPath(), "Run history database. Empty disables recording.")
	cmd.Flags().StringVar(&notifyURL, "notify-url", "", "Webhook URL receiving the final run result as JSON.")

	return cmd
}

func newValidateCommand(outW io.Writer, flags *rootFlags) *cobra.Command {
	var workdir string

	cmd := &cobra.Command{
		Use:   "validate <workflow.hcl|dir>",
		Short: "Validate a workflow and show its expanded job instances",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateRootFlags(flags); err != nil {
				return err
			}

			config, err := app.NewConfig(app.Config{
				WorkflowPath: args[0],
				Workdir:      workdir,
				LogLevel:     flags.logLevel,
				LogFormat:    flags.logFormat,
			})
			if err != nil {
				return &ExitError{Code: 2, Message: err.Error()}
			}

			application, err := app.NewApp(outW, config, hcl.NewLoader())
			if err != nil {
				return &ExitError{Code: 2, Message: err.Error()}
			}

			g, err := application.Validate(cmd.Context())
			if err != nil {
				return &ExitError{Code: 2, Message: err.Error()}
			}

			fmt.Fprintf(outW, "workflow %q is valid: %d job instance(s)\n", application.Spec().Name, g.Len())
			tw := tabwriter.NewWriter(outW, 2, 4, 2, ' ', 0)
			for _, id := range g.Order {
				inst := g.Instance(id)
				needs := make([]string, 0, len(inst.Needs))
				for _, dep := range inst.Needs {
					needs = append(needs, dep.String())
				}
				fmt.Fprintf(tw, "%s\t%d step(s)\tneeds: %s\n", id.String(), len(inst.Steps), strings.Join(needs, ", "))
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&workdir, "workdir", ".", "Working directory job steps would run in.")
	return cmd
}

func newHistoryCommand(outW io.Writer, flags *rootFlags) *cobra.Command {
	var (
		historyDB string
		limit     int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateRootFlags(flags); err != nil {
				return err
			}

			store, err := history.Open(historyDB)
			if err != nil {
				return &ExitError{Code: 2, Message: fmt.Sprintf("failed to open run history: %v", err)}
			}
			defer store.Close()

			runs, err := store.RecentRuns(limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(outW, "no recorded runs")
				return nil
			}

			tw := tabwriter.NewWriter(outW, 2, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "RUN\tWORKFLOW\tEVENT\tBRANCH\tSTATUS\tSTARTED")
			for _, r := range runs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
					r.ID, r.Workflow, r.Event, r.Branch, r.Status, r.StartedAt.Format("2006-01-02 15:04:05"))
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&historyDB, "history-db", defaultHistoryPath(), "Run history database.")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to list.")
	return cmd
}

// defaultHistoryPath places the run history under the user's home
// directory, falling back to the current directory when home is unknown.
func defaultHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "gantry-history.db"
	}
	return filepath.Join(home, ".gantry", "history.db")
}
