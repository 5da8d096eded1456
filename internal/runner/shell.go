package runner

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/gantryci/gantry/internal/ctxlog"
	"github.com/gantryci/gantry/internal/matrix"
)

// Shell runs a step's `command` parameter through the system shell. The
// spawned process is the external command-execution collaborator: the core
// only sequences steps and observes the exit status.
type Shell struct {
	// Workdir is the working directory for spawned commands. Empty means
	// the current directory.
	Workdir string
}

// NewShell creates a shell runner rooted at the given working directory.
func NewShell(workdir string) *Shell {
	return &Shell{Workdir: workdir}
}

// Run executes params["command"] with `sh -c`. Matrix bindings are exported
// to the process as GANTRY_MATRIX_<AXIS> environment variables. The combined
// output is returned as the diagnostic, truncated for reporting.
func (s *Shell) Run(ctx context.Context, params map[string]string, assignment matrix.Assignment) (string, error) {
	command, ok := params["command"]
	if !ok || command == "" {
		return "", fmt.Errorf("shell step requires a non-empty command parameter")
	}

	logger := ctxlog.FromContext(ctx)
	logger.Debug("Spawning shell command.", "command", command, "workdir", s.Workdir)

	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Dir = s.Workdir
	cmd.Env = append(os.Environ(), matrixEnv(assignment)...)

	output, err := cmd.CombinedOutput()
	diagnostic := truncate(strings.TrimSpace(string(output)), 4096)
	if err != nil {
		return diagnostic, fmt.Errorf("command %q: %w", command, err)
	}
	return diagnostic, nil
}

// matrixEnv renders the assignment as environment variables, e.g.
// channel=stable becomes GANTRY_MATRIX_CHANNEL=stable.
func matrixEnv(assignment matrix.Assignment) []string {
	env := make([]string, 0, len(assignment))
	for _, b := range assignment {
		key := "GANTRY_MATRIX_" + strings.ToUpper(strings.ReplaceAll(b.Axis, "-", "_"))
		env = append(env, key+"="+b.Value)
	}
	return env
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "... (truncated)"
}
