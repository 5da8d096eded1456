package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"

	"github.com/gantryci/gantry/internal/graph"
)

var (
	styleSucceeded = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	styleFailed    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	styleSkipped   = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	styleVerdict   = lipgloss.NewStyle().Bold(true)
)

// styledStatus colors a status name for terminal output.
func styledStatus(s graph.Status) string {
	switch s {
	case graph.Succeeded:
		return styleSucceeded.Render(s.String())
	case graph.Failed:
		return styleFailed.Render(s.String())
	case graph.Skipped:
		return styleSkipped.Render(s.String())
	}
	return s.String()
}

// Render writes the human-readable per-instance status table, in
// declaration/expansion order, followed by the overall verdict.
func (res *RunResult) Render(w io.Writer) {
	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
	for _, o := range res.Outcomes {
		detail := ""
		if o.Status == graph.Failed && o.FailedStep != "" {
			detail = "step " + o.FailedStep + " failed"
		} else if o.Status == graph.Skipped && o.Diagnostic != "" {
			detail = o.Diagnostic
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", o.ID.String(), styledStatus(o.Status), detail)
	}
	tw.Flush()

	verdict := styleSucceeded.Render("run succeeded")
	if !res.Succeeded {
		verdict = styleFailed.Render("run failed")
	}
	fmt.Fprintln(w, styleVerdict.Render(verdict))

	if !res.Succeeded {
		res.renderFailures(w)
	}
}

// renderFailures prints the first lines of each failed instance's
// diagnostic, so the cause is visible without scrolling through logs.
func (res *RunResult) renderFailures(w io.Writer) {
	for _, o := range res.Outcomes {
		if o.Status != graph.Failed || o.Diagnostic == "" {
			continue
		}
		fmt.Fprintf(w, "\n--- %s", o.ID.String())
		if o.FailedStep != "" {
			fmt.Fprintf(w, " (step %s)", o.FailedStep)
		}
		fmt.Fprintln(w)
		for _, line := range firstLines(o.Diagnostic, 10) {
			fmt.Fprintf(w, "  %s\n", line)
		}
	}
}

func firstLines(s string, n int) []string {
	lines := strings.Split(s, "\n")
	if len(lines) > n {
		lines = append(lines[:n], "...")
	}
	return lines
}
