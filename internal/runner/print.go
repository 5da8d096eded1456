package runner

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/gantryci/gantry/internal/ctxlog"
	"github.com/gantryci/gantry/internal/matrix"
)

// Print logs its parameters and always succeeds. Useful for inspecting what
// a step receives after matrix substitution.
type Print struct{}

// NewPrint creates a print runner.
func NewPrint() *Print {
	return &Print{}
}

// Run logs each parameter in sorted key order.
func (p *Print) Run(ctx context.Context, params map[string]string, assignment matrix.Assignment) (string, error) {
	logger := ctxlog.FromContext(ctx)

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		logger.Info("print", "key", k, "value", params[k], "matrix", assignment.String())
		lines = append(lines, fmt.Sprintf("%s = %q", k, params[k]))
	}
	return strings.Join(lines, "\n"), nil
}
