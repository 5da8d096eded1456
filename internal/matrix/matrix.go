// Package matrix expands a job template's matrix axes into the concrete
// list of assignments, one per job instance.
package matrix

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gantryci/gantry/internal/workflow"
)

// ErrEmptyAxis is returned when a declared axis has no values. A matrix
// with an empty axis has an empty product, which is always a mistake in the
// workflow definition, so it is rejected before any expansion happens.
var ErrEmptyAxis = errors.New("matrix axis has no values")

// Binding is one axis name bound to one of its values.
type Binding struct {
	Axis  string
	Value string
}

// Assignment is an ordered set of bindings, one per declared axis. The
// zero-length assignment belongs to templates without a matrix.
type Assignment []Binding

// String renders the assignment in a stable, human-readable form, e.g.
// "channel=stable,os=linux". An empty assignment renders as "".
func (a Assignment) String() string {
	if len(a) == 0 {
		return ""
	}
	parts := make([]string, len(a))
	for i, b := range a {
		parts[i] = b.Axis + "=" + b.Value
	}
	return strings.Join(parts, ",")
}

// Value returns the value bound to the given axis.
func (a Assignment) Value(axis string) (string, bool) {
	for _, b := range a {
		if b.Axis == axis {
			return b.Value, true
		}
	}
	return "", false
}

// Expand produces the full Cartesian product of the given axes as an ordered
// list of assignments. Axis declaration order is preserved inside each
// assignment, and the last-declared axis iterates fastest, so repeated runs
// over the same spec always produce identically ordered instance lists.
//
// A nil or empty axis list yields exactly one empty assignment.
func Expand(axes []*workflow.Axis) ([]Assignment, error) {
	for _, axis := range axes {
		if len(axis.Values) == 0 {
			return nil, fmt.Errorf("axis %q: %w", axis.Name, ErrEmptyAxis)
		}
	}

	total := 1
	for _, axis := range axes {
		total *= len(axis.Values)
	}

	assignments := make([]Assignment, 0, total)
	current := make(Assignment, len(axes))

	var walk func(depth int)
	walk = func(depth int) {
		if depth == len(axes) {
			assignment := make(Assignment, len(current))
			copy(assignment, current)
			assignments = append(assignments, assignment)
			return
		}
		axis := axes[depth]
		for _, value := range axis.Values {
			current[depth] = Binding{Axis: axis.Name, Value: value}
			walk(depth + 1)
		}
	}
	walk(0)

	return assignments, nil
}
