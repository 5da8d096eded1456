package matrix

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gantryci/gantry/internal/workflow"
)

func TestExpandEmptyMatrix(t *testing.T) {
	assignments, err := Expand(nil)
	require.NoError(t, err)
	require.Len(t, assignments, 1)
	assert.Empty(t, assignments[0])
	assert.Equal(t, "", assignments[0].String())
}

func TestExpandSingleAxis(t *testing.T) {
	assignments, err := Expand([]*workflow.Axis{
		{Name: "channel", Values: []string{"stable", "nightly"}},
	})
	require.NoError(t, err)
	require.Len(t, assignments, 2)
	assert.Equal(t, "channel=stable", assignments[0].String())
	assert.Equal(t, "channel=nightly", assignments[1].String())
}

func TestExpandCartesianProduct(t *testing.T) {
	assignments, err := Expand([]*workflow.Axis{
		{Name: "os", Values: []string{"linux", "macos"}},
		{Name: "channel", Values: []string{"stable", "nightly", "beta"}},
	})
	require.NoError(t, err)
	require.Len(t, assignments, 6)

	// The last-declared axis iterates fastest.
	expected := []string{
		"os=linux,channel=stable",
		"os=linux,channel=nightly",
		"os=linux,channel=beta",
		"os=macos,channel=stable",
		"os=macos,channel=nightly",
		"os=macos,channel=beta",
	}
	for i, assignment := range assignments {
		assert.Equal(t, expected[i], assignment.String())
	}
}

func TestExpandAssignmentsAreUnique(t *testing.T) {
	assignments, err := Expand([]*workflow.Axis{
		{Name: "a", Values: []string{"1", "2"}},
		{Name: "b", Values: []string{"x", "y"}},
		{Name: "c", Values: []string{"p", "q"}},
	})
	require.NoError(t, err)
	require.Len(t, assignments, 8)

	seen := make(map[string]bool)
	for _, assignment := range assignments {
		key := assignment.String()
		assert.False(t, seen[key], "duplicate assignment %s", key)
		seen[key] = true
	}
}

func TestExpandIsDeterministic(t *testing.T) {
	axes := []*workflow.Axis{
		{Name: "a", Values: []string{"1", "2"}},
		{Name: "b", Values: []string{"x", "y"}},
	}

	first, err := Expand(axes)
	require.NoError(t, err)
	second, err := Expand(axes)
	require.NoError(t, err)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].String(), second[i].String())
	}
}

func TestExpandEmptyAxisFails(t *testing.T) {
	_, err := Expand([]*workflow.Axis{
		{Name: "channel", Values: []string{"stable"}},
		{Name: "os", Values: nil},
	})
	require.ErrorIs(t, err, ErrEmptyAxis)
	assert.ErrorContains(t, err, `"os"`)
}

func TestAssignmentValue(t *testing.T) {
	assignment := Assignment{
		{Axis: "channel", Value: "nightly"},
		{Axis: "os", Value: "linux"},
	}

	v, ok := assignment.Value("channel")
	require.True(t, ok)
	assert.Equal(t, "nightly", v)

	_, ok = assignment.Value("arch")
	assert.False(t, ok)
}
