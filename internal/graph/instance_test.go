package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInstanceIDString(t *testing.T) {
	assert.Equal(t, "format", InstanceID{Job: "format"}.String())
	assert.Equal(t, "test[channel=nightly]", InstanceID{Job: "test", Variant: "channel=nightly"}.String())
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "PENDING", Pending.String())
	assert.Equal(t, "RUNNING", Running.String())
	assert.Equal(t, "SKIPPED", Skipped.String())
	assert.Equal(t, "UNKNOWN", Status(99).String())
}

func TestStatusIsTerminal(t *testing.T) {
	for _, s := range []Status{Pending, Ready, Running} {
		assert.False(t, s.IsTerminal(), s.String())
	}
	for _, s := range []Status{Succeeded, Failed, Skipped} {
		assert.True(t, s.IsTerminal(), s.String())
	}
}

func TestStatusCanTransition(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{Pending, Ready, true},
		{Pending, Skipped, true},
		{Pending, Running, false},
		{Pending, Succeeded, false},
		{Ready, Running, true},
		{Ready, Skipped, true},
		{Ready, Succeeded, false},
		{Running, Succeeded, true},
		{Running, Failed, true},
		{Running, Skipped, false},
		{Succeeded, Failed, false},
		{Failed, Running, false},
		{Skipped, Ready, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.from.CanTransition(tt.to),
			"%s -> %s", tt.from, tt.to)
	}
}
