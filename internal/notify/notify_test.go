package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gantryci/gantry/internal/graph"
	"github.com/gantryci/gantry/internal/report"
)

func sampleResult() *report.RunResult {
	return &report.RunResult{
		Workflow: "ci",
		Event:    "push",
		Branch:   "main",
		RunID:    "run-1",
		Outcomes: []report.Outcome{
			{ID: graph.InstanceID{Job: "build", Variant: "channel=stable"}, Status: graph.Succeeded},
		},
		Succeeded: true,
	}
}

func TestSendPostsRunResult(t *testing.T) {
	var (
		gotMethod      string
		gotContentType string
		gotBody        []byte
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	err := NewWebhook(server.URL).Send(context.Background(), sampleResult())
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "application/json", gotContentType)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(gotBody, &payload))
	assert.Equal(t, "ci", payload["workflow"])
	assert.Equal(t, "run-1", payload["run_id"])
	assert.Equal(t, true, payload["succeeded"])

	outcomes, ok := payload["outcomes"].([]any)
	require.True(t, ok)
	require.Len(t, outcomes, 1)
	outcome := outcomes[0].(map[string]any)
	assert.Equal(t, "build[channel=stable]", outcome["instance"])
	assert.Equal(t, "SUCCEEDED", outcome["status"])
}

func TestSendRejectedStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	err := NewWebhook(server.URL).Send(context.Background(), sampleResult())
	assert.ErrorContains(t, err, "403")
}

func TestSendUnreachableEndpoint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	server.Close()

	err := NewWebhook(server.URL).Send(context.Background(), sampleResult())
	assert.ErrorContains(t, err, "failed to deliver")
}
