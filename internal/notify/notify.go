// Package notify posts the final run result to an external webhook. It is a
// best-effort notification sink: failures are logged and never affect the
// run's exit code.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gantryci/gantry/internal/ctxlog"
	"github.com/gantryci/gantry/internal/report"
)

// Webhook delivers run results as JSON POST requests.
type Webhook struct {
	url    string
	client *http.Client
}

// NewWebhook creates a notifier for the given URL.
func NewWebhook(url string) *Webhook {
	return &Webhook{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Send posts the run result. A non-2xx response is an error.
func (w *Webhook) Send(ctx context.Context, res *report.RunResult) error {
	logger := ctxlog.FromContext(ctx)

	payload, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("failed to encode run result: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to deliver notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("notification rejected with status %s", resp.Status)
	}

	logger.Debug("Notification delivered.", "url", w.url, "status", resp.Status)
	return nil
}
