package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/eventplan/eventplan/internal/model"
)

const webhookUserAgent = "EventPlan/1.0 Webhook"

// WebhookNotifier POSTs payloads to the tenant's configured webhook URL.
// Delivery is at-most-once: each payload gets a single attempt in a
// background goroutine and failures are logged, never surfaced.
type WebhookNotifier struct {
	client  *http.Client
	timeout time.Duration
}

// NewWebhookNotifier constructs a WebhookNotifier with the given per-delivery
// timeout.
func NewWebhookNotifier(timeout time.Duration) *WebhookNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookNotifier{
		client:  &http.Client{Timeout: timeout},
		timeout: timeout,
	}
}

// Notify implements Notifier. It returns immediately; the HTTP call happens
// on its own goroutine with its own deadline so it can never hold up (or hold
// locks for) the mutation that triggered it.
func (w *WebhookNotifier) Notify(_ context.Context, client model.Client, typ EventType, data any) {
	if client.WebhookURL == "" {
		slog.Debug("webhook URL not configured", "client_id", client.ID, "event", typ)
		return
	}

	payload := Payload{
		Event:     typ,
		Timestamp: time.Now().UTC(),
		ClientID:  client.ID,
		Data:      data,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		slog.Warn("failed to marshal webhook payload", "client_id", client.ID, "event", typ, "error", err)
		return
	}

	url := client.WebhookURL
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
		defer cancel()

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			slog.Warn("failed to build webhook request", "url", url, "error", err)
			return
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", webhookUserAgent)

		resp, err := w.client.Do(req)
		if err != nil {
			slog.Warn("failed to deliver webhook", "url", url, "event", typ, "error", err)
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			slog.Warn("webhook endpoint rejected delivery", "url", url, "event", typ, "status", resp.StatusCode)
			return
		}
		slog.Info("webhook delivered", "client_id", client.ID, "event", typ)
	}()
}
