package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// WebhookMessenger implements DirectMessenger against a chat webhook
// endpoint.
type WebhookMessenger struct {
	url        string
	token      string
	httpClient *http.Client
}

// WebhookConfig holds configuration for a WebhookMessenger.
type WebhookConfig struct {
	URL     string
	Token   string
	Timeout time.Duration
}

// NewWebhookMessenger creates a webhook-backed messenger.
func NewWebhookMessenger(cfg WebhookConfig) *WebhookMessenger {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &WebhookMessenger{
		url:   cfg.URL,
		token: cfg.Token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type webhookRequest struct {
	Handle string `json:"handle"`
	Text   string `json:"text"`
}

type webhookResponse struct {
	OK     bool   `json:"ok"`
	Status string `json:"status"`
}

// Send posts the message to the webhook.
func (m *WebhookMessenger) Send(ctx context.Context, handle, text string) (Receipt, error) {
	if m.url == "" {
		return Receipt{}, fmt.Errorf("webhook URL not configured")
	}

	jsonData, err := json.Marshal(webhookRequest{Handle: handle, Text: text})
	if err != nil {
		return Receipt{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", m.url, bytes.NewReader(jsonData))
	if err != nil {
		return Receipt{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if m.token != "" {
		req.Header.Set("Authorization", "Bearer "+m.token)
	}

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return Receipt{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Receipt{}, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Receipt{}, fmt.Errorf("webhook returned status %d: %s", resp.StatusCode, string(body))
	}

	var wr webhookResponse
	if err := json.Unmarshal(body, &wr); err != nil {
		return Receipt{}, fmt.Errorf("failed to parse response: %w", err)
	}

	status := wr.Status
	if status == "" {
		status = "sent"
	}
	return Receipt{Channel: "direct-message", Target: handle, Status: status, OK: wr.OK}, nil
}
