package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// WebhookEmbed is one rich embed attached to a webhook message.
type WebhookEmbed struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Timestamp   string `json:"timestamp,omitempty"`
}

// DiscordClient posts messages to Discord-compatible webhook URLs.
type DiscordClient struct {
	httpClient *http.Client
}

// NewDiscordClient creates a webhook sender.
func NewDiscordClient() *DiscordClient {
	return &DiscordClient{
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Send posts one message to the webhook. The webhook URL is per-call because
// deploy requests may carry their own notification target.
func (c *DiscordClient) Send(ctx context.Context, webhookURL, content string, embeds []WebhookEmbed) error {
	payload := struct {
		Content string         `json:"content"`
		Embeds  []WebhookEmbed `json:"embeds"`
	}{Content: content, Embeds: embeds}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("webhook returned status %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}
