package service

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/nexfinity/hosting-gateway/internal/mail"
	"github.com/nexfinity/hosting-gateway/internal/upstream"
)

type mailSender interface {
	Send(msg mail.Message) error
}

type webhookSender interface {
	Send(ctx context.Context, webhookURL, content string, embeds []upstream.WebhookEmbed) error
}

// NotificationFanout delivers post-deploy notifications over email and a
// chat webhook. Both sends are best-effort: they run only after the primary
// action has committed upstream, each failure is logged to the operator log
// and swallowed, and neither can alter the caller's result.
type NotificationFanout struct {
	mailer         mailSender
	webhooks       webhookSender
	defaultEmail   string
	defaultWebhook string
}

// NewNotificationFanout creates a fanout. mailer may be nil when SMTP is not
// configured; defaultEmail and defaultWebhook are the environment fallbacks
// used when a request carries no explicit target.
func NewNotificationFanout(mailer mailSender, webhooks webhookSender, defaultEmail, defaultWebhook string) *NotificationFanout {
	return &NotificationFanout{
		mailer:         mailer,
		webhooks:       webhooks,
		defaultEmail:   defaultEmail,
		defaultWebhook: defaultWebhook,
	}
}

// DeployNotification describes one provisioned instance to announce.
type DeployNotification struct {
	Email      string // explicit target; empty falls back to the default
	WebhookURL string
	ServerName string
	ServerID   string
	ServerUUID string
	CreatedAt  string
}

// DeploySucceeded fans the notification out to every configured destination
// and waits for both attempts. A destination with no target (explicit or
// fallback) is skipped, not an error.
func (f *NotificationFanout) DeploySucceeded(ctx context.Context, n DeployNotification) {
	var wg sync.WaitGroup

	if to := firstNonEmpty(n.Email, f.defaultEmail); to != "" && f.mailer != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := f.mailer.Send(mail.Message{
				To:      to,
				Subject: fmt.Sprintf("Your server %q is provisioning", n.ServerName),
				Text: fmt.Sprintf("Server %s (%s) has been created and is provisioning. UUID: %s\n\nIf this was not requested, contact support.",
					n.ServerName, n.ServerID, n.ServerUUID),
				HTML: fmt.Sprintf("<p>Server <strong>%s</strong> (%s) has been created and is provisioning.</p><p>UUID: <code>%s</code></p>",
					n.ServerName, n.ServerID, n.ServerUUID),
			})
			if err != nil {
				log.Printf("[Notify] deploy email failed: %v", err)
			}
		}()
	}

	if url := firstNonEmpty(n.WebhookURL, f.defaultWebhook); url != "" && f.webhooks != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			content := fmt.Sprintf("Server **%s** (%s) created, now provisioning.", n.ServerName, n.ServerID)
			err := f.webhooks.Send(ctx, url, content, []upstream.WebhookEmbed{{
				Title:       n.ServerName,
				Description: fmt.Sprintf("ID: %s\nUUID: %s", n.ServerID, n.ServerUUID),
				Timestamp:   n.CreatedAt,
			}})
			if err != nil {
				log.Printf("[Notify] deploy webhook failed: %v", err)
			}
		}()
	}

	wg.Wait()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
