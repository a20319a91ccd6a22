//go:build !gcloud

package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/KasumiMercury/primind-wellness-reminder/internal/config"
	"github.com/KasumiMercury/primind-wellness-reminder/internal/domain"
)

// WebhookNotifier POSTs fired reminders to a configured endpoint with
// exponential backoff.
type WebhookNotifier struct {
	url        string
	httpClient *http.Client
	maxRetries int
}

func NewWebhookNotifier(url string, maxRetries int) *WebhookNotifier {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	return &WebhookNotifier{
		url: url,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		maxRetries: maxRetries,
	}
}

// NewFromConfig builds the platform notifier: the webhook client when an
// endpoint is configured, the log-only fallback otherwise. The returned
// closer releases client resources on shutdown.
func NewFromConfig(_ context.Context, cfg config.NotifierConfig) (domain.Notifier, func() error, error) {
	if cfg.WebhookURL == "" {
		slog.Info("no notification webhook configured, logging notifications only")
		return NewLogNotifier(), func() error { return nil }, nil
	}
	n := NewWebhookNotifier(cfg.WebhookURL, cfg.MaxRetries)
	return n, func() error { return nil }, nil
}

func (n *WebhookNotifier) Notify(ctx context.Context, notification *domain.Notification) error {
	reqBody, err := json.Marshal(payloadFrom(notification))
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < n.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := backoffFor(attempt)
			slog.DebugContext(ctx, "retrying notification delivery",
				slog.String("kind", notification.Kind.String()),
				slog.Int("attempt", attempt+1),
				slog.Duration("backoff", backoff),
			)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		if err := n.doRequest(ctx, reqBody, notification.Kind.String()); err == nil {
			return nil
		} else {
			lastErr = err
		}
	}

	slog.ErrorContext(ctx, "all retries exhausted for notification delivery",
		slog.String("kind", notification.Kind.String()),
		slog.Int("max_retries", n.maxRetries),
		slog.String("error", lastErr.Error()),
	)
	return fmt.Errorf("failed to deliver notification after %d retries: %w", n.maxRetries, lastErr)
}

func (n *WebhookNotifier) doRequest(ctx context.Context, reqBody []byte, kind string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(reqBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		slog.WarnContext(ctx, "failed to send notification webhook",
			slog.String("kind", kind),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusNoContent {
		slog.WarnContext(ctx, "unexpected status code from notification webhook",
			slog.String("kind", kind),
			slog.Int("status_code", resp.StatusCode),
		)
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	slog.DebugContext(ctx, "notification delivered", slog.String("kind", kind))
	return nil
}
