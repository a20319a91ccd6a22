package notifier

import (
	"context"
	"log/slog"
	"time"

	"github.com/KasumiMercury/primind-wellness-reminder/internal/domain"
)

const defaultMaxRetries = 3

// webhookPayload is the wire shape of a fired reminder delivered to the
// notification endpoint.
type webhookPayload struct {
	Kind         string `json:"kind"`
	Title        string `json:"title"`
	Body         string `json:"body"`
	SoundEnabled bool   `json:"sound_enabled"`
	FiredAt      int64  `json:"fired_at"`
}

func payloadFrom(n *domain.Notification) webhookPayload {
	return webhookPayload{
		Kind:         n.Kind.String(),
		Title:        n.Title,
		Body:         n.Body,
		SoundEnabled: n.SoundEnabled,
		FiredAt:      n.FiredAt.UnixMilli(),
	}
}

// LogNotifier writes notifications to the log only. It is the fallback
// when no delivery endpoint is configured.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) Notify(ctx context.Context, notification *domain.Notification) error {
	slog.InfoContext(ctx, "reminder notification",
		slog.String("kind", notification.Kind.String()),
		slog.String("title", notification.Title),
		slog.Bool("sound_enabled", notification.SoundEnabled),
		slog.Time("fired_at", notification.FiredAt),
	)
	return nil
}

func backoffFor(attempt int) time.Duration {
	return time.Duration(1<<(attempt-1)) * 100 * time.Millisecond
}
