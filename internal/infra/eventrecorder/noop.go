package eventrecorder

import (
	"context"

	"github.com/KasumiMercury/primind-wellness-reminder/internal/domain"
)

type noopRecorder struct{}

func NewNoopRecorder() domain.ReminderEventRecorder {
	return &noopRecorder{}
}

func (n *noopRecorder) RecordEvents(_ context.Context, _ []domain.ReminderEventRecord) error {
	return nil
}

func (n *noopRecorder) Flush(_ context.Context) error {
	return nil
}

func (n *noopRecorder) Close() error {
	return nil
}
