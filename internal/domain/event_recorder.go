package domain

import (
	"context"
	"time"
)

//go:generate mockgen -source=event_recorder.go -destination=event_recorder_mock.go -package=domain

// Reminder lifecycle events emitted for audit recording.
const (
	EventFired    = "fired"
	EventSnoozed  = "snoozed"
	EventSkipped  = "skipped"
	EventAcked    = "acknowledged"
	EventAutoHalt = "auto_paused"
)

type ReminderEventRecord struct {
	EventID         string
	Kind            Kind
	Event           string
	OccurredAt      time.Time
	IntervalMinutes float64
	UserAway        bool
}

// ReminderEventRecorder persists reminder lifecycle events to an analytics
// sink. Recording is best-effort and must not fail the reminder path.
type ReminderEventRecorder interface {
	RecordEvents(ctx context.Context, records []ReminderEventRecord) error
	Flush(ctx context.Context) error
	Close() error
}
