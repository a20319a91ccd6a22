package domain

import (
	"context"
	"time"
)

//go:generate mockgen -source=notifier.go -destination=notifier_mock.go -package=domain

// Notification is the payload handed to the notification collaborator when a
// reminder fires.
type Notification struct {
	Kind         Kind
	Title        string
	Body         string
	SoundEnabled bool
	FiredAt      time.Time
}

// Notifier delivers reminder notifications. Dispatch is fire-and-forget from
// the timer's point of view: failure is logged, never blocks the next tick.
type Notifier interface {
	Notify(ctx context.Context, notification *Notification) error
}
