package domain

import "context"

//go:generate mockgen -source=state_repository.go -destination=state_repository_mock.go -package=domain

// StateRepository is the persistence contract for engine state. Entries for
// each kind are stored independently so that reading one never deserializes
// the others. Implementations report failure through errors and must never
// panic; the state manager degrades to cache-only operation on failure.
type StateRepository interface {
	GetReminderState(ctx context.Context, kind Kind) (*ReminderState, error)
	SaveReminderState(ctx context.Context, kind Kind, state *ReminderState) error
	GetAppState(ctx context.Context) (*AppState, error)
	SaveAppState(ctx context.Context, state *AppState) error
	// Available reports whether the underlying mechanism is currently usable.
	Available(ctx context.Context) bool
}
