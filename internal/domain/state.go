package domain

import (
	"maps"
	"time"
)

const (
	defaultWaterIntervalMinutes   = 30
	defaultStandupIntervalMinutes = 60
)

// ReminderSettings holds the user-configurable part of a reminder state.
type ReminderSettings struct {
	IntervalMinutes float64
	Enabled         bool
	SoundEnabled    bool
	LastReminderAt  *time.Time
}

// ReminderState is the canonical state of a single reminder kind.
//
// Invariants: IsPaused implies IsActive; TimeRemaining is never negative.
// While active and unpaused, TimeRemaining is derivable as
// max(0, NextReminderAt - now); it is frozen otherwise. NextReminderAt is
// the zero time whenever the reminder is inactive.
type ReminderState struct {
	IsActive       bool
	IsPaused       bool
	TimeRemaining  time.Duration
	NextReminderAt time.Time
	Settings       ReminderSettings
}

// Clone returns a defensive copy.
func (s ReminderState) Clone() ReminderState {
	out := s
	if s.Settings.LastReminderAt != nil {
		t := *s.Settings.LastReminderAt
		out.Settings.LastReminderAt = &t
	}
	return out
}

// Validate checks the kind-independent reminder invariants.
func (s ReminderState) Validate() error {
	if s.IsPaused && !s.IsActive {
		return ErrPausedWhileInactive
	}
	if s.TimeRemaining < 0 {
		return ErrNegativeTimeRemaining
	}
	if s.Settings.IntervalMinutes <= 0 {
		return ErrInvalidInterval
	}
	return nil
}

// DefaultReminderState returns the schema default for the given kind.
func DefaultReminderState(kind Kind) ReminderState {
	interval := float64(defaultWaterIntervalMinutes)
	if kind == KindStandup {
		interval = defaultStandupIntervalMinutes
	}
	return ReminderState{
		Settings: ReminderSettings{
			IntervalMinutes: interval,
			Enabled:         true,
			SoundEnabled:    true,
		},
	}
}

// AppState holds non-time-critical application state. NotificationPrefs is
// merged by arbitrary shape, unlike reminder state.
type AppState struct {
	IsFirstUse           bool
	CompatibilityChecked bool
	LastActivityAt       time.Time
	NotificationPrefs    map[string]any
}

func (s AppState) Clone() AppState {
	out := s
	if s.NotificationPrefs != nil {
		out.NotificationPrefs = deepCopyMap(s.NotificationPrefs)
	}
	return out
}

// DefaultAppState returns the schema default for the app entry.
func DefaultAppState() AppState {
	return AppState{
		IsFirstUse:        true,
		NotificationPrefs: map[string]any{},
	}
}

func deepCopyMap(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	maps.Copy(out, in)
	for k, v := range in {
		if nested, ok := v.(map[string]any); ok {
			out[k] = deepCopyMap(nested)
		}
	}
	return out
}
