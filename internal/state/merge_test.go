package state

import (
	"errors"
	"testing"
	"time"

	"github.com/KasumiMercury/primind-wellness-reminder/internal/domain"
)

func TestMergeReminderState(t *testing.T) {
	base := domain.DefaultReminderState(domain.KindWater)

	tests := []struct {
		name    string
		upd     Update
		wantErr error
		check   func(t *testing.T, got domain.ReminderState)
	}{
		{
			name: "partial update leaves other fields",
			upd:  Update{"is_active": true, "time_remaining_ms": 90000},
			check: func(t *testing.T, got domain.ReminderState) {
				if !got.IsActive {
					t.Errorf("IsActive = false, want true")
				}
				if got.TimeRemaining != 90*time.Second {
					t.Errorf("TimeRemaining = %v, want 90s", got.TimeRemaining)
				}
				if got.Settings.IntervalMinutes != 30 {
					t.Errorf("IntervalMinutes = %v, want 30 (untouched)", got.Settings.IntervalMinutes)
				}
			},
		},
		{
			name: "nested settings patch",
			upd:  Update{"settings": map[string]any{"interval_minutes": 45.0, "sound_enabled": false}},
			check: func(t *testing.T, got domain.ReminderState) {
				if got.Settings.IntervalMinutes != 45 {
					t.Errorf("IntervalMinutes = %v, want 45", got.Settings.IntervalMinutes)
				}
				if got.Settings.SoundEnabled {
					t.Errorf("SoundEnabled = true, want false")
				}
				if !got.Settings.Enabled {
					t.Errorf("Enabled = false, want true (untouched)")
				}
			},
		},
		{
			name: "epoch millis accepted for timestamps",
			upd:  Update{"next_reminder_at": float64(1700000000000)},
			check: func(t *testing.T, got domain.ReminderState) {
				want := time.UnixMilli(1700000000000)
				if !got.NextReminderAt.Equal(want) {
					t.Errorf("NextReminderAt = %v, want %v", got.NextReminderAt, want)
				}
			},
		},
		{
			name: "nil clears last reminder",
			upd:  Update{"settings": map[string]any{"last_reminder_at": nil}},
			check: func(t *testing.T, got domain.ReminderState) {
				if got.Settings.LastReminderAt != nil {
					t.Errorf("LastReminderAt = %v, want nil", got.Settings.LastReminderAt)
				}
			},
		},
		{
			name:    "unknown top-level key",
			upd:     Update{"is_actve": true},
			wantErr: domain.ErrUnknownField,
		},
		{
			name:    "unknown settings key",
			upd:     Update{"settings": map[string]any{"volume": 11}},
			wantErr: domain.ErrUnknownField,
		},
		{
			name:    "wrong type for bool field",
			upd:     Update{"is_active": "yes"},
			wantErr: domain.ErrInvalidFieldType,
		},
		{
			name:    "wrong type for settings block",
			upd:     Update{"settings": "loud"},
			wantErr: domain.ErrInvalidFieldType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start := base.Clone()
			lastAt := time.UnixMilli(1690000000000)
			start.Settings.LastReminderAt = &lastAt

			got, err := mergeReminderState(start, tt.upd)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("mergeReminderState() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("mergeReminderState() error = %v", err)
			}
			tt.check(t, got)
		})
	}
}

func TestMergeReminderStateDoesNotMutateInput(t *testing.T) {
	base := domain.DefaultReminderState(domain.KindStandup)

	got, err := mergeReminderState(base, Update{"settings": map[string]any{"interval_minutes": 15.0}})
	if err != nil {
		t.Fatalf("mergeReminderState() error = %v", err)
	}
	if got.Settings.IntervalMinutes != 15 {
		t.Errorf("merged IntervalMinutes = %v, want 15", got.Settings.IntervalMinutes)
	}
	if base.Settings.IntervalMinutes != 60 {
		t.Errorf("input IntervalMinutes mutated to %v, want 60", base.Settings.IntervalMinutes)
	}
}

func TestMergeAppState(t *testing.T) {
	base := domain.DefaultAppState()
	base.NotificationPrefs = map[string]any{
		"channels": map[string]any{"desktop": true, "sound": true},
		"quiet_hours": map[string]any{
			"start": "22:00",
		},
	}

	got, err := mergeAppState(base, Update{
		"compatibility_checked": true,
		"notification_prefs": map[string]any{
			"channels": map[string]any{"sound": false},
		},
	})
	if err != nil {
		t.Fatalf("mergeAppState() error = %v", err)
	}
	if !got.CompatibilityChecked {
		t.Errorf("CompatibilityChecked = false, want true")
	}

	channels, ok := got.NotificationPrefs["channels"].(map[string]any)
	if !ok {
		t.Fatalf("channels missing after merge: %#v", got.NotificationPrefs)
	}
	if channels["desktop"] != true {
		t.Errorf("channels.desktop = %v, want true (preserved)", channels["desktop"])
	}
	if channels["sound"] != false {
		t.Errorf("channels.sound = %v, want false (overwritten)", channels["sound"])
	}
	if _, ok := got.NotificationPrefs["quiet_hours"]; !ok {
		t.Errorf("quiet_hours dropped by merge")
	}
}

func TestMergeAppStateRejectsUnknownField(t *testing.T) {
	_, err := mergeAppState(domain.DefaultAppState(), Update{"theme": "dark"})
	if !errors.Is(err, domain.ErrUnknownField) {
		t.Errorf("mergeAppState() error = %v, want %v", err, domain.ErrUnknownField)
	}
}
