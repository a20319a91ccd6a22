package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/KasumiMercury/primind-wellness-reminder/internal/domain"
	"github.com/KasumiMercury/primind-wellness-reminder/internal/testutil"
)

func TestStateRepositoryReminderRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	ctx := context.Background()
	client, cleanup := testutil.StartRedis(ctx, t)
	defer cleanup()

	repo := NewStateRepository(client)

	last := time.UnixMilli(1756100000000)
	state := &domain.ReminderState{
		IsActive:       true,
		IsPaused:       false,
		TimeRemaining:  17 * time.Minute,
		NextReminderAt: time.UnixMilli(1756101000000),
		Settings: domain.ReminderSettings{
			IntervalMinutes: 22.5,
			Enabled:         true,
			SoundEnabled:    false,
			LastReminderAt:  &last,
		},
	}

	if err := repo.SaveReminderState(ctx, domain.KindWater, state); err != nil {
		t.Fatalf("SaveReminderState() error = %v", err)
	}

	got, err := repo.GetReminderState(ctx, domain.KindWater)
	if err != nil {
		t.Fatalf("GetReminderState() error = %v", err)
	}

	if !got.IsActive || got.IsPaused {
		t.Errorf("flags = (%v, %v), want (true, false)", got.IsActive, got.IsPaused)
	}
	if got.TimeRemaining != 17*time.Minute {
		t.Errorf("TimeRemaining = %v, want 17m", got.TimeRemaining)
	}
	if !got.NextReminderAt.Equal(state.NextReminderAt) {
		t.Errorf("NextReminderAt = %v, want %v", got.NextReminderAt, state.NextReminderAt)
	}
	if got.Settings.IntervalMinutes != 22.5 {
		t.Errorf("IntervalMinutes = %v, want 22.5", got.Settings.IntervalMinutes)
	}
	if got.Settings.LastReminderAt == nil || !got.Settings.LastReminderAt.Equal(last) {
		t.Errorf("LastReminderAt = %v, want %v", got.Settings.LastReminderAt, last)
	}
}

func TestStateRepositoryKindIsolation(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	ctx := context.Background()
	client, cleanup := testutil.StartRedis(ctx, t)
	defer cleanup()

	repo := NewStateRepository(client)

	water := domain.DefaultReminderState(domain.KindWater)
	if err := repo.SaveReminderState(ctx, domain.KindWater, &water); err != nil {
		t.Fatalf("SaveReminderState() error = %v", err)
	}

	if _, err := repo.GetReminderState(ctx, domain.KindStandup); !errors.Is(err, domain.ErrStateNotFound) {
		t.Errorf("GetReminderState(standup) error = %v, want %v", err, domain.ErrStateNotFound)
	}
}

func TestStateRepositoryReminderNotFound(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	ctx := context.Background()
	client, cleanup := testutil.StartRedis(ctx, t)
	defer cleanup()

	repo := NewStateRepository(client)

	if _, err := repo.GetReminderState(ctx, domain.KindWater); !errors.Is(err, domain.ErrStateNotFound) {
		t.Errorf("GetReminderState() error = %v, want %v", err, domain.ErrStateNotFound)
	}
	if _, err := repo.GetAppState(ctx); !errors.Is(err, domain.ErrStateNotFound) {
		t.Errorf("GetAppState() error = %v, want %v", err, domain.ErrStateNotFound)
	}
}

func TestStateRepositoryRejectsBadPersistedData(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	ctx := context.Background()
	client, cleanup := testutil.StartRedis(ctx, t)
	defer cleanup()

	repo := NewStateRepository(client)

	tests := []struct {
		name string
		raw  string
	}{
		{
			name: "corrupt json",
			raw:  "{not json",
		},
		{
			name: "paused without active",
			raw:  `{"is_active":false,"is_paused":true,"settings":{"interval_minutes":30,"enabled":true}}`,
		},
		{
			name: "non-positive interval",
			raw:  `{"is_active":false,"is_paused":false,"settings":{"interval_minutes":0,"enabled":true}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := client.Set(ctx, "wellness:state:water", tt.raw, 0).Err(); err != nil {
				t.Fatalf("seed: %v", err)
			}

			if _, err := repo.GetReminderState(ctx, domain.KindWater); !errors.Is(err, ErrInvalidStateData) {
				t.Errorf("GetReminderState() error = %v, want %v", err, ErrInvalidStateData)
			}
		})
	}
}

func TestStateRepositoryAppRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	ctx := context.Background()
	client, cleanup := testutil.StartRedis(ctx, t)
	defer cleanup()

	repo := NewStateRepository(client)

	state := &domain.AppState{
		IsFirstUse:           false,
		CompatibilityChecked: true,
		LastActivityAt:       time.UnixMilli(1756100500000),
		NotificationPrefs: map[string]any{
			"sound": "chime",
			"channels": map[string]any{
				"desktop": true,
			},
		},
	}

	if err := repo.SaveAppState(ctx, state); err != nil {
		t.Fatalf("SaveAppState() error = %v", err)
	}

	got, err := repo.GetAppState(ctx)
	if err != nil {
		t.Fatalf("GetAppState() error = %v", err)
	}

	if got.IsFirstUse || !got.CompatibilityChecked {
		t.Errorf("flags = (%v, %v), want (false, true)", got.IsFirstUse, got.CompatibilityChecked)
	}
	if !got.LastActivityAt.Equal(state.LastActivityAt) {
		t.Errorf("LastActivityAt = %v, want %v", got.LastActivityAt, state.LastActivityAt)
	}
	if got.NotificationPrefs["sound"] != "chime" {
		t.Errorf("NotificationPrefs[sound] = %v, want chime", got.NotificationPrefs["sound"])
	}
	channels, ok := got.NotificationPrefs["channels"].(map[string]any)
	if !ok || channels["desktop"] != true {
		t.Errorf("NotificationPrefs[channels] = %v, want desktop true", got.NotificationPrefs["channels"])
	}
}

func TestStateRepositoryAvailable(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	ctx := context.Background()
	client, cleanup := testutil.StartRedis(ctx, t)
	defer cleanup()

	repo := NewStateRepository(client)
	if !repo.Available(ctx) {
		t.Error("Available() = false against live container")
	}
}
