package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/KasumiMercury/primind-wellness-reminder/internal/domain"
)

const (
	reminderStateKeyPrefix = "wellness:state:"
	appStateKey            = "wellness:state:app"
)

// Persisted record shapes. Durations and timestamps are stored as epoch
// milliseconds so the entries stay readable from non-Go consumers.
type reminderStateRecord struct {
	IsActive        bool           `json:"is_active"`
	IsPaused        bool           `json:"is_paused"`
	TimeRemainingMs int64          `json:"time_remaining_ms"`
	NextReminderAt  int64          `json:"next_reminder_at"`
	Settings        settingsRecord `json:"settings"`
}

type settingsRecord struct {
	IntervalMinutes float64 `json:"interval_minutes"`
	Enabled         bool    `json:"enabled"`
	SoundEnabled    bool    `json:"sound_enabled"`
	LastReminderAt  *int64  `json:"last_reminder_at"`
}

type appStateRecord struct {
	IsFirstUse           bool           `json:"is_first_use"`
	CompatibilityChecked bool           `json:"compatibility_checked"`
	LastActivityAt       int64          `json:"last_activity_at"`
	NotificationPrefs    map[string]any `json:"notification_prefs"`
}

type stateRepository struct {
	client *redis.Client
}

func NewStateRepository(client *redis.Client) domain.StateRepository {
	return &stateRepository{
		client: client,
	}
}

func (r *stateRepository) GetReminderState(ctx context.Context, kind domain.Kind) (*domain.ReminderState, error) {
	key := reminderStateKeyPrefix + kind.String()

	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrStateNotFound
		}
		return nil, err
	}

	var record reminderStateRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, ErrInvalidStateData
	}

	state := &domain.ReminderState{
		IsActive:      record.IsActive,
		IsPaused:      record.IsPaused,
		TimeRemaining: time.Duration(record.TimeRemainingMs) * time.Millisecond,
		Settings: domain.ReminderSettings{
			IntervalMinutes: record.Settings.IntervalMinutes,
			Enabled:         record.Settings.Enabled,
			SoundEnabled:    record.Settings.SoundEnabled,
		},
	}
	if record.NextReminderAt != 0 {
		state.NextReminderAt = time.UnixMilli(record.NextReminderAt)
	}
	if record.Settings.LastReminderAt != nil {
		t := time.UnixMilli(*record.Settings.LastReminderAt)
		state.Settings.LastReminderAt = &t
	}

	if err := state.Validate(); err != nil {
		return nil, ErrInvalidStateData
	}

	return state, nil
}

func (r *stateRepository) SaveReminderState(ctx context.Context, kind domain.Kind, state *domain.ReminderState) error {
	if state == nil {
		return ErrInvalidStateData
	}

	key := reminderStateKeyPrefix + kind.String()

	record := reminderStateRecord{
		IsActive:        state.IsActive,
		IsPaused:        state.IsPaused,
		TimeRemainingMs: state.TimeRemaining.Milliseconds(),
		Settings: settingsRecord{
			IntervalMinutes: state.Settings.IntervalMinutes,
			Enabled:         state.Settings.Enabled,
			SoundEnabled:    state.Settings.SoundEnabled,
		},
	}
	if !state.NextReminderAt.IsZero() {
		record.NextReminderAt = state.NextReminderAt.UnixMilli()
	}
	if state.Settings.LastReminderAt != nil {
		ms := state.Settings.LastReminderAt.UnixMilli()
		record.Settings.LastReminderAt = &ms
	}

	data, err := json.Marshal(record)
	if err != nil {
		return ErrInvalidStateData
	}

	return r.client.Set(ctx, key, data, 0).Err()
}

func (r *stateRepository) GetAppState(ctx context.Context) (*domain.AppState, error) {
	data, err := r.client.Get(ctx, appStateKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrStateNotFound
		}
		return nil, err
	}

	var record appStateRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, ErrInvalidStateData
	}

	state := &domain.AppState{
		IsFirstUse:           record.IsFirstUse,
		CompatibilityChecked: record.CompatibilityChecked,
		NotificationPrefs:    record.NotificationPrefs,
	}
	if record.LastActivityAt != 0 {
		state.LastActivityAt = time.UnixMilli(record.LastActivityAt)
	}
	if state.NotificationPrefs == nil {
		state.NotificationPrefs = map[string]any{}
	}

	return state, nil
}

func (r *stateRepository) SaveAppState(ctx context.Context, state *domain.AppState) error {
	if state == nil {
		return ErrInvalidStateData
	}

	record := appStateRecord{
		IsFirstUse:           state.IsFirstUse,
		CompatibilityChecked: state.CompatibilityChecked,
		NotificationPrefs:    state.NotificationPrefs,
	}
	if !state.LastActivityAt.IsZero() {
		record.LastActivityAt = state.LastActivityAt.UnixMilli()
	}

	data, err := json.Marshal(record)
	if err != nil {
		return ErrInvalidStateData
	}

	return r.client.Set(ctx, appStateKey, data, 0).Err()
}

func (r *stateRepository) Available(ctx context.Context) bool {
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return r.client.Ping(pingCtx).Err() == nil
}
