package state

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"github.com/KasumiMercury/primind-wellness-reminder/internal/domain"
	"github.com/KasumiMercury/primind-wellness-reminder/internal/errlog"
	"github.com/KasumiMercury/primind-wellness-reminder/internal/infra/repository"
)

func newTestManager(t *testing.T, repo domain.StateRepository, debounce time.Duration) *Manager {
	t.Helper()
	m := NewManager(repo, errlog.NewHandler(0), nil, debounce)
	m.Initialize(context.Background())
	return m
}

func TestManagerInitializeDefaults(t *testing.T) {
	m := newTestManager(t, repository.NewMemoryRepository(), 0)

	water, err := m.ReminderState(domain.KindWater)
	if err != nil {
		t.Fatalf("ReminderState(water) error = %v", err)
	}
	if water.Settings.IntervalMinutes != 30 {
		t.Errorf("water interval = %v, want 30", water.Settings.IntervalMinutes)
	}

	standup, err := m.ReminderState(domain.KindStandup)
	if err != nil {
		t.Fatalf("ReminderState(standup) error = %v", err)
	}
	if standup.Settings.IntervalMinutes != 60 {
		t.Errorf("standup interval = %v, want 60", standup.Settings.IntervalMinutes)
	}

	app := m.AppState()
	if !app.IsFirstUse {
		t.Errorf("IsFirstUse = false, want true on fresh store")
	}
}

func TestManagerInitializePrefersPersisted(t *testing.T) {
	repo := repository.NewMemoryRepository()
	seeded := domain.DefaultReminderState(domain.KindWater)
	seeded.Settings.IntervalMinutes = 20
	if err := repo.SaveReminderState(context.Background(), domain.KindWater, &seeded); err != nil {
		t.Fatalf("seed: %v", err)
	}

	m := newTestManager(t, repo, 0)

	got, err := m.ReminderState(domain.KindWater)
	if err != nil {
		t.Fatalf("ReminderState() error = %v", err)
	}
	if got.Settings.IntervalMinutes != 20 {
		t.Errorf("interval = %v, want persisted 20", got.Settings.IntervalMinutes)
	}
}

func TestManagerUpdateReminderRejectsInvalid(t *testing.T) {
	m := newTestManager(t, repository.NewMemoryRepository(), 0)

	err := m.UpdateReminder(context.Background(), domain.KindWater, Update{"is_paused": true}, true)
	if !errors.Is(err, domain.ErrPausedWhileInactive) {
		t.Fatalf("UpdateReminder() error = %v, want %v", err, domain.ErrPausedWhileInactive)
	}

	got, _ := m.ReminderState(domain.KindWater)
	if got.IsPaused {
		t.Errorf("rejected update mutated cache: IsPaused = true")
	}
}

func TestManagerDebounceCollapsesWrites(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := domain.NewMockStateRepository(ctrl)
	repo.EXPECT().GetReminderState(gomock.Any(), gomock.Any()).
		Return(nil, domain.ErrStateNotFound).Times(2)
	repo.EXPECT().GetAppState(gomock.Any()).
		Return(nil, domain.ErrStateNotFound)
	repo.EXPECT().SaveReminderState(gomock.Any(), domain.KindWater, gomock.Any()).
		Return(nil).Times(1)

	m := newTestManager(t, repo, 30*time.Millisecond)

	ctx := context.Background()
	for _, interval := range []float64{25, 35, 45} {
		upd := Update{"settings": map[string]any{"interval_minutes": interval}}
		if err := m.UpdateReminder(ctx, domain.KindWater, upd, false); err != nil {
			t.Fatalf("UpdateReminder() error = %v", err)
		}
	}

	time.Sleep(150 * time.Millisecond)

	got, _ := m.ReminderState(domain.KindWater)
	if got.Settings.IntervalMinutes != 45 {
		t.Errorf("interval = %v, want last write 45", got.Settings.IntervalMinutes)
	}
}

func TestManagerImmediateFlushCancelsPending(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := domain.NewMockStateRepository(ctrl)
	repo.EXPECT().GetReminderState(gomock.Any(), gomock.Any()).
		Return(nil, domain.ErrStateNotFound).Times(2)
	repo.EXPECT().GetAppState(gomock.Any()).
		Return(nil, domain.ErrStateNotFound)
	repo.EXPECT().SaveReminderState(gomock.Any(), domain.KindStandup, gomock.Any()).
		Return(nil).Times(1)

	m := newTestManager(t, repo, 30*time.Millisecond)

	ctx := context.Background()
	if err := m.UpdateReminder(ctx, domain.KindStandup, Update{"is_active": true}, false); err != nil {
		t.Fatalf("debounced update: %v", err)
	}
	if err := m.UpdateReminder(ctx, domain.KindStandup, Update{"time_remaining_ms": 5000}, true); err != nil {
		t.Fatalf("immediate update: %v", err)
	}

	time.Sleep(150 * time.Millisecond)
}

func TestManagerSubscribeReminder(t *testing.T) {
	m := newTestManager(t, repository.NewMemoryRepository(), 0)

	var calls []domain.Kind
	var lastState domain.ReminderState
	unsubscribe := m.SubscribeReminder(func(kind domain.Kind, st domain.ReminderState) {
		calls = append(calls, kind)
		lastState = st
	})

	// Subscribing invokes immediately with the current state of each kind.
	if len(calls) != 2 {
		t.Fatalf("initial subscriber calls = %v, want one per kind", calls)
	}

	ctx := context.Background()
	if err := m.UpdateReminder(ctx, domain.KindWater, Update{"is_active": true}, true); err != nil {
		t.Fatalf("UpdateReminder() error = %v", err)
	}
	if len(calls) != 3 || calls[2] != domain.KindWater {
		t.Fatalf("subscriber calls = %v, want immediate pair then water", calls)
	}
	if !lastState.IsActive {
		t.Errorf("subscriber saw IsActive = false, want committed value true")
	}

	unsubscribe()
	unsubscribe()

	if err := m.UpdateReminder(ctx, domain.KindWater, Update{"is_active": false, "is_paused": false, "time_remaining_ms": 0}, true); err != nil {
		t.Fatalf("UpdateReminder() error = %v", err)
	}
	if len(calls) != 3 {
		t.Errorf("subscriber called after unsubscribe: %d calls", len(calls))
	}
}

func TestManagerResetToDefaults(t *testing.T) {
	repo := repository.NewMemoryRepository()
	m := newTestManager(t, repo, 0)

	ctx := context.Background()
	upd := Update{"settings": map[string]any{"interval_minutes": 5.0}}
	if err := m.UpdateReminder(ctx, domain.KindWater, upd, true); err != nil {
		t.Fatalf("UpdateReminder() error = %v", err)
	}

	if err := m.ResetToDefaults(ctx); err != nil {
		t.Fatalf("ResetToDefaults() error = %v", err)
	}

	got, _ := m.ReminderState(domain.KindWater)
	if got.Settings.IntervalMinutes != 30 {
		t.Errorf("interval after reset = %v, want 30", got.Settings.IntervalMinutes)
	}

	persisted, err := repo.GetReminderState(ctx, domain.KindWater)
	if err != nil {
		t.Fatalf("GetReminderState() after reset: %v", err)
	}
	if persisted.Settings.IntervalMinutes != 30 {
		t.Errorf("persisted interval = %v, want 30", persisted.Settings.IntervalMinutes)
	}
}

func TestManagerStorageFailureKeepsCache(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := domain.NewMockStateRepository(ctrl)
	repo.EXPECT().GetReminderState(gomock.Any(), gomock.Any()).
		Return(nil, domain.ErrStateNotFound).Times(2)
	repo.EXPECT().GetAppState(gomock.Any()).
		Return(nil, domain.ErrStateNotFound)
	repo.EXPECT().SaveReminderState(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(errors.New("connection refused")).AnyTimes()

	errHandler := errlog.NewHandler(0)
	m := NewManager(repo, errHandler, nil, 0)
	m.Initialize(context.Background())

	ctx := context.Background()
	if err := m.UpdateReminder(ctx, domain.KindWater, Update{"is_active": true}, true); err != nil {
		t.Fatalf("UpdateReminder() error = %v, want nil despite storage failure", err)
	}

	got, _ := m.ReminderState(domain.KindWater)
	if !got.IsActive {
		t.Errorf("cache lost accepted update on storage failure")
	}

	stats := errHandler.Stats()
	if stats.ByType[errlog.TypeStorage] != 1 {
		t.Errorf("storage errors logged = %d, want exactly 1 (warn once)", stats.ByType[errlog.TypeStorage])
	}

	if err := m.UpdateReminder(ctx, domain.KindWater, Update{"time_remaining_ms": 1000}, true); err != nil {
		t.Fatalf("second update: %v", err)
	}
	stats = errHandler.Stats()
	if stats.ByType[errlog.TypeStorage] != 1 {
		t.Errorf("storage errors after second failure = %d, want still 1", stats.ByType[errlog.TypeStorage])
	}
}

func TestManagerFlushAll(t *testing.T) {
	repo := repository.NewMemoryRepository()
	m := newTestManager(t, repo, time.Hour)

	ctx := context.Background()
	if err := m.UpdateReminder(ctx, domain.KindWater, Update{"is_active": true}, false); err != nil {
		t.Fatalf("UpdateReminder() error = %v", err)
	}

	if _, err := repo.GetReminderState(ctx, domain.KindWater); !errors.Is(err, domain.ErrStateNotFound) {
		t.Fatalf("state persisted before FlushAll, err = %v", err)
	}

	if err := m.FlushAll(ctx); err != nil {
		t.Fatalf("FlushAll() error = %v", err)
	}

	persisted, err := repo.GetReminderState(ctx, domain.KindWater)
	if err != nil {
		t.Fatalf("GetReminderState() after flush: %v", err)
	}
	if !persisted.IsActive {
		t.Errorf("persisted IsActive = false, want true")
	}
}
