package state

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/KasumiMercury/primind-wellness-reminder/internal/domain"
	"github.com/KasumiMercury/primind-wellness-reminder/internal/errlog"
	"github.com/KasumiMercury/primind-wellness-reminder/internal/observability/metrics"
	"github.com/KasumiMercury/primind-wellness-reminder/internal/observability/tracing"
)

const (
	defaultDebounce = 500 * time.Millisecond

	appKey = "app"
)

// ReminderSubscriber receives a clone of the committed state after every
// accepted reminder update.
type ReminderSubscriber func(kind domain.Kind, st domain.ReminderState)

// AppSubscriber receives a clone of the committed app state.
type AppSubscriber func(st domain.AppState)

// Manager holds the in-memory source of truth for all engine state and
// writes it through to the repository with per-key debouncing. The cache
// stays authoritative even when the repository is unreachable; reads are
// always served from memory.
type Manager struct {
	mu        sync.Mutex
	repo      domain.StateRepository
	reminders map[domain.Kind]domain.ReminderState
	app       domain.AppState

	debounce time.Duration
	pending  map[string]*time.Timer

	remSubs   map[int]ReminderSubscriber
	appSubs   map[int]AppSubscriber
	nextSubID int

	storageWarned bool

	errs    *errlog.Handler
	metrics *metrics.EngineMetrics
}

// NewManager wires a manager to its repository. Metrics and the error
// handler may be nil in tests.
func NewManager(repo domain.StateRepository, errs *errlog.Handler, m *metrics.EngineMetrics, debounce time.Duration) *Manager {
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	return &Manager{
		repo:      repo,
		reminders: make(map[domain.Kind]domain.ReminderState),
		debounce:  debounce,
		pending:   make(map[string]*time.Timer),
		remSubs:   make(map[int]ReminderSubscriber),
		appSubs:   make(map[int]AppSubscriber),
		errs:      errs,
		metrics:   m,
	}
}

// Initialize loads all entries from the repository, falling back to schema
// defaults for missing or unreadable ones. It never fails: a dead
// repository yields a fully defaulted cache.
func (m *Manager) Initialize(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, kind := range domain.Kinds() {
		st, err := m.repo.GetReminderState(ctx, kind)
		switch {
		case err == nil:
			m.reminders[kind] = *st
		default:
			m.reminders[kind] = domain.DefaultReminderState(kind)
			m.reportLoadFailure(ctx, kind.String(), err)
		}
	}

	app, err := m.repo.GetAppState(ctx)
	if err == nil {
		m.app = *app
	} else {
		m.app = domain.DefaultAppState()
		m.reportLoadFailure(ctx, appKey, err)
	}

	slog.InfoContext(ctx, "state manager initialized",
		slog.Int("reminder_kinds", len(m.reminders)),
	)
}

func (m *Manager) reportLoadFailure(ctx context.Context, key string, err error) {
	if errors.Is(err, domain.ErrStateNotFound) {
		slog.InfoContext(ctx, "no persisted state, using defaults",
			slog.String("key", key),
		)
		return
	}
	if m.errs != nil {
		m.errs.Handle(ctx, errlog.Entry{
			Source:  "state.load:" + key,
			Message: "failed to load persisted state, using defaults",
			Err:     err,
		})
	}
}

// ReminderState returns a clone of the cached state for kind.
func (m *Manager) ReminderState(kind domain.Kind) (domain.ReminderState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.reminders[kind]
	if !ok {
		return domain.ReminderState{}, fmt.Errorf("%w: kind %q", domain.ErrStateNotFound, kind)
	}
	return st.Clone(), nil
}

// AppState returns a clone of the cached app state.
func (m *Manager) AppState() domain.AppState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.app.Clone()
}

// UpdateReminder merges upd into the cached state for kind. The merged
// result is validated before commit; a rejected update leaves cache and
// storage untouched. Accepted updates are flushed after the debounce
// window, or synchronously when immediate is set.
func (m *Manager) UpdateReminder(ctx context.Context, kind domain.Kind, upd Update, immediate bool) error {
	m.mu.Lock()
	cur, ok := m.reminders[kind]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: kind %q", domain.ErrStateNotFound, kind)
	}

	merged, err := mergeReminderState(cur, upd)
	if err == nil {
		err = merged.Validate()
	}
	if err != nil {
		m.mu.Unlock()
		if m.metrics != nil {
			m.metrics.RecordUpdateRejected(ctx, kind.String())
		}
		if m.errs != nil {
			m.errs.Handle(ctx, errlog.Entry{
				Source:  "state.update:" + kind.String(),
				Message: "reminder update rejected",
				Err:     err,
			})
		}
		return err
	}

	m.reminders[kind] = merged
	subs, snapshot := m.reminderSubscribersLocked(), merged.Clone()
	m.scheduleFlushLocked(kind.String(), immediate)
	m.mu.Unlock()

	if immediate {
		m.flush(ctx, kind.String(), true)
	}
	for _, sub := range subs {
		sub(kind, snapshot.Clone())
	}
	return nil
}

// UpdateApp merges upd into the cached app state.
func (m *Manager) UpdateApp(ctx context.Context, upd Update, immediate bool) error {
	m.mu.Lock()
	merged, err := mergeAppState(m.app, upd)
	if err != nil {
		m.mu.Unlock()
		if m.metrics != nil {
			m.metrics.RecordUpdateRejected(ctx, appKey)
		}
		if m.errs != nil {
			m.errs.Handle(ctx, errlog.Entry{
				Source:  "state.update:" + appKey,
				Message: "app update rejected",
				Err:     err,
			})
		}
		return err
	}

	m.app = merged
	subs, snapshot := m.appSubscribersLocked(), merged.Clone()
	m.scheduleFlushLocked(appKey, immediate)
	m.mu.Unlock()

	if immediate {
		m.flush(ctx, appKey, true)
	}
	for _, sub := range subs {
		sub(snapshot.Clone())
	}
	return nil
}

// SubscribeReminder registers fn for accepted reminder updates. The
// subscriber is invoked immediately with the current state of every kind,
// then on each accepted update in subscription order. The returned
// function removes the subscription and is safe to call twice.
func (m *Manager) SubscribeReminder(fn ReminderSubscriber) func() {
	m.mu.Lock()
	id := m.nextSubID
	m.nextSubID++
	m.remSubs[id] = fn

	type snapshot struct {
		kind domain.Kind
		st   domain.ReminderState
	}
	current := make([]snapshot, 0, len(m.reminders))
	for _, kind := range domain.Kinds() {
		if st, ok := m.reminders[kind]; ok {
			current = append(current, snapshot{kind, st.Clone()})
		}
	}
	m.mu.Unlock()

	for _, s := range current {
		fn(s.kind, s.st)
	}
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.remSubs, id)
	}
}

// SubscribeApp registers fn for accepted app updates. The subscriber is
// invoked immediately with the current app state.
func (m *Manager) SubscribeApp(fn AppSubscriber) func() {
	m.mu.Lock()
	id := m.nextSubID
	m.nextSubID++
	m.appSubs[id] = fn
	current := m.app.Clone()
	m.mu.Unlock()

	fn(current)
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.appSubs, id)
	}
}

// ResetToDefaults discards all cached state, replaces it with schema
// defaults and persists immediately.
func (m *Manager) ResetToDefaults(ctx context.Context) error {
	m.mu.Lock()
	for _, kind := range domain.Kinds() {
		m.reminders[kind] = domain.DefaultReminderState(kind)
	}
	m.app = domain.DefaultAppState()
	m.cancelPendingLocked()
	remSubs := m.reminderSubscribersLocked()
	appSubs := m.appSubscribersLocked()
	appSnapshot := m.app.Clone()
	m.mu.Unlock()

	err := m.FlushAll(ctx)

	for _, kind := range domain.Kinds() {
		st, _ := m.ReminderState(kind)
		for _, sub := range remSubs {
			sub(kind, st.Clone())
		}
	}
	for _, sub := range appSubs {
		sub(appSnapshot.Clone())
	}

	slog.InfoContext(ctx, "state reset to defaults")
	return err
}

// FlushAll cancels pending debounce timers and writes every entry to the
// repository. Used on shutdown and after reset.
func (m *Manager) FlushAll(ctx context.Context) error {
	m.mu.Lock()
	m.cancelPendingLocked()
	m.mu.Unlock()

	var firstErr error
	for _, kind := range domain.Kinds() {
		if err := m.flush(ctx, kind.String(), true); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := m.flush(ctx, appKey, true); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// Subscribers are notified in subscription order.
func (m *Manager) reminderSubscribersLocked() []ReminderSubscriber {
	out := make([]ReminderSubscriber, 0, len(m.remSubs))
	for _, id := range slices.Sorted(maps.Keys(m.remSubs)) {
		out = append(out, m.remSubs[id])
	}
	return out
}

func (m *Manager) appSubscribersLocked() []AppSubscriber {
	out := make([]AppSubscriber, 0, len(m.appSubs))
	for _, id := range slices.Sorted(maps.Keys(m.appSubs)) {
		out = append(out, m.appSubs[id])
	}
	return out
}

func (m *Manager) cancelPendingLocked() {
	for key, timer := range m.pending {
		timer.Stop()
		delete(m.pending, key)
	}
}

// scheduleFlushLocked arms (or re-arms) the debounce timer for key. When
// immediate is set the caller flushes synchronously instead, so any armed
// timer is simply dropped.
func (m *Manager) scheduleFlushLocked(key string, immediate bool) {
	if timer, ok := m.pending[key]; ok {
		timer.Stop()
		delete(m.pending, key)
	}
	if immediate {
		return
	}
	m.pending[key] = time.AfterFunc(m.debounce, func() {
		m.flush(context.Background(), key, false)
	})
}

// flush writes the current cached value for key to the repository. Storage
// failures degrade the manager to memory-only operation with a single
// warning; the cache remains authoritative throughout.
func (m *Manager) flush(ctx context.Context, key string, immediate bool) error {
	m.mu.Lock()
	if timer, ok := m.pending[key]; ok {
		timer.Stop()
		delete(m.pending, key)
	}

	var save func(context.Context) error
	if key == appKey {
		app := m.app.Clone()
		save = func(ctx context.Context) error {
			return m.repo.SaveAppState(ctx, &app)
		}
	} else {
		kind := domain.Kind(key)
		st, ok := m.reminders[kind]
		if !ok {
			m.mu.Unlock()
			return fmt.Errorf("%w: kind %q", domain.ErrStateNotFound, kind)
		}
		snapshot := st.Clone()
		save = func(ctx context.Context) error {
			return m.repo.SaveReminderState(ctx, kind, &snapshot)
		}
	}
	m.mu.Unlock()

	ctx, span := tracing.StartFlushSpan(ctx, key)
	defer span.End()

	start := time.Now()
	err := save(ctx)
	tracing.RecordFlushResult(span, err)
	if m.metrics != nil {
		m.metrics.RecordFlushDuration(ctx, time.Since(start))
	}

	if err != nil {
		m.reportFlushFailure(ctx, key, err)
		return fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, err)
	}

	if m.metrics != nil {
		m.metrics.RecordStateWrite(ctx, key, immediate)
	}
	m.markStorageHealthy(ctx)
	return nil
}

func (m *Manager) reportFlushFailure(ctx context.Context, key string, err error) {
	m.mu.Lock()
	warned := m.storageWarned
	m.storageWarned = true
	m.mu.Unlock()

	if warned {
		return
	}
	if m.errs != nil {
		m.errs.Handle(ctx, errlog.Entry{
			Type:    errlog.TypeStorage,
			Source:  "state.flush:" + key,
			Message: "state persistence unavailable, continuing in memory",
			Err:     err,
		})
		return
	}
	slog.WarnContext(ctx, "state persistence unavailable, continuing in memory",
		slog.String("key", key),
		slog.String("error", err.Error()),
	)
}

func (m *Manager) markStorageHealthy(ctx context.Context) {
	m.mu.Lock()
	recovered := m.storageWarned
	m.storageWarned = false
	m.mu.Unlock()

	if recovered {
		slog.InfoContext(ctx, "state persistence recovered")
	}
}
