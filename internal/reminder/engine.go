package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/KasumiMercury/primind-wellness-reminder/internal/activity"
	"github.com/KasumiMercury/primind-wellness-reminder/internal/domain"
	"github.com/KasumiMercury/primind-wellness-reminder/internal/errlog"
	"github.com/KasumiMercury/primind-wellness-reminder/internal/observability/metrics"
	"github.com/KasumiMercury/primind-wellness-reminder/internal/state"
)

// Engine owns one timer per reminder kind and couples them to the
// activity detector: going away pauses every running timer, returning
// resumes exactly the ones the engine paused.
type Engine struct {
	mu         sync.Mutex
	states     *state.Manager
	detector   *activity.Detector
	timers     map[domain.Kind]*Timer
	autoPaused map[domain.Kind]bool

	unsubscribe func()

	errs *errlog.Handler
}

// NewEngine builds timers for every kind and links them to the detector's
// presence probe.
func NewEngine(states *state.Manager, detector *activity.Detector, notifier domain.Notifier, recorder domain.ReminderEventRecorder, errs *errlog.Handler, m *metrics.EngineMetrics, tickInterval time.Duration) *Engine {
	e := &Engine{
		states:     states,
		detector:   detector,
		timers:     make(map[domain.Kind]*Timer),
		autoPaused: make(map[domain.Kind]bool),
		errs:       errs,
	}
	for _, kind := range domain.Kinds() {
		timer := NewTimer(kind, states, notifier, recorder, errs, m, tickInterval)
		timer.SetAwayProvider(func() bool {
			return detector.State() == activity.StateAway
		})
		e.timers[kind] = timer
	}
	return e
}

// Timer returns the timer driving kind.
func (e *Engine) Timer(kind domain.Kind) (*Timer, error) {
	timer, ok := e.timers[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return timer, nil
}

// Start restores the persisted activity clock, hooks presence transitions
// and launches the detector plus one tick loop per timer.
func (e *Engine) Start(ctx context.Context) {
	app := e.states.AppState()
	if !app.LastActivityAt.IsZero() {
		e.detector.SetLastActivityTime(app.LastActivityAt)
	}

	e.unsubscribe = e.detector.OnTransition(e.onPresence)
	e.detector.Start(ctx)

	for _, timer := range e.timers {
		go func(t *Timer) {
			_ = t.Run(ctx)
		}(timer)
	}

	slog.InfoContext(ctx, "reminder engine started",
		slog.Int("timers", len(e.timers)),
	)
}

// Shutdown stops the detector and all tick loops, then flushes every
// pending state write.
func (e *Engine) Shutdown(ctx context.Context) error {
	if e.unsubscribe != nil {
		e.unsubscribe()
		e.unsubscribe = nil
	}
	e.detector.Stop()
	for _, timer := range e.timers {
		timer.Shutdown()
	}
	return e.states.FlushAll(ctx)
}

// RecordActivity handles a user activity ping: it feeds the detector and
// persists the activity clock under the app entry (debounced).
func (e *Engine) RecordActivity(ctx context.Context) {
	e.detector.ReportActivity()
	e.persistActivityClock(ctx)
}

// RecordVisibility handles a window visibility change.
func (e *Engine) RecordVisibility(ctx context.Context, visible bool) {
	e.detector.ReportVisibility(visible)
	if visible {
		e.persistActivityClock(ctx)
	}
}

func (e *Engine) persistActivityClock(ctx context.Context) {
	err := e.states.UpdateApp(ctx, state.Update{
		"last_activity_at": e.detector.LastActivity().UnixMilli(),
	}, false)
	if err != nil && e.errs != nil {
		e.errs.Handle(ctx, errlog.Entry{
			Source:  "engine.activity",
			Message: "failed to persist activity clock",
			Err:     err,
		})
	}
}

// onPresence pauses running timers when the user goes away and resumes
// only those on return.
func (e *Engine) onPresence(event activity.Event) {
	ctx := context.Background()

	e.mu.Lock()
	defer e.mu.Unlock()

	switch event.Type {
	case activity.EventUserAway:
		for kind, timer := range e.timers {
			if timer.Status() != StatusRunning {
				continue
			}
			if err := timer.Pause(ctx, SourceActivity); err == nil {
				e.autoPaused[kind] = true
			}
		}
	case activity.EventUserReturn:
		for kind, timer := range e.timers {
			if !e.autoPaused[kind] {
				continue
			}
			delete(e.autoPaused, kind)
			_ = timer.Resume(ctx, SourceActivity)
		}
	}
}
