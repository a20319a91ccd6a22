package reminder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/KasumiMercury/primind-wellness-reminder/internal/domain"
	"github.com/KasumiMercury/primind-wellness-reminder/internal/errlog"
	"github.com/KasumiMercury/primind-wellness-reminder/internal/observability/metrics"
	"github.com/KasumiMercury/primind-wellness-reminder/internal/observability/tracing"
	"github.com/KasumiMercury/primind-wellness-reminder/internal/state"
)

// Status is the timer's lifecycle state, derived from the managed
// reminder state: Idle (inactive), Running (active) or Paused.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusRunning Status = "running"
	StatusPaused  Status = "paused"
)

// Transition trigger sources, recorded on metrics and audit events.
const (
	SourceUser     = "user"
	SourceActivity = "activity"
	SourceSettings = "settings"
	SourceTick     = "tick"
)

const defaultTickInterval = time.Second

var (
	ErrNotRunning     = errors.New("reminder timer is not running")
	ErrInvalidSnooze  = errors.New("snooze duration must be positive")
	ErrUnknownKind    = errors.New("unknown reminder kind")
	ErrAlreadyRunning = errors.New("reminder timer already started")
)

// notificationText returns the user-facing copy for a fired reminder.
func notificationText(kind domain.Kind) (title, body string) {
	switch kind {
	case domain.KindStandup:
		return "Time to stand up", "You have been sitting for a while. Stretch your legs."
	default:
		return "Time to hydrate", "Grab a glass of water."
	}
}

// Timer drives one reminder kind. All state lives in the state manager;
// the timer holds only scheduling bookkeeping. Tick, the user operations
// and the activity hooks serialize on one mutex so a tick never
// interleaves with a pause or stop.
type Timer struct {
	mu   sync.Mutex
	kind domain.Kind

	states   *state.Manager
	notifier domain.Notifier
	recorder domain.ReminderEventRecorder

	now          func() time.Time
	tickInterval time.Duration

	// settingsPaused marks a pause the timer itself applied because
	// settings.enabled went false; only such pauses auto-resume when the
	// setting returns.
	settingsPaused bool
	// away reports whether the user is currently away; used to annotate
	// audit events. Optional.
	away func() bool

	cancel context.CancelFunc
	done   chan struct{}

	errs    *errlog.Handler
	metrics *metrics.EngineMetrics
}

// NewTimer builds a stopped timer for kind. The recorder and metrics may
// be nil; the notifier must not be.
func NewTimer(kind domain.Kind, states *state.Manager, notifier domain.Notifier, recorder domain.ReminderEventRecorder, errs *errlog.Handler, m *metrics.EngineMetrics, tickInterval time.Duration) *Timer {
	if tickInterval <= 0 {
		tickInterval = defaultTickInterval
	}
	if errs == nil {
		errs = errlog.NewHandler(0)
	}
	return &Timer{
		kind:         kind,
		states:       states,
		notifier:     notifier,
		recorder:     recorder,
		now:          time.Now,
		tickInterval: tickInterval,
		errs:         errs,
		metrics:      m,
	}
}

// SetAwayProvider installs the presence probe used to annotate audit
// events. Call before Run.
func (t *Timer) SetAwayProvider(fn func() bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.away = fn
}

// Status derives the lifecycle state from the managed reminder state.
func (t *Timer) Status() Status {
	st, err := t.states.ReminderState(t.kind)
	if err != nil {
		return StatusIdle
	}
	return statusOf(st)
}

func statusOf(st domain.ReminderState) Status {
	switch {
	case !st.IsActive:
		return StatusIdle
	case st.IsPaused:
		return StatusPaused
	default:
		return StatusRunning
	}
}

// Start schedules the first fire a full interval from now. Starting an
// already active timer is a no-op.
func (t *Timer) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	st, err := t.states.ReminderState(t.kind)
	if err != nil {
		return err
	}
	if st.IsActive {
		return nil
	}

	now := t.now()
	interval := intervalOf(st)
	err = t.states.UpdateReminder(ctx, t.kind, state.Update{
		"is_active":         true,
		"is_paused":         false,
		"next_reminder_at":  now.Add(interval),
		"time_remaining_ms": interval.Milliseconds(),
	}, true)
	if err != nil {
		return err
	}

	t.settingsPaused = false
	t.recordTransition(ctx, "start", SourceUser)
	slog.InfoContext(ctx, "reminder timer started",
		slog.String("kind", t.kind.String()),
		slog.Duration("interval", interval),
	)
	return nil
}

// Pause freezes the remaining time. Pausing an idle or already paused
// timer is a no-op, so repeated pauses leave timeRemaining untouched.
func (t *Timer) Pause(ctx context.Context, source string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pauseLocked(ctx, source)
}

func (t *Timer) pauseLocked(ctx context.Context, source string) error {
	st, err := t.states.ReminderState(t.kind)
	if err != nil {
		return err
	}
	if !st.IsActive || st.IsPaused {
		return nil
	}

	remaining := st.NextReminderAt.Sub(t.now())
	if remaining < 0 {
		remaining = 0
	}
	err = t.states.UpdateReminder(ctx, t.kind, state.Update{
		"is_paused":         true,
		"time_remaining_ms": remaining.Milliseconds(),
	}, true)
	if err != nil {
		return err
	}

	t.recordTransition(ctx, "pause", source)
	slog.InfoContext(ctx, "reminder timer paused",
		slog.String("kind", t.kind.String()),
		slog.String("source", source),
		slog.Duration("remaining", remaining),
	)
	return nil
}

// Resume reschedules the frozen remaining time from now. Resuming a
// non-paused timer is a no-op.
func (t *Timer) Resume(ctx context.Context, source string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.resumeLocked(ctx, source)
}

func (t *Timer) resumeLocked(ctx context.Context, source string) error {
	st, err := t.states.ReminderState(t.kind)
	if err != nil {
		return err
	}
	if !st.IsActive || !st.IsPaused {
		return nil
	}

	now := t.now()
	err = t.states.UpdateReminder(ctx, t.kind, state.Update{
		"is_paused":        false,
		"next_reminder_at": now.Add(st.TimeRemaining),
	}, true)
	if err != nil {
		return err
	}

	t.settingsPaused = false
	t.recordTransition(ctx, "resume", source)
	slog.InfoContext(ctx, "reminder timer resumed",
		slog.String("kind", t.kind.String()),
		slog.String("source", source),
		slog.Duration("remaining", st.TimeRemaining),
	)
	return nil
}

// Stop returns the timer to Idle and clears all runtime fields.
func (t *Timer) Stop(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	st, err := t.states.ReminderState(t.kind)
	if err != nil {
		return err
	}
	if !st.IsActive {
		return nil
	}

	err = t.states.UpdateReminder(ctx, t.kind, state.Update{
		"is_active":         false,
		"is_paused":         false,
		"next_reminder_at":  time.Time{},
		"time_remaining_ms": 0,
	}, true)
	if err != nil {
		return err
	}

	t.settingsPaused = false
	t.recordTransition(ctx, "stop", SourceUser)
	slog.InfoContext(ctx, "reminder timer stopped", slog.String("kind", t.kind.String()))
	return nil
}

// Snooze pushes the next fire d into the future without touching the
// active or paused flags.
func (t *Timer) Snooze(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ErrInvalidSnooze
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	st, err := t.states.ReminderState(t.kind)
	if err != nil {
		return err
	}
	if !st.IsActive {
		return ErrNotRunning
	}

	now := t.now()
	err = t.states.UpdateReminder(ctx, t.kind, state.Update{
		"next_reminder_at":  now.Add(d),
		"time_remaining_ms": d.Milliseconds(),
	}, true)
	if err != nil {
		return err
	}

	if t.metrics != nil {
		t.metrics.RecordReminderSnoozed(ctx, t.kind.String())
	}
	t.recordEvent(ctx, domain.EventSnoozed, now, st)
	slog.InfoContext(ctx, "reminder snoozed",
		slog.String("kind", t.kind.String()),
		slog.Duration("for", d),
	)
	return nil
}

// Acknowledge records that the user dismissed the notification. The
// schedule is untouched.
func (t *Timer) Acknowledge(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	st, err := t.states.ReminderState(t.kind)
	if err != nil {
		return err
	}
	t.recordEvent(ctx, domain.EventAcked, t.now(), st)
	return nil
}

// Restart reschedules a full current interval from now, keeping the
// active and paused flags as they are.
func (t *Timer) Restart(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	st, err := t.states.ReminderState(t.kind)
	if err != nil {
		return err
	}
	if !st.IsActive {
		return ErrNotRunning
	}

	now := t.now()
	interval := intervalOf(st)
	err = t.states.UpdateReminder(ctx, t.kind, state.Update{
		"next_reminder_at":  now.Add(interval),
		"time_remaining_ms": interval.Milliseconds(),
	}, true)
	if err != nil {
		return err
	}

	t.recordTransition(ctx, "restart", SourceUser)
	return nil
}

// Run drives the tick loop until ctx is cancelled. Each tick recovers
// panics into the error handler so a bad callback cannot kill the loop.
func (t *Timer) Run(ctx context.Context) error {
	t.mu.Lock()
	if t.cancel != nil {
		t.mu.Unlock()
		return ErrAlreadyRunning
	}
	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	done := make(chan struct{})
	t.done = done
	t.mu.Unlock()

	defer close(done)

	ticker := time.NewTicker(t.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			t.safeTick(ctx)
		}
	}
}

// Shutdown stops the tick loop and waits for it to exit.
func (t *Timer) Shutdown() {
	t.mu.Lock()
	cancel, done := t.cancel, t.done
	t.cancel, t.done = nil, nil
	t.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (t *Timer) safeTick(ctx context.Context) {
	defer t.errs.RecoverPanic(ctx, "reminder.tick:"+t.kind.String())
	t.Tick(ctx, t.now())
}

// Tick evaluates the schedule at the given instant: applies the
// settings.enabled pause semantics, then fires when the deadline has
// passed. A deadline more than one tick stale is drift (system sleep,
// clock jump); it still produces exactly one fire, reported as late.
func (t *Timer) Tick(ctx context.Context, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	st, err := t.states.ReminderState(t.kind)
	if err != nil {
		return
	}

	// Disabling mid-run pauses without stopping; re-enabling resumes
	// only a pause the timer applied itself.
	if st.IsActive && !st.Settings.Enabled && !st.IsPaused {
		if err := t.pauseLocked(ctx, SourceSettings); err == nil {
			t.settingsPaused = true
		}
		return
	}
	if t.settingsPaused && st.Settings.Enabled && st.IsPaused {
		_ = t.resumeLocked(ctx, SourceSettings)
		return
	}

	if statusOf(st) != StatusRunning || !st.Settings.Enabled {
		return
	}
	if st.NextReminderAt.IsZero() || now.Before(st.NextReminderAt) {
		return
	}

	t.fireLocked(ctx, now, st)
}

// fireLocked dispatches the notification, records the audit event and
// schedules the next fire one interval forward from now.
func (t *Timer) fireLocked(ctx context.Context, now time.Time, st domain.ReminderState) {
	overdue := now.Sub(st.NextReminderAt)
	late := overdue > 2*t.tickInterval

	ctx, span := tracing.StartFireSpan(ctx, t.kind.String(), st.NextReminderAt)
	defer span.End()

	title, body := notificationText(t.kind)
	notifyErr := t.notifier.Notify(ctx, &domain.Notification{
		Kind:         t.kind,
		Title:        title,
		Body:         body,
		SoundEnabled: st.Settings.SoundEnabled,
		FiredAt:      now,
	})
	tracing.RecordFireResult(span, notifyErr == nil, notifyErr)
	if notifyErr != nil {
		if t.metrics != nil {
			t.metrics.RecordNotificationFailure(ctx, t.kind.String())
		}
		t.errs.Handle(ctx, errlog.Entry{
			Source:  "reminder.notify:" + t.kind.String(),
			Message: "notification dispatch failed",
			Err:     notifyErr,
		})
	}

	if late {
		t.errs.Handle(ctx, errlog.Entry{
			Type:    errlog.TypeTimerDrift,
			Source:  "reminder.tick:" + t.kind.String(),
			Message: "fire deadline missed, recovering",
			Err:     fmt.Errorf("deadline overdue by %s", overdue),
		})
	}

	interval := intervalOf(st)
	err := t.states.UpdateReminder(ctx, t.kind, state.Update{
		"next_reminder_at":  now.Add(interval),
		"time_remaining_ms": interval.Milliseconds(),
		"settings": map[string]any{
			"last_reminder_at": now.UnixMilli(),
		},
	}, false)
	if err != nil {
		t.errs.Handle(ctx, errlog.Entry{
			Source:  "reminder.reschedule:" + t.kind.String(),
			Message: "failed to reschedule after fire",
			Err:     err,
		})
		return
	}

	if t.metrics != nil {
		t.metrics.RecordReminderFired(ctx, t.kind.String(), late)
	}
	t.recordEvent(ctx, domain.EventFired, now, st)
	slog.InfoContext(ctx, "reminder fired",
		slog.String("kind", t.kind.String()),
		slog.Bool("late", late),
		slog.Time("next", now.Add(interval)),
	)
}

func (t *Timer) recordTransition(ctx context.Context, transition, source string) {
	if t.metrics != nil {
		t.metrics.RecordTimerTransition(ctx, t.kind.String(), transition, source)
	}
}

// recordEvent appends a best-effort audit record; failures are logged and
// dropped.
func (t *Timer) recordEvent(ctx context.Context, event string, at time.Time, st domain.ReminderState) {
	if t.recorder == nil {
		return
	}
	userAway := false
	if t.away != nil {
		userAway = t.away()
	}
	err := t.recorder.RecordEvents(ctx, []domain.ReminderEventRecord{{
		EventID:         uuid.NewString(),
		Kind:            t.kind,
		Event:           event,
		OccurredAt:      at,
		IntervalMinutes: st.Settings.IntervalMinutes,
		UserAway:        userAway,
	}})
	if err != nil {
		slog.WarnContext(ctx, "failed to record reminder event",
			slog.String("kind", t.kind.String()),
			slog.String("event", event),
			slog.String("error", err.Error()),
		)
	}
}

func intervalOf(st domain.ReminderState) time.Duration {
	return time.Duration(st.Settings.IntervalMinutes * float64(time.Minute))
}
