package activity

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/KasumiMercury/primind-wellness-reminder/internal/errlog"
	"github.com/KasumiMercury/primind-wellness-reminder/internal/observability/metrics"
)

// State is the detector's view of the user.
type State string

const (
	StatePresent State = "present"
	StateAway    State = "away"
)

// EventType identifies a presence transition.
type EventType string

const (
	EventUserAway   EventType = "user-away"
	EventUserReturn EventType = "user-return"
)

// Event describes a single presence transition. AwayDuration is only set
// on return events and measures from the last observed activity.
type Event struct {
	Type         EventType
	Timestamp    time.Time
	LastActivity time.Time
	AwayDuration time.Duration
}

// TransitionFunc receives presence transition events.
type TransitionFunc func(Event)

var ErrInvalidThreshold = errors.New("away threshold must be positive")

// Detector tracks user presence from reported activity signals. It starts
// Present and flips to Away when no activity arrives within the threshold;
// any activity while Away flips it back and reports how long the user was
// gone. Each transition is emitted exactly once.
type Detector struct {
	mu           sync.Mutex
	state        State
	lastActivity time.Time
	threshold    time.Duration
	pollInterval time.Duration
	now          func() time.Time

	subs   map[int]TransitionFunc
	nextID int

	cancel context.CancelFunc
	done   chan struct{}

	errs    *errlog.Handler
	metrics *metrics.EngineMetrics
}

// NewDetector builds a detector in the Present state with the last
// activity pinned to now.
func NewDetector(threshold, pollInterval time.Duration, errs *errlog.Handler, m *metrics.EngineMetrics) *Detector {
	d := &Detector{
		state:        StatePresent,
		threshold:    threshold,
		pollInterval: pollInterval,
		now:          time.Now,
		subs:         make(map[int]TransitionFunc),
		errs:         errs,
		metrics:      m,
	}
	d.lastActivity = d.now()
	return d
}

// Start launches the background poll loop. Calling Start on a running
// detector is a no-op.
func (d *Detector) Start(ctx context.Context) {
	d.mu.Lock()
	if d.cancel != nil {
		d.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	done := make(chan struct{})
	d.done = done
	d.lastActivity = d.now()
	d.mu.Unlock()

	go d.loop(ctx, done)
	slog.InfoContext(ctx, "activity detector started",
		slog.Duration("threshold", d.threshold),
		slog.Duration("poll_interval", d.pollInterval),
	)
}

// Stop halts the poll loop and waits for it to exit. Idempotent.
func (d *Detector) Stop() {
	d.mu.Lock()
	cancel, done := d.cancel, d.done
	d.cancel, d.done = nil, nil
	d.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (d *Detector) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(d.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.Poll(d.now())
		}
	}
}

// Poll evaluates the away condition at the given instant. Exposed so the
// transition logic is testable without the ticker.
func (d *Detector) Poll(now time.Time) {
	d.mu.Lock()
	if d.state != StatePresent || now.Sub(d.lastActivity) <= d.threshold {
		d.mu.Unlock()
		return
	}
	d.state = StateAway
	event := Event{
		Type:         EventUserAway,
		Timestamp:    now,
		LastActivity: d.lastActivity,
	}
	subs := d.subscribersLocked()
	d.mu.Unlock()

	d.emit(event, subs)
}

// ReportActivity records user activity at the current instant. If the
// user was Away this flips them back to Present and emits a return event
// carrying the total time away.
func (d *Detector) ReportActivity() {
	now := d.now()

	d.mu.Lock()
	wasAway := d.state == StateAway
	last := d.lastActivity
	d.lastActivity = now
	if !wasAway {
		d.mu.Unlock()
		return
	}
	d.state = StatePresent
	event := Event{
		Type:         EventUserReturn,
		Timestamp:    now,
		LastActivity: last,
		AwayDuration: now.Sub(last),
	}
	subs := d.subscribersLocked()
	d.mu.Unlock()

	d.emit(event, subs)
}

// ReportVisibility maps window visibility to an activity signal: becoming
// visible counts as activity, going hidden does not.
func (d *Detector) ReportVisibility(visible bool) {
	if visible {
		d.ReportActivity()
	}
}

// SetAwayThreshold replaces the away threshold and re-evaluates presence
// immediately.
func (d *Detector) SetAwayThreshold(threshold time.Duration) error {
	if threshold <= 0 {
		return ErrInvalidThreshold
	}
	d.mu.Lock()
	d.threshold = threshold
	d.mu.Unlock()

	d.Poll(d.now())
	return nil
}

// SetLastActivityTime overrides the last activity instant, typically when
// restoring persisted state. The presence state is recomputed silently so
// a stale restore does not fire a transition storm.
func (d *Detector) SetLastActivityTime(t time.Time) {
	now := d.now()

	d.mu.Lock()
	d.lastActivity = t
	if now.Sub(t) > d.threshold {
		d.state = StateAway
	} else {
		d.state = StatePresent
	}
	d.mu.Unlock()
}

// OnTransition registers fn for presence transitions. The returned
// function removes the subscription and is safe to call twice.
func (d *Detector) OnTransition(fn TransitionFunc) func() {
	d.mu.Lock()
	defer d.mu.Unlock()

	id := d.nextID
	d.nextID++
	d.subs[id] = fn
	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		delete(d.subs, id)
	}
}

// State returns the current presence state.
func (d *Detector) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// LastActivity returns the most recent activity instant.
func (d *Detector) LastActivity() time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastActivity
}

func (d *Detector) subscribersLocked() []TransitionFunc {
	out := make([]TransitionFunc, 0, len(d.subs))
	for _, fn := range d.subs {
		out = append(out, fn)
	}
	return out
}

func (d *Detector) emit(event Event, subs []TransitionFunc) {
	ctx := context.Background()
	if d.metrics != nil {
		d.metrics.RecordActivityTransition(ctx, string(event.Type))
	}
	slog.InfoContext(ctx, "presence transition",
		slog.String("event", string(event.Type)),
		slog.Time("last_activity", event.LastActivity),
		slog.Duration("away_duration", event.AwayDuration),
	)
	for _, fn := range subs {
		d.safeNotify(ctx, event, fn)
	}
}

func (d *Detector) safeNotify(ctx context.Context, event Event, fn TransitionFunc) {
	if d.errs != nil {
		defer d.errs.RecoverPanic(ctx, "activity.transition")
	}
	fn(event)
}
