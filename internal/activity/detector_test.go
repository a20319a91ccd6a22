package activity

import (
	"testing"
	"time"

	"github.com/KasumiMercury/primind-wellness-reminder/internal/errlog"
)

func newTestDetector(t *testing.T, threshold time.Duration, at time.Time) (*Detector, *time.Time) {
	t.Helper()
	clock := at
	d := NewDetector(threshold, time.Second, errlog.NewHandler(0), nil)
	d.now = func() time.Time { return clock }
	d.SetLastActivityTime(at)
	return d, &clock
}

func TestDetectorAwayTransitionFiresOnce(t *testing.T) {
	base := time.Date(2026, 8, 25, 9, 0, 0, 0, time.UTC)
	d, clock := newTestDetector(t, 5*time.Minute, base)

	var events []Event
	d.OnTransition(func(e Event) { events = append(events, e) })

	*clock = base.Add(5 * time.Minute)
	d.Poll(*clock)
	if len(events) != 0 {
		t.Fatalf("transition at exactly threshold, want none: %+v", events)
	}

	*clock = base.Add(5*time.Minute + time.Millisecond)
	d.Poll(*clock)
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1 away transition", len(events))
	}
	if events[0].Type != EventUserAway {
		t.Errorf("event type = %q, want %q", events[0].Type, EventUserAway)
	}
	if !events[0].LastActivity.Equal(base) {
		t.Errorf("LastActivity = %v, want %v", events[0].LastActivity, base)
	}
	if d.State() != StateAway {
		t.Errorf("state = %q, want %q", d.State(), StateAway)
	}

	*clock = base.Add(10 * time.Minute)
	d.Poll(*clock)
	if len(events) != 1 {
		t.Errorf("away emitted again while already away: %d events", len(events))
	}
}

func TestDetectorReturnCarriesAwayDuration(t *testing.T) {
	base := time.Date(2026, 8, 25, 9, 0, 0, 0, time.UTC)
	d, clock := newTestDetector(t, 5*time.Minute, base)

	var events []Event
	d.OnTransition(func(e Event) { events = append(events, e) })

	*clock = base.Add(6 * time.Minute)
	d.Poll(*clock)

	*clock = base.Add(10 * time.Minute)
	d.ReportActivity()

	if len(events) != 2 {
		t.Fatalf("events = %d, want away then return", len(events))
	}
	ret := events[1]
	if ret.Type != EventUserReturn {
		t.Fatalf("second event = %q, want %q", ret.Type, EventUserReturn)
	}
	if ret.AwayDuration != 10*time.Minute {
		t.Errorf("AwayDuration = %v, want 10m (since last activity)", ret.AwayDuration)
	}
	if d.State() != StatePresent {
		t.Errorf("state = %q, want %q", d.State(), StatePresent)
	}
	if !d.LastActivity().Equal(*clock) {
		t.Errorf("LastActivity = %v, want %v", d.LastActivity(), *clock)
	}
}

func TestDetectorActivityWhilePresentStaysQuiet(t *testing.T) {
	base := time.Date(2026, 8, 25, 9, 0, 0, 0, time.UTC)
	d, clock := newTestDetector(t, 5*time.Minute, base)

	var events []Event
	d.OnTransition(func(e Event) { events = append(events, e) })

	*clock = base.Add(4 * time.Minute)
	d.ReportActivity()
	*clock = base.Add(8 * time.Minute)
	d.Poll(*clock)

	if len(events) != 0 {
		t.Errorf("events = %+v, want none (activity reset the window)", events)
	}
}

func TestDetectorSetAwayThreshold(t *testing.T) {
	base := time.Date(2026, 8, 25, 9, 0, 0, 0, time.UTC)
	d, clock := newTestDetector(t, 10*time.Minute, base)

	if err := d.SetAwayThreshold(0); err != ErrInvalidThreshold {
		t.Errorf("SetAwayThreshold(0) error = %v, want %v", err, ErrInvalidThreshold)
	}
	if err := d.SetAwayThreshold(-time.Minute); err != ErrInvalidThreshold {
		t.Errorf("SetAwayThreshold(-1m) error = %v, want %v", err, ErrInvalidThreshold)
	}

	var events []Event
	d.OnTransition(func(e Event) { events = append(events, e) })

	// Shrinking the threshold below the current idle gap flips immediately.
	*clock = base.Add(3 * time.Minute)
	if err := d.SetAwayThreshold(time.Minute); err != nil {
		t.Fatalf("SetAwayThreshold(1m) error = %v", err)
	}
	if len(events) != 1 || events[0].Type != EventUserAway {
		t.Fatalf("events = %+v, want immediate away transition", events)
	}
}

func TestDetectorSetLastActivityTimeIsSilent(t *testing.T) {
	base := time.Date(2026, 8, 25, 9, 0, 0, 0, time.UTC)
	d, clock := newTestDetector(t, 5*time.Minute, base)

	var events []Event
	d.OnTransition(func(e Event) { events = append(events, e) })

	*clock = base.Add(20 * time.Minute)
	d.SetLastActivityTime(base)
	if d.State() != StateAway {
		t.Errorf("state = %q, want %q after stale restore", d.State(), StateAway)
	}
	if len(events) != 0 {
		t.Errorf("restore emitted events: %+v", events)
	}

	d.SetLastActivityTime(clock.Add(-time.Minute))
	if d.State() != StatePresent {
		t.Errorf("state = %q, want %q after fresh restore", d.State(), StatePresent)
	}
	if len(events) != 0 {
		t.Errorf("restore emitted events: %+v", events)
	}
}

func TestDetectorVisibility(t *testing.T) {
	base := time.Date(2026, 8, 25, 9, 0, 0, 0, time.UTC)
	d, clock := newTestDetector(t, 5*time.Minute, base)

	*clock = base.Add(6 * time.Minute)
	d.Poll(*clock)
	if d.State() != StateAway {
		t.Fatalf("state = %q, want away", d.State())
	}

	d.ReportVisibility(false)
	if d.State() != StateAway {
		t.Errorf("hidden visibility counted as activity")
	}

	d.ReportVisibility(true)
	if d.State() != StatePresent {
		t.Errorf("visible visibility did not count as activity")
	}
}

func TestDetectorUnsubscribe(t *testing.T) {
	base := time.Date(2026, 8, 25, 9, 0, 0, 0, time.UTC)
	d, clock := newTestDetector(t, time.Minute, base)

	calls := 0
	unsubscribe := d.OnTransition(func(Event) { calls++ })
	unsubscribe()
	unsubscribe()

	*clock = base.Add(2 * time.Minute)
	d.Poll(*clock)
	if calls != 0 {
		t.Errorf("unsubscribed callback fired %d times", calls)
	}
}
