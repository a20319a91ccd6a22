package metrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	engineMeterName = "wellness.engine"
)

type EngineMetrics struct {
	remindersFired       metric.Int64Counter
	remindersSnoozed     metric.Int64Counter
	timerTransitions     metric.Int64Counter
	activityTransitions  metric.Int64Counter
	stateWritesFlushed   metric.Int64Counter
	updatesRejected      metric.Int64Counter
	flushDuration        metric.Float64Histogram
	notificationFailures metric.Int64Counter
}

func NewEngineMetrics() (*EngineMetrics, error) {
	meter := otel.Meter(engineMeterName)

	remindersFired, err := meter.Int64Counter(
		"wellness_reminders_fired_total",
		metric.WithDescription("Total number of reminders fired"),
		metric.WithUnit("{reminder}"),
	)
	if err != nil {
		return nil, err
	}

	remindersSnoozed, err := meter.Int64Counter(
		"wellness_reminders_snoozed_total",
		metric.WithDescription("Total number of reminders snoozed"),
		metric.WithUnit("{reminder}"),
	)
	if err != nil {
		return nil, err
	}

	timerTransitions, err := meter.Int64Counter(
		"wellness_timer_transitions_total",
		metric.WithDescription("Reminder timer state transitions by trigger source"),
		metric.WithUnit("{transition}"),
	)
	if err != nil {
		return nil, err
	}

	activityTransitions, err := meter.Int64Counter(
		"wellness_activity_transitions_total",
		metric.WithDescription("Activity detector away/return transitions"),
		metric.WithUnit("{transition}"),
	)
	if err != nil {
		return nil, err
	}

	stateWritesFlushed, err := meter.Int64Counter(
		"wellness_state_writes_total",
		metric.WithDescription("State writes flushed to the persistence layer"),
		metric.WithUnit("{write}"),
	)
	if err != nil {
		return nil, err
	}

	updatesRejected, err := meter.Int64Counter(
		"wellness_state_updates_rejected_total",
		metric.WithDescription("State updates rejected by validation"),
		metric.WithUnit("{update}"),
	)
	if err != nil {
		return nil, err
	}

	flushDuration, err := meter.Float64Histogram(
		"wellness_state_flush_duration_seconds",
		metric.WithDescription("Time spent flushing state to the persistence layer"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(
			0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5,
		),
	)
	if err != nil {
		return nil, err
	}

	notificationFailures, err := meter.Int64Counter(
		"wellness_notification_failures_total",
		metric.WithDescription("Notification dispatch failures"),
		metric.WithUnit("{notification}"),
	)
	if err != nil {
		return nil, err
	}

	return &EngineMetrics{
		remindersFired:       remindersFired,
		remindersSnoozed:     remindersSnoozed,
		timerTransitions:     timerTransitions,
		activityTransitions:  activityTransitions,
		stateWritesFlushed:   stateWritesFlushed,
		updatesRejected:      updatesRejected,
		flushDuration:        flushDuration,
		notificationFailures: notificationFailures,
	}, nil
}

func (m *EngineMetrics) RecordReminderFired(ctx context.Context, kind string, late bool) {
	m.remindersFired.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.Bool("late", late),
	))
}

func (m *EngineMetrics) RecordReminderSnoozed(ctx context.Context, kind string) {
	m.remindersSnoozed.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
	))
}

func (m *EngineMetrics) RecordTimerTransition(ctx context.Context, kind, transition, source string) {
	m.timerTransitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("transition", transition),
		attribute.String("source", source),
	))
}

func (m *EngineMetrics) RecordActivityTransition(ctx context.Context, transition string) {
	m.activityTransitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("transition", transition),
	))
}

func (m *EngineMetrics) RecordStateWrite(ctx context.Context, key string, immediate bool) {
	m.stateWritesFlushed.Add(ctx, 1, metric.WithAttributes(
		attribute.String("key", key),
		attribute.Bool("immediate", immediate),
	))
}

func (m *EngineMetrics) RecordUpdateRejected(ctx context.Context, key string) {
	m.updatesRejected.Add(ctx, 1, metric.WithAttributes(
		attribute.String("key", key),
	))
}

func (m *EngineMetrics) RecordFlushDuration(ctx context.Context, duration time.Duration) {
	m.flushDuration.Record(ctx, duration.Seconds())
}

func (m *EngineMetrics) RecordNotificationFailure(ctx context.Context, kind string) {
	m.notificationFailures.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
	))
}
