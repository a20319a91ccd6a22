package tracing

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const engineTracerName = "github.com/KasumiMercury/primind-wellness-reminder/internal/reminder"

func EngineTracer() trace.Tracer {
	return otel.Tracer(engineTracerName)
}

func StartFireSpan(ctx context.Context, kind string, dueAt time.Time) (context.Context, trace.Span) {
	return EngineTracer().Start(ctx, "reminder.fire",
		trace.WithAttributes(
			attribute.String("reminder.kind", kind),
			attribute.String("reminder.due_at", dueAt.UTC().Format(time.RFC3339)),
		),
	)
}

func RecordFireResult(span trace.Span, notified bool, err error) {
	span.SetAttributes(attribute.Bool("reminder.notified", notified))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetStatus(codes.Ok, "")
}

func StartFlushSpan(ctx context.Context, key string) (context.Context, trace.Span) {
	return EngineTracer().Start(ctx, "state.flush",
		trace.WithAttributes(
			attribute.String("state.key", key),
		),
	)
}

func RecordFlushResult(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetStatus(codes.Ok, "")
}
