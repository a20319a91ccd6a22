package observability

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/KasumiMercury/primind-wellness-reminder/internal/observability/logging"
)

// Config carries everything Init needs to stand up logging, tracing and
// metrics for the process.
type Config struct {
	ServiceInfo  logging.ServiceInfo
	Environment  logging.Environment
	LogLevel     slog.Level
	GCPProjectID string
	SamplingRate float64
}

// Resources owns the initialized telemetry providers and the root logger.
type Resources struct {
	logger    *slog.Logger
	shutdowns []func(context.Context) error
}

func (r *Resources) Logger() *slog.Logger {
	return r.logger
}

// Shutdown flushes and stops all providers. Safe to call once.
func (r *Resources) Shutdown(ctx context.Context) error {
	var errs []error
	for i := len(r.shutdowns) - 1; i >= 0; i-- {
		if err := r.shutdowns[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Init configures the global tracer and meter providers plus the slog
// handler. Exporters are platform dependent: OTLP over HTTP for local
// builds, Cloud Trace and Cloud Monitoring for gcloud builds.
func Init(ctx context.Context, cfg Config) (*Resources, error) {
	res := &Resources{}

	otelRes, err := resource.Merge(resource.Default(), resource.NewSchemaless(
		attribute.String("service.name", cfg.ServiceInfo.Name),
		attribute.String("service.version", cfg.ServiceInfo.Version),
		attribute.String("deployment.environment", string(cfg.Environment)),
	))
	if err != nil {
		return nil, err
	}

	spanExp, metricExp, err := newExporters(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if spanExp != nil {
		sampler := sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SamplingRate))
		tp := sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(spanExp),
			sdktrace.WithResource(otelRes),
			sdktrace.WithSampler(sampler),
		)
		otel.SetTracerProvider(tp)
		res.shutdowns = append(res.shutdowns, tp.Shutdown)
	}

	if metricExp != nil {
		mp := sdkmetric.NewMeterProvider(
			sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExp,
				sdkmetric.WithInterval(30*time.Second))),
			sdkmetric.WithResource(otelRes),
		)
		otel.SetMeterProvider(mp)
		res.shutdowns = append(res.shutdowns, mp.Shutdown)
	}

	handler := logging.NewHandler(cfg.LogLevel, cfg.Environment, cfg.ServiceInfo, cfg.GCPProjectID)
	res.logger = slog.New(handler)
	slog.SetDefault(res.logger)

	return res, nil
}
