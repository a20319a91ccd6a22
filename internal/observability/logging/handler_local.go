//go:build !gcloud

package logging

import (
	"context"
	"log/slog"
)

// traceCorrelationAttrs is a no-op outside GCP: local logs correlate
// through the OTLP pipeline instead.
func traceCorrelationAttrs(_ context.Context, _ string) []slog.Attr {
	return nil
}
