package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/KasumiMercury/primind-wellness-reminder/internal/errlog"
	"github.com/KasumiMercury/primind-wellness-reminder/internal/observability/metrics"
)

// RequestLogging logs each request after completion and records HTTP
// metrics when m is non-nil. Health probe paths are skipped.
func RequestLogging(m *metrics.HTTPMetrics, skipPaths ...string) gin.HandlerFunc {
	skip := make(map[string]struct{}, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = struct{}{}
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		if _, ok := skip[c.FullPath()]; ok {
			return
		}

		duration := time.Since(start)
		status := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		if m != nil {
			m.RecordRequest(c.Request.Context(), c.Request.Method, path, status, duration)
		}

		logger := slog.InfoContext
		if status >= http.StatusInternalServerError {
			logger = slog.ErrorContext
		} else if status >= http.StatusBadRequest {
			logger = slog.WarnContext
		}
		logger(c.Request.Context(), "http request",
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.Int("status", status),
			slog.Duration("duration", duration),
		)
	}
}

// PanicRecovery converts handler panics into 500 responses and routes them
// through the shared error handler.
func PanicRecovery(errHandler *errlog.Handler) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				if errHandler != nil {
					errHandler.Handle(c.Request.Context(), errlog.Entry{
						Source:  "http:" + c.Request.URL.Path,
						Message: "panic in request handler",
						Err:     fmt.Errorf("panic: %v", r),
					})
				}
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": "internal server error",
				})
			}
		}()
		c.Next()
	}
}
