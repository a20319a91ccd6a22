package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/KasumiMercury/primind-wellness-reminder/internal/domain"
)

// Status represents the health status of the service or a dependency.
type Status string

const (
	StatusHealthy  Status = "healthy"
	StatusDegraded Status = "degraded"
)

// CheckResult represents the health check result for a single dependency.
type CheckResult struct {
	Status    Status `json:"status"`
	LatencyMs int64  `json:"latency_ms,omitempty"`
	Error     string `json:"error,omitempty"`
}

// HealthStatus represents the overall health of the service.
type HealthStatus struct {
	Status  Status                 `json:"status"`
	Version string                 `json:"version,omitempty"`
	Checks  map[string]CheckResult `json:"checks,omitempty"`
}

// Checker probes the engine's dependencies. The state store going down is
// reported as degraded rather than unhealthy: the engine keeps running on
// its in-memory cache.
type Checker struct {
	repo    domain.StateRepository
	version string
}

func NewChecker(repo domain.StateRepository, version string) *Checker {
	return &Checker{
		repo:    repo,
		version: version,
	}
}

// Check probes all dependencies and returns the aggregate status.
func (c *Checker) Check(ctx context.Context) *HealthStatus {
	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	status := &HealthStatus{
		Status:  StatusHealthy,
		Version: c.version,
		Checks:  make(map[string]CheckResult),
	}

	if c.repo != nil {
		start := time.Now()
		if c.repo.Available(checkCtx) {
			status.Checks["state_store"] = CheckResult{
				Status:    StatusHealthy,
				LatencyMs: time.Since(start).Milliseconds(),
			}
		} else {
			status.Status = StatusDegraded
			status.Checks["state_store"] = CheckResult{
				Status: StatusDegraded,
				Error:  "state store unreachable, running from memory",
			}
		}
	}

	return status
}

// LiveHandler returns a Gin handler for liveness probes.
func (c *Checker) LiveHandler() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// ReadyHandler returns a Gin handler for readiness probes. Degraded still
// reports ready: the reminder engine itself never depends on the store.
func (c *Checker) ReadyHandler() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		status := c.Check(ctx.Request.Context())
		ctx.JSON(http.StatusOK, status)
	}
}
