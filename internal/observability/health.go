package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const healthCheckTimeout = 3 * time.Second

// HealthChecker aggregates readiness from registered dependency checks
// (database, workspace). Safe for concurrent registration and probing.
type HealthChecker struct {
	mu     sync.RWMutex
	checks []healthCheck
	logger *slog.Logger
}

type healthCheck struct {
	name  string
	check func(ctx context.Context) error
}

// HealthStatus is the JSON response for the readiness endpoint.
type HealthStatus struct {
	Status string                 `json:"status"` // "ok" or "degraded"
	Checks map[string]CheckResult `json:"checks,omitempty"`
}

// CheckResult is the outcome of a single dependency check.
type CheckResult struct {
	Status    string `json:"status"`            // "ok" or "fail"
	Message   string `json:"message,omitempty"` // Error message on failure.
	LatencyMS int64  `json:"latency_ms"`
}

// NewHealthChecker creates a HealthChecker with no checks registered.
func NewHealthChecker(logger *slog.Logger) *HealthChecker {
	return &HealthChecker{logger: logger}
}

// AddCheck registers a named readiness check.
func (h *HealthChecker) AddCheck(name string, check func(ctx context.Context) error) {
	h.mu.Lock()
	h.checks = append(h.checks, healthCheck{name: name, check: check})
	h.mu.Unlock()
}

// CheckReady runs all registered checks and returns aggregate readiness.
// The status is "ok" only when every check passes; a single shared timeout
// bounds the whole probe so a hung dependency cannot stall the endpoint.
func (h *HealthChecker) CheckReady(ctx context.Context) HealthStatus {
	h.mu.RLock()
	checks := h.checks
	h.mu.RUnlock()

	if len(checks) == 0 {
		return HealthStatus{Status: "ok"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	status := HealthStatus{
		Status: "ok",
		Checks: make(map[string]CheckResult, len(checks)),
	}

	for _, c := range checks {
		start := time.Now()
		err := c.check(checkCtx)
		latency := time.Since(start).Milliseconds()
		if err != nil {
			status.Status = "degraded"
			status.Checks[c.name] = CheckResult{
				Status:    "fail",
				Message:   err.Error(),
				LatencyMS: latency,
			}
			if h.logger != nil {
				h.logger.Warn("readiness check failed",
					slog.String("check", c.name),
					slog.String("error", err.Error()),
					slog.Int64("latency_ms", latency),
				)
			}
		} else {
			status.Checks[c.name] = CheckResult{Status: "ok", LatencyMS: latency}
		}
	}

	return status
}
