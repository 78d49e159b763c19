package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/turtacn/ExpTrack/internal/infrastructure/monitoring/prometheus"
)

// HealthChecker is a dependency that can report its health.
type HealthChecker interface {
	Name() string
	Check(ctx context.Context) error
}

type checkerFunc struct {
	name string
	fn   func(ctx context.Context) error
}

func (c checkerFunc) Name() string                    { return c.name }
func (c checkerFunc) Check(ctx context.Context) error { return c.fn(ctx) }

// NewChecker adapts a ping function, such as a redis or postgres health
// check, into a HealthChecker.
func NewChecker(name string, fn func(ctx context.Context) error) HealthChecker {
	return checkerFunc{name: name, fn: fn}
}

// HealthHandler serves the liveness and readiness probes.
type HealthHandler struct {
	checkers []HealthChecker
	version  string
	startAt  time.Time
	metrics  *prometheus.AppMetrics
	timeout  time.Duration
}

// NewHealthHandler creates a HealthHandler.  A nil metrics records nothing.
func NewHealthHandler(version string, metrics *prometheus.AppMetrics, checkers ...HealthChecker) *HealthHandler {
	if metrics == nil {
		metrics = prometheus.NewNoopAppMetrics()
	}
	return &HealthHandler{
		checkers: checkers,
		version:  version,
		startAt:  time.Now(),
		metrics:  metrics,
		timeout:  5 * time.Second,
	}
}

// LivenessResponse is the response for liveness probe.
type LivenessResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}

// ReadinessResponse is the response for readiness probe.
type ReadinessResponse struct {
	Status     string                    `json:"status"`
	Components map[string]ComponentCheck `json:"components,omitempty"`
}

// ComponentCheck is the health of one dependency.
type ComponentCheck struct {
	Status  string `json:"status"`
	Latency string `json:"latency,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Liveness handles GET /healthz.  It never checks dependencies.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, LivenessResponse{
		Status:  "alive",
		Version: h.version,
		Uptime:  time.Since(h.startAt).Truncate(time.Second).String(),
	})
}

// Readiness handles GET /readyz: 200 when every dependency is healthy, 503
// otherwise.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if len(h.checkers) == 0 {
		writeJSON(w, http.StatusOK, ReadinessResponse{Status: "ready"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	components, healthy := h.checkAll(ctx)
	resp := ReadinessResponse{Status: "ready", Components: components}
	code := http.StatusOK
	if !healthy {
		resp.Status = "not_ready"
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, resp)
}

// checkAll runs the checkers concurrently.
func (h *HealthHandler) checkAll(ctx context.Context) (map[string]ComponentCheck, bool) {
	results := make(map[string]ComponentCheck, len(h.checkers))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, checker := range h.checkers {
		wg.Add(1)
		go func(c HealthChecker) {
			defer wg.Done()

			start := time.Now()
			err := c.Check(ctx)
			cc := ComponentCheck{
				Status:  "healthy",
				Latency: time.Since(start).Truncate(time.Microsecond).String(),
			}
			gauge := 1.0
			if err != nil {
				cc.Status = "unhealthy"
				cc.Error = err.Error()
				gauge = 0
			}
			h.metrics.HealthCheckStatus.WithLabelValues(c.Name()).Set(gauge)

			mu.Lock()
			results[c.Name()] = cc
			mu.Unlock()
		}(checker)
	}
	wg.Wait()

	healthy := true
	for _, c := range results {
		if c.Status != "healthy" {
			healthy = false
			break
		}
	}
	return results, healthy
}

//Personal.AI order the ending
