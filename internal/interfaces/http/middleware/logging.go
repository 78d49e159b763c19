package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/turtacn/ExpTrack/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ExpTrack/internal/infrastructure/monitoring/prometheus"
)

// LoggingConfig holds configuration for the request logging middleware.
type LoggingConfig struct {
	// SkipPaths are not logged, though they are still counted.
	SkipPaths []string
	// SlowThreshold promotes successful requests to Warn.
	SlowThreshold time.Duration
}

// DefaultLoggingConfig skips the probe and scrape endpoints.
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		SkipPaths:     []string{"/healthz", "/readyz", "/metrics"},
		SlowThreshold: 3 * time.Second,
	}
}

// LoggingMiddleware logs every request once it completes and records the
// HTTP metrics.
type LoggingMiddleware struct {
	logger  logging.Logger
	metrics *prometheus.AppMetrics
	config  LoggingConfig
	skip    map[string]bool
}

// NewLoggingMiddleware creates the middleware.  A nil metrics records nothing.
func NewLoggingMiddleware(logger logging.Logger, metrics *prometheus.AppMetrics, config LoggingConfig) *LoggingMiddleware {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if metrics == nil {
		metrics = prometheus.NewNoopAppMetrics()
	}
	skip := make(map[string]bool, len(config.SkipPaths))
	for _, p := range config.SkipPaths {
		skip[p] = true
	}
	return &LoggingMiddleware{logger: logger.Named("http"), metrics: metrics, config: config, skip: skip}
}

// routePattern returns the matched chi pattern so metric labels stay
// bounded; unmatched requests collapse into one label.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

func (m *LoggingMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		active := m.metrics.HTTPActiveRequests.WithLabelValues(r.Method)
		active.Inc()
		defer active.Dec()

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		duration := time.Since(start)
		prometheus.RecordHTTPRequest(m.metrics, r.Method, routePattern(r), status, duration, int64(ww.BytesWritten()))

		if m.skip[r.URL.Path] {
			return
		}

		fields := []logging.Field{
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.Int("status", status),
			logging.Duration("duration", duration),
			logging.Int("bytes", ww.BytesWritten()),
			logging.String("remote_addr", r.RemoteAddr),
			logging.String("request_id", chimw.GetReqID(r.Context())),
		}
		if r.URL.RawQuery != "" {
			fields = append(fields, logging.String("query", r.URL.RawQuery))
		}
		if info := ContextGetAPIKeyInfo(r.Context()); info != nil {
			fields = append(fields, logging.String("key_id", info.KeyID))
		}

		switch {
		case status >= 500:
			m.logger.Error("HTTP request completed with server error", fields...)
		case status >= 400:
			m.logger.Warn("HTTP request completed with client error", fields...)
		case m.config.SlowThreshold > 0 && duration >= m.config.SlowThreshold:
			m.logger.Warn("HTTP request completed (slow)", fields...)
		default:
			m.logger.Info("HTTP request completed", fields...)
		}
	})
}

//Personal.AI order the ending
