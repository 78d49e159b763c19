package prometheus

import (
	"strconv"
	"time"
)

// AppMetrics holds all application metrics.
type AppMetrics struct {
	// HTTP Layer
	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec
	HTTPResponseSize    HistogramVec
	HTTPActiveRequests  GaugeVec

	// gRPC Layer
	GRPCRequestsTotal   CounterVec
	GRPCRequestDuration HistogramVec

	// Session Layer
	SessionsActive       GaugeVec
	SessionsOpenedTotal  CounterVec
	SessionsExpiredTotal CounterVec
	SessionEventsTotal   CounterVec
	SessionEventDuration HistogramVec
	ViewRestoresTotal    CounterVec

	// Saved Views
	ViewOperationsTotal CounterVec

	// Upstream Source
	UpstreamFetchDuration HistogramVec
	UpstreamErrorsTotal   CounterVec
	CacheHitsTotal        CounterVec
	CacheMissesTotal      CounterVec

	// Export
	ExportsTotal   CounterVec
	ExportDuration HistogramVec

	// Messaging
	MessagesPublishedTotal CounterVec
	MessagesConsumedTotal  CounterVec

	// System Health
	HealthCheckStatus GaugeVec
	ErrorsTotal       CounterVec
}

// Default Buckets
var (
	DefaultHTTPDurationBuckets   = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	DefaultEventDurationBuckets  = []float64{.0001, .0005, .001, .005, .01, .05, .1, .5}
	DefaultExportDurationBuckets = []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30}
	DefaultSizeBuckets           = []float64{100, 1000, 10000, 100000, 1000000, 10000000}
)

// NewAppMetrics registers all metrics and returns AppMetrics struct.
func NewAppMetrics(collector MetricsCollector) *AppMetrics {
	m := &AppMetrics{}

	// HTTP
	m.HTTPRequestsTotal = collector.RegisterCounter("http_requests_total", "Total HTTP requests", "method", "path", "status_code")
	m.HTTPRequestDuration = collector.RegisterHistogram("http_request_duration_seconds", "HTTP request duration", DefaultHTTPDurationBuckets, "method", "path")
	m.HTTPResponseSize = collector.RegisterHistogram("http_response_size_bytes", "HTTP response size", DefaultSizeBuckets, "method", "path")
	m.HTTPActiveRequests = collector.RegisterGauge("http_active_requests", "Active HTTP requests", "method")

	// gRPC
	m.GRPCRequestsTotal = collector.RegisterCounter("grpc_requests_total", "Total gRPC requests", "service", "method", "code")
	m.GRPCRequestDuration = collector.RegisterHistogram("grpc_request_duration_seconds", "gRPC request duration", DefaultHTTPDurationBuckets, "service", "method")

	// Sessions
	m.SessionsActive = collector.RegisterGauge("sessions_active", "Open dashboard sessions")
	m.SessionsOpenedTotal = collector.RegisterCounter("sessions_opened_total", "Dashboard sessions opened", "project")
	m.SessionsExpiredTotal = collector.RegisterCounter("sessions_expired_total", "Dashboard sessions expired for idleness")
	m.SessionEventsTotal = collector.RegisterCounter("session_events_total", "Dashboard events applied", "type", "status")
	m.SessionEventDuration = collector.RegisterHistogram("session_event_duration_seconds", "Dashboard event handling duration", DefaultEventDurationBuckets, "type")
	m.ViewRestoresTotal = collector.RegisterCounter("view_restores_total", "Saved view restores", "status")

	// Views
	m.ViewOperationsTotal = collector.RegisterCounter("view_operations_total", "Saved view operations", "operation", "status")

	// Upstream
	m.UpstreamFetchDuration = collector.RegisterHistogram("upstream_fetch_duration_seconds", "Metrics source fetch duration", DefaultHTTPDurationBuckets, "resource")
	m.UpstreamErrorsTotal = collector.RegisterCounter("upstream_errors_total", "Metrics source fetch errors", "resource")
	m.CacheHitsTotal = collector.RegisterCounter("cache_hits_total", "Cache hits", "cache")
	m.CacheMissesTotal = collector.RegisterCounter("cache_misses_total", "Cache misses", "cache")

	// Export
	m.ExportsTotal = collector.RegisterCounter("exports_total", "Chart exports", "status")
	m.ExportDuration = collector.RegisterHistogram("export_duration_seconds", "Chart export duration", DefaultExportDurationBuckets, "stage")

	// Messaging
	m.MessagesPublishedTotal = collector.RegisterCounter("messages_published_total", "Messages published", "topic", "status")
	m.MessagesConsumedTotal = collector.RegisterCounter("messages_consumed_total", "Messages consumed", "topic", "status")

	// System Health
	m.HealthCheckStatus = collector.RegisterGauge("health_check_status", "Health check status (1=up, 0=down)", "component")
	m.ErrorsTotal = collector.RegisterCounter("errors_total", "Total errors", "component", "error_type")

	return m
}

// NewNoopAppMetrics returns AppMetrics whose instruments discard observations.
func NewNoopAppMetrics() *AppMetrics {
	return &AppMetrics{
		HTTPRequestsTotal:      &noopCounterVec{},
		HTTPRequestDuration:    &noopHistogramVec{},
		HTTPResponseSize:       &noopHistogramVec{},
		HTTPActiveRequests:     &noopGaugeVec{},
		GRPCRequestsTotal:      &noopCounterVec{},
		GRPCRequestDuration:    &noopHistogramVec{},
		SessionsActive:         &noopGaugeVec{},
		SessionsOpenedTotal:    &noopCounterVec{},
		SessionsExpiredTotal:   &noopCounterVec{},
		SessionEventsTotal:     &noopCounterVec{},
		SessionEventDuration:   &noopHistogramVec{},
		ViewRestoresTotal:      &noopCounterVec{},
		ViewOperationsTotal:    &noopCounterVec{},
		UpstreamFetchDuration:  &noopHistogramVec{},
		UpstreamErrorsTotal:    &noopCounterVec{},
		CacheHitsTotal:         &noopCounterVec{},
		CacheMissesTotal:       &noopCounterVec{},
		ExportsTotal:           &noopCounterVec{},
		ExportDuration:         &noopHistogramVec{},
		MessagesPublishedTotal: &noopCounterVec{},
		MessagesConsumedTotal:  &noopCounterVec{},
		HealthCheckStatus:      &noopGaugeVec{},
		ErrorsTotal:            &noopCounterVec{},
	}
}

// Helpers

func statusLabel(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}

func RecordHTTPRequest(metrics *AppMetrics, method, path string, statusCode int, duration time.Duration, respSize int64) {
	status := strconv.Itoa(statusCode)
	metrics.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	metrics.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	metrics.HTTPResponseSize.WithLabelValues(method, path).Observe(float64(respSize))
}

func RecordGRPCRequest(metrics *AppMetrics, service, method, code string, duration time.Duration) {
	metrics.GRPCRequestsTotal.WithLabelValues(service, method, code).Inc()
	metrics.GRPCRequestDuration.WithLabelValues(service, method).Observe(duration.Seconds())
}

func RecordSessionEvent(metrics *AppMetrics, eventType string, duration time.Duration, err error) {
	metrics.SessionEventsTotal.WithLabelValues(eventType, statusLabel(err)).Inc()
	metrics.SessionEventDuration.WithLabelValues(eventType).Observe(duration.Seconds())
}

func RecordViewOperation(metrics *AppMetrics, operation string, err error) {
	metrics.ViewOperationsTotal.WithLabelValues(operation, statusLabel(err)).Inc()
}

func RecordUpstreamFetch(metrics *AppMetrics, resource string, duration time.Duration, err error) {
	metrics.UpstreamFetchDuration.WithLabelValues(resource).Observe(duration.Seconds())
	if err != nil {
		metrics.UpstreamErrorsTotal.WithLabelValues(resource).Inc()
	}
}

func RecordCacheAccess(metrics *AppMetrics, cache string, hit bool) {
	if hit {
		metrics.CacheHitsTotal.WithLabelValues(cache).Inc()
	} else {
		metrics.CacheMissesTotal.WithLabelValues(cache).Inc()
	}
}

func RecordExport(metrics *AppMetrics, renderTime, uploadTime time.Duration, err error) {
	metrics.ExportsTotal.WithLabelValues(statusLabel(err)).Inc()
	metrics.ExportDuration.WithLabelValues("render").Observe(renderTime.Seconds())
	if uploadTime > 0 {
		metrics.ExportDuration.WithLabelValues("upload").Observe(uploadTime.Seconds())
	}
}

func RecordError(metrics *AppMetrics, component, errorType string) {
	metrics.ErrorsTotal.WithLabelValues(component, errorType).Inc()
}

//Personal.AI order the ending
