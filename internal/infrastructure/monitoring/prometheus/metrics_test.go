package prometheus

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAppMetrics(t *testing.T) (*AppMetrics, MetricsCollector) {
	c := newTestCollector(t)
	m := NewAppMetrics(c)
	return m, c
}

func TestNewAppMetrics_AllMetricsRegistered(t *testing.T) {
	m, _ := newTestAppMetrics(t)
	require.NotNil(t, m)

	assert.NotNil(t, m.HTTPRequestsTotal)
	assert.NotNil(t, m.HTTPRequestDuration)
	assert.NotNil(t, m.SessionsActive)
	assert.NotNil(t, m.SessionEventsTotal)
	assert.NotNil(t, m.ViewOperationsTotal)
	assert.NotNil(t, m.UpstreamFetchDuration)
	assert.NotNil(t, m.ExportsTotal)
	assert.NotNil(t, m.MessagesConsumedTotal)
	assert.NotNil(t, m.ErrorsTotal)
}

func TestNewAppMetrics_Idempotent(t *testing.T) {
	c := newTestCollector(t)
	m1 := NewAppMetrics(c)
	m2 := NewAppMetrics(c)

	m1.SessionsOpenedTotal.WithLabelValues("p1").Inc()
	m2.SessionsOpenedTotal.WithLabelValues("p1").Inc()

	output := scrapeMetrics(t, c)
	assert.Equal(t, 2.0, metricValue(t, output, `test_unit_sessions_opened_total{project="p1"}`))
}

func TestRecordHTTPRequest(t *testing.T) {
	m, c := newTestAppMetrics(t)
	RecordHTTPRequest(m, "GET", "/api/v1/sessions/{sessionID}", 200, 20*time.Millisecond, 512)
	RecordHTTPRequest(m, "GET", "/api/v1/sessions/{sessionID}", 404, 5*time.Millisecond, 64)

	output := scrapeMetrics(t, c)
	assert.Equal(t, 1.0, metricValue(t, output, `test_unit_http_requests_total{method="GET",path="/api/v1/sessions/{sessionID}",status_code="200"}`))
	assert.Equal(t, 1.0, metricValue(t, output, `test_unit_http_requests_total{method="GET",path="/api/v1/sessions/{sessionID}",status_code="404"}`))
	assert.Equal(t, 2.0, metricValue(t, output, `test_unit_http_request_duration_seconds_count{method="GET",path="/api/v1/sessions/{sessionID}"}`))
}

func TestRecordSessionEvent(t *testing.T) {
	m, c := newTestAppMetrics(t)
	RecordSessionEvent(m, "set_smoothing", time.Millisecond, nil)
	RecordSessionEvent(m, "set_smoothing", time.Millisecond, nil)
	RecordSessionEvent(m, "domain_change", time.Millisecond, errors.New("bad"))

	output := scrapeMetrics(t, c)
	assert.Equal(t, 2.0, metricValue(t, output, `test_unit_session_events_total{status="success",type="set_smoothing"}`))
	assert.Equal(t, 1.0, metricValue(t, output, `test_unit_session_events_total{status="failure",type="domain_change"}`))
}

func TestRecordViewOperation(t *testing.T) {
	m, c := newTestAppMetrics(t)
	RecordViewOperation(m, "create", nil)
	RecordViewOperation(m, "delete", errors.New("not found"))

	output := scrapeMetrics(t, c)
	assert.Equal(t, 1.0, metricValue(t, output, `test_unit_view_operations_total{operation="create",status="success"}`))
	assert.Equal(t, 1.0, metricValue(t, output, `test_unit_view_operations_total{operation="delete",status="failure"}`))
}

func TestRecordUpstreamFetch_ErrorCounted(t *testing.T) {
	m, c := newTestAppMetrics(t)
	RecordUpstreamFetch(m, "metrics", 30*time.Millisecond, nil)
	RecordUpstreamFetch(m, "metrics", 30*time.Millisecond, errors.New("timeout"))

	output := scrapeMetrics(t, c)
	assert.Equal(t, 2.0, metricValue(t, output, `test_unit_upstream_fetch_duration_seconds_count{resource="metrics"}`))
	assert.Equal(t, 1.0, metricValue(t, output, `test_unit_upstream_errors_total{resource="metrics"}`))
}

func TestRecordCacheAccess(t *testing.T) {
	m, c := newTestAppMetrics(t)
	RecordCacheAccess(m, "scalars", true)
	RecordCacheAccess(m, "scalars", true)
	RecordCacheAccess(m, "scalars", false)

	output := scrapeMetrics(t, c)
	assert.Equal(t, 2.0, metricValue(t, output, `test_unit_cache_hits_total{cache="scalars"}`))
	assert.Equal(t, 1.0, metricValue(t, output, `test_unit_cache_misses_total{cache="scalars"}`))
}

func TestRecordExport_SkipsUploadStageOnRenderFailure(t *testing.T) {
	m, c := newTestAppMetrics(t)
	RecordExport(m, 10*time.Millisecond, 0, errors.New("render"))
	RecordExport(m, 10*time.Millisecond, 40*time.Millisecond, nil)

	output := scrapeMetrics(t, c)
	assert.Equal(t, 1.0, metricValue(t, output, `test_unit_exports_total{status="failure"}`))
	assert.Equal(t, 1.0, metricValue(t, output, `test_unit_exports_total{status="success"}`))
	assert.Equal(t, 2.0, metricValue(t, output, `test_unit_export_duration_seconds_count{stage="render"}`))
	assert.Equal(t, 1.0, metricValue(t, output, `test_unit_export_duration_seconds_count{stage="upload"}`))
}

func TestRecordError(t *testing.T) {
	m, c := newTestAppMetrics(t)
	RecordError(m, "kafka", "consume")

	output := scrapeMetrics(t, c)
	assert.Equal(t, 1.0, metricValue(t, output, `test_unit_errors_total{component="kafka",error_type="consume"}`))
}

func TestNoopAppMetrics_AcceptsObservations(t *testing.T) {
	m := NewNoopAppMetrics()
	assert.NotPanics(t, func() {
		RecordHTTPRequest(m, "GET", "/", 200, time.Millisecond, 1)
		RecordSessionEvent(m, "toggle", time.Millisecond, nil)
		RecordExport(m, time.Millisecond, time.Millisecond, nil)
		m.SessionsActive.WithLabelValues().Inc()
		m.HealthCheckStatus.WithLabelValues("redis").Set(1)
	})
}

//Personal.AI order the ending
