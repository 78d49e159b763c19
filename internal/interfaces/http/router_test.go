package http

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/ExpTrack/internal/application/savedview"
	"github.com/turtacn/ExpTrack/internal/application/scalars"
	"github.com/turtacn/ExpTrack/internal/domain/scalar"
	"github.com/turtacn/ExpTrack/internal/infrastructure/database/memory"
	"github.com/turtacn/ExpTrack/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/ExpTrack/internal/interfaces/http/handlers"
	"github.com/turtacn/ExpTrack/internal/interfaces/http/middleware"
	"github.com/turtacn/ExpTrack/internal/testutil"
)

const testAPIKey = "secret-key"

func testDataset() scalars.Dataset {
	return scalars.Dataset{
		Experiments: []scalar.Experiment{
			{ID: "e1", Name: "baseline", Color: "#1f77b4"},
			{ID: "e2", Name: "wide", Color: "#ff7f0e"},
		},
		Metrics: scalar.MetricsPayload{
			"e1": {
				"loss": {X: []int64{0, 1, 2}, Y: []float64{1.0, 0.8, 0.6}},
				"acc":  {X: []int64{0, 1, 2}, Y: []float64{0.1, 0.4, 0.7}},
			},
			"e2": {
				"loss": {X: []int64{0, 1, 2}, Y: []float64{1.2, 0.9, 0.5}},
			},
		},
	}
}

type routerFixture struct {
	router  http.Handler
	metrics prometheus.MetricsCollector
}

func newRouterFixture(t *testing.T, withAuth bool) *routerFixture {
	t.Helper()
	logger := testutil.NewMockLogger()

	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{Namespace: "exptrack"}, logger)
	require.NoError(t, err)
	appMetrics := prometheus.NewAppMetrics(collector)

	source := scalars.NewStaticSource()
	source.Put("p1", testDataset())
	views := savedview.NewService(memory.NewSavedViewRepo(), nil, logger, savedview.Options{})
	sessions := scalars.NewService(source, views, nil, appMetrics, logger, scalars.Options{})

	cfg := RouterConfig{
		SessionHandler:    handlers.NewSessionHandler(sessions, logger, 0),
		ViewHandler:       handlers.NewViewHandler(views, appMetrics, logger, 0),
		HealthHandler:     handlers.NewHealthHandler("test", appMetrics),
		CORSMiddleware:    middleware.NewCORSMiddleware(middleware.DefaultCORSConfig()),
		LoggingMiddleware: middleware.NewLoggingMiddleware(logger, appMetrics, middleware.DefaultLoggingConfig()),
		Logger:            logger,
		MetricsCollector:  collector,
	}
	if withAuth {
		cfg.AuthMiddleware = middleware.NewAuthMiddleware(
			middleware.NewStaticKeys([]string{testAPIKey}), middleware.AuthConfig{}, logger)
	}
	return &routerFixture{router: NewRouter(cfg), metrics: collector}
}

func (f *routerFixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("X-API-Key", testAPIKey)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestNewRouter_HealthEndpoints_NoAuth(t *testing.T) {
	f := newRouterFixture(t, true)

	for _, path := range []string{"/healthz", "/readyz", "/metrics"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestNewRouter_APIv1_RequiresAuth(t *testing.T) {
	f := newRouterFixture(t, true)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/projects/p1/views", nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/v1/projects/p1/views", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNewRouter_UnknownRoute(t *testing.T) {
	f := newRouterFixture(t, false)
	rec := f.do(t, http.MethodGet, "/api/v1/molecules", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNewRouter_NilHandlers_NoPanic(t *testing.T) {
	router := NewRouter(RouterConfig{})

	rec := httptest.NewRecorder()
	assert.NotPanics(t, func() {
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/sessions/x", nil))
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNewRouter_SessionFlow(t *testing.T) {
	f := newRouterFixture(t, false)

	rec := f.do(t, http.MethodPost, "/api/v1/projects/p1/sessions", "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var opened scalars.SessionView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &opened))
	require.NotEmpty(t, opened.ID)
	base := "/api/v1/sessions/" + opened.ID

	rec = f.do(t, http.MethodGet, base+"/charts", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var charts handlers.ChartsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &charts))
	assert.Len(t, charts.Charts, 2)

	rec = f.do(t, http.MethodPost, base+"/events", `{"type":"toggle_metric","metric":"acc"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = f.do(t, http.MethodPost, base+"/events", `{"type":"set_smoothing","weight":0.6}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var view scalars.SessionView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, []string{"acc"}, view.State.Hidden)
	assert.InDelta(t, 0.6, view.State.Smoothing, 1e-9)

	rec = f.do(t, http.MethodGet, base+"/charts", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &charts))
	require.Len(t, charts.Charts, 1)
	assert.Equal(t, "loss", charts.Charts[0].Metric)

	rec = f.do(t, http.MethodPost, base+"/views", `{"name":"loss only"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = f.do(t, http.MethodGet, "/api/v1/projects/p1/views", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list handlers.ListViewsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Equal(t, 1, list.Total)
	assert.Equal(t, "loss only", list.Views[0].Name)
	assert.Equal(t, view.State.Query, list.Views[0].Query)

	rec = f.do(t, http.MethodPost, base+"/export/loss", "")
	assert.Equal(t, http.StatusNotImplemented, rec.Code)

	rec = f.do(t, http.MethodDelete, base, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = f.do(t, http.MethodGet, base, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNewRouter_ViewRoutes(t *testing.T) {
	f := newRouterFixture(t, false)

	rec := f.do(t, http.MethodPost, "/api/v1/projects/p1/views", `{"name":"a","query":"s=0.20"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	loc := rec.Header().Get("Location")
	require.True(t, strings.HasPrefix(loc, "/api/v1/projects/p1/views/"))

	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, loc, "").Code)
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodPatch, loc, `{"name":"b"}`).Code)
	assert.Equal(t, http.StatusNoContent, f.do(t, http.MethodDelete, loc, "").Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, loc, "").Code)
}

func TestNewRouter_CountsRequestsByRoutePattern(t *testing.T) {
	f := newRouterFixture(t, false)
	f.do(t, http.MethodGet, "/api/v1/projects/p1/views", "")

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Regexp(t,
		`exptrack_http_requests_total\{method="GET",path="/api/v1/projects/\{projectID\}/views/?",status_code="200"\} 1`,
		rec.Body.String())
}

//Personal.AI order the ending
