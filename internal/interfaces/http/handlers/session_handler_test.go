package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/ExpTrack/internal/application/scalars"
	domain "github.com/turtacn/ExpTrack/internal/domain/savedview"
	"github.com/turtacn/ExpTrack/internal/domain/scalar"
	"github.com/turtacn/ExpTrack/internal/testutil"
	"github.com/turtacn/ExpTrack/pkg/errors"
	"github.com/turtacn/ExpTrack/pkg/types/common"
)

type mockSessionService struct {
	mock.Mock
}

func (m *mockSessionService) view(args mock.Arguments) (*scalars.SessionView, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*scalars.SessionView), args.Error(1)
}

func (m *mockSessionService) Open(ctx context.Context, projectID common.ProjectID, query string) (*scalars.SessionView, error) {
	return m.view(m.Called(ctx, projectID, query))
}

func (m *mockSessionService) Get(ctx context.Context, sessionID string) (*scalars.SessionView, error) {
	return m.view(m.Called(ctx, sessionID))
}

func (m *mockSessionService) Charts(ctx context.Context, sessionID string) ([]scalar.Chart, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]scalar.Chart), args.Error(1)
}

func (m *mockSessionService) Apply(ctx context.Context, sessionID string, ev scalar.Event) (*scalars.SessionView, error) {
	return m.view(m.Called(ctx, sessionID, ev))
}

func (m *mockSessionService) Reload(ctx context.Context, sessionID string) (*scalars.SessionView, error) {
	return m.view(m.Called(ctx, sessionID))
}

func (m *mockSessionService) SaveView(ctx context.Context, sessionID, name string) (*domain.SavedView, error) {
	args := m.Called(ctx, sessionID, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SavedView), args.Error(1)
}

func (m *mockSessionService) RestoreView(ctx context.Context, sessionID, viewID string) (*scalars.SessionView, error) {
	return m.view(m.Called(ctx, sessionID, viewID))
}

func (m *mockSessionService) Export(ctx context.Context, sessionID, metric string) (*scalars.ExportResult, error) {
	args := m.Called(ctx, sessionID, metric)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*scalars.ExportResult), args.Error(1)
}

func (m *mockSessionService) Close(ctx context.Context, sessionID string) error {
	return m.Called(ctx, sessionID).Error(0)
}

func (m *mockSessionService) ExpireIdle(now time.Time) int { return m.Called(now).Int(0) }

func (m *mockSessionService) Run(ctx context.Context, interval time.Duration) { m.Called(ctx, interval) }

func (m *mockSessionService) Count() int { return m.Called().Int(0) }

func newTestSessionHandler() (*SessionHandler, *mockSessionService, *testutil.MockLogger) {
	svc := new(mockSessionService)
	logger := testutil.NewMockLogger()
	return NewSessionHandler(svc, logger, 0), svc, logger
}

func sampleSession(query string) *scalars.SessionView {
	return &scalars.SessionView{
		ID:        "s-1",
		ProjectID: "p1",
		State:     scalar.Snapshot{Query: query, Selected: []int{0}},
	}
}

func TestSessionHandler_Open(t *testing.T) {
	h, svc, _ := newTestSessionHandler()
	svc.On("Open", mock.Anything, common.ProjectID("p1"), "s=0.50").Return(sampleSession("s=0.50"), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/projects/p1/sessions", strings.NewReader(`{"query":"s=0.50"}`))
	req = withURLParams(req, "projectID", "p1")
	rec := httptest.NewRecorder()
	h.Open(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "/api/v1/sessions/s-1", rec.Header().Get("Location"))
	var got scalars.SessionView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "s=0.50", got.State.Query)
	svc.AssertExpectations(t)
}

func TestSessionHandler_Open_EmptyBodyUsesQueryParam(t *testing.T) {
	h, svc, _ := newTestSessionHandler()
	svc.On("Open", mock.Anything, common.ProjectID("p1"), "exp=AQ").Return(sampleSession("exp=AQ"), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/projects/p1/sessions?q=exp%3DAQ", nil)
	req = withURLParams(req, "projectID", "p1")
	rec := httptest.NewRecorder()
	h.Open(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	svc.AssertExpectations(t)
}

func TestSessionHandler_Open_Errors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"unknown project", errors.New(errors.ErrCodeProjectNotFound, "project not found"), http.StatusNotFound},
		{"session limit", errors.New(errors.ErrCodeTooManyRequests, "session limit reached"), http.StatusTooManyRequests},
		{"upstream down", errors.New(errors.ErrCodeUpstreamUnavailable, "metrics source unavailable"), http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, svc, _ := newTestSessionHandler()
			svc.On("Open", mock.Anything, mock.Anything, mock.Anything).Return(nil, tt.err)

			req := withURLParams(httptest.NewRequest(http.MethodPost, "/", nil), "projectID", "p1")
			rec := httptest.NewRecorder()
			h.Open(rec, req)
			assert.Equal(t, tt.code, rec.Code)
		})
	}
}

func TestSessionHandler_Open_MalformedBody(t *testing.T) {
	h, svc, _ := newTestSessionHandler()
	req := withURLParams(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"query":`)), "projectID", "p1")
	rec := httptest.NewRecorder()
	h.Open(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNotCalled(t, "Open", mock.Anything, mock.Anything, mock.Anything)
}

func TestSessionHandler_Charts(t *testing.T) {
	h, svc, _ := newTestSessionHandler()
	charts := []scalar.Chart{{
		Metric: "loss",
		Rows:   []scalar.Row{{Step: 1, Values: map[string]float64{"e1": 0.5}}},
		Domain: scalar.Domain{Y: scalar.NewRange(0, 1)},
	}}
	svc.On("Charts", mock.Anything, "s-1").Return(charts, nil)
	svc.On("Get", mock.Anything, "s-1").Return(sampleSession("met=AQ"), nil)

	rec := httptest.NewRecorder()
	h.Charts(rec, withURLParams(httptest.NewRequest(http.MethodGet, "/", nil), "sessionID", "s-1"))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `"query":"met=AQ"`)
	assert.Contains(t, body, `{"step":1,"e1":0.5}`)
}

func TestSessionHandler_Apply(t *testing.T) {
	h, svc, _ := newTestSessionHandler()
	svc.On("Apply", mock.Anything, "s-1", scalar.SetSmoothing{Weight: 0.6}).Return(sampleSession("s=0.60"), nil)

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"type":"set_smoothing","weight":0.6}`))
	rec := httptest.NewRecorder()
	h.Apply(rec, withURLParams(req, "sessionID", "s-1"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"query":"s=0.60"`)
	svc.AssertExpectations(t)
}

func TestSessionHandler_Apply_UnknownEvent(t *testing.T) {
	h, svc, _ := newTestSessionHandler()

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"type":"teleport"}`))
	rec := httptest.NewRecorder()
	h.Apply(rec, withURLParams(req, "sessionID", "s-1"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	e := decodeError(t, rec.Body.Bytes())
	assert.Equal(t, errors.ErrCodeEventInvalid.String(), e.Code)
	assert.Equal(t, "teleport", e.Detail)
	svc.AssertNotCalled(t, "Apply", mock.Anything, mock.Anything, mock.Anything)
}

func TestSessionHandler_Get_NotFound(t *testing.T) {
	h, svc, _ := newTestSessionHandler()
	svc.On("Get", mock.Anything, "gone").
		Return(nil, errors.New(errors.ErrCodeSessionNotFound, "session not found").WithDetail("gone"))

	rec := httptest.NewRecorder()
	h.Get(rec, withURLParams(httptest.NewRequest(http.MethodGet, "/", nil), "sessionID", "gone"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, errors.ErrCodeSessionNotFound.String(), decodeError(t, rec.Body.Bytes()).Code)
}

func TestSessionHandler_SaveAndRestore(t *testing.T) {
	h, svc, _ := newTestSessionHandler()
	saved := &domain.SavedView{ID: "v-1", ProjectID: "p1", Name: "baseline only", Query: "exp=AQ"}
	svc.On("SaveView", mock.Anything, "s-1", "baseline only").Return(saved, nil)
	svc.On("RestoreView", mock.Anything, "s-1", "v-1").Return(sampleSession("exp=AQ"), nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"baseline only"}`))
	h.SaveView(rec, withURLParams(req, "sessionID", "s-1"))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":"v-1"`)

	rec = httptest.NewRecorder()
	h.Restore(rec, withURLParams(httptest.NewRequest(http.MethodPost, "/", nil), "sessionID", "s-1", "viewID", "v-1"))
	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}

func TestSessionHandler_Export(t *testing.T) {
	h, svc, logger := newTestSessionHandler()
	svc.On("Export", mock.Anything, "s-1", "loss").
		Return(&scalars.ExportResult{Metric: "loss", Key: "p1/loss/20240101/x.png", URL: "https://minio/x"}, nil)
	svc.On("Export", mock.Anything, "s-1", "acc").
		Return(nil, errors.Wrap(context.DeadlineExceeded, errors.ErrCodeExportFailed, "upload chart"))

	rec := httptest.NewRecorder()
	h.Export(rec, withURLParams(httptest.NewRequest(http.MethodPost, "/", nil), "sessionID", "s-1", "metric", "loss"))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"url":"https://minio/x"`)

	rec = httptest.NewRecorder()
	h.Export(rec, withURLParams(httptest.NewRequest(http.MethodPost, "/", nil), "sessionID", "s-1", "metric", "acc"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.True(t, logger.HasMessage("error", "request failed"))
}

func TestSessionHandler_Close(t *testing.T) {
	h, svc, _ := newTestSessionHandler()
	svc.On("Close", mock.Anything, "s-1").Return(nil)

	rec := httptest.NewRecorder()
	h.Close(rec, withURLParams(httptest.NewRequest(http.MethodDelete, "/", nil), "sessionID", "s-1"))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestWriteAppError_MasksUnknownErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	writeAppError(rec, testutil.NewMockLogger(), context.Canceled)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	e := decodeError(t, rec.Body.Bytes())
	assert.Equal(t, errors.ErrCodeInternal.String(), e.Code)
	assert.Equal(t, "internal server error", e.Message)
}

//Personal.AI order the ending
