package handlers

import (
	"context"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthHandler_Liveness(t *testing.T) {
	h := NewHealthHandler("1.2.3", nil, NewChecker("redis", func(context.Context) error {
		return stderrors.New("must not be called")
	}))
	rec := httptest.NewRecorder()
	h.Liveness(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp LivenessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "alive", resp.Status)
	assert.Equal(t, "1.2.3", resp.Version)
}

func TestHealthHandler_Readiness(t *testing.T) {
	ok := NewChecker("redis", func(context.Context) error { return nil })
	down := NewChecker("postgres", func(context.Context) error { return stderrors.New("connection refused") })

	tests := []struct {
		name     string
		checkers []HealthChecker
		code     int
		status   string
	}{
		{"no dependencies", nil, http.StatusOK, "ready"},
		{"all healthy", []HealthChecker{ok}, http.StatusOK, "ready"},
		{"one down", []HealthChecker{ok, down}, http.StatusServiceUnavailable, "not_ready"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler("dev", nil, tt.checkers...)
			rec := httptest.NewRecorder()
			h.Readiness(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

			assert.Equal(t, tt.code, rec.Code)
			var resp ReadinessResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.status, resp.Status)
			assert.Len(t, resp.Components, len(tt.checkers))
			if c, found := resp.Components["postgres"]; found {
				assert.Equal(t, "unhealthy", c.Status)
				assert.Equal(t, "connection refused", c.Error)
			}
		})
	}
}

//Personal.AI order the ending
