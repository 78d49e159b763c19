package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
}

func corsRequest(t *testing.T, config CORSConfig, method, origin string, preflight bool) *httptest.ResponseRecorder {
	t.Helper()
	handler := NewCORSMiddleware(config).Handler(okHandler())
	w := httptest.NewRecorder()
	r := httptest.NewRequest(method, "/api/v1/sessions/abc/charts", nil)
	if origin != "" {
		r.Header.Set("Origin", origin)
	}
	if preflight {
		r.Header.Set("Access-Control-Request-Method", http.MethodPost)
		r.Header.Set("Access-Control-Request-Headers", "Content-Type, X-API-Key")
	}
	handler.ServeHTTP(w, r)
	return w
}

func TestCORS_Preflight(t *testing.T) {
	config := DefaultCORSConfig()
	config.AllowedOrigins = []string{"https://dash.example.com"}
	config.MaxAge = 3600

	w := corsRequest(t, config, http.MethodOptions, "https://dash.example.com", true)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://dash.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), http.MethodPatch)
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "X-API-Key")
	assert.Equal(t, "3600", w.Header().Get("Access-Control-Max-Age"))
	assert.Empty(t, w.Body.String())
}

func TestCORS_PlainOptionsIsPassedThrough(t *testing.T) {
	config := DefaultCORSConfig()
	config.AllowedOrigins = []string{"https://dash.example.com"}

	w := corsRequest(t, config, http.MethodOptions, "https://dash.example.com", false)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
}

func TestCORS_SimpleRequest(t *testing.T) {
	config := DefaultCORSConfig()
	config.AllowedOrigins = []string{"https://a.com", "https://B.com"}

	w := corsRequest(t, config, http.MethodGet, "https://b.com", false)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://b.com", w.Header().Get("Access-Control-Allow-Origin"))
	exposed := w.Header().Get("Access-Control-Expose-Headers")
	assert.Contains(t, exposed, "Location")
	assert.Contains(t, exposed, "X-RateLimit-Limit")

	vary := w.Header().Values("Vary")
	assert.Contains(t, vary, "Origin")
	assert.Contains(t, vary, "Access-Control-Request-Method")
}

func TestCORS_DisallowedOrigin(t *testing.T) {
	config := DefaultCORSConfig()
	config.AllowedOrigins = []string{"https://allowed.com"}

	w := corsRequest(t, config, http.MethodGet, "https://evil.com", false)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_NoOriginHeader(t *testing.T) {
	config := DefaultCORSConfig()
	config.AllowedOrigins = []string{"*"}

	w := corsRequest(t, config, http.MethodGet, "", false)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_Wildcards(t *testing.T) {
	config := DefaultCORSConfig()
	config.AllowedOrigins = []string{"*"}
	w := corsRequest(t, config, http.MethodGet, "https://anything.io", false)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	config.AllowCredentials = true
	w = corsRequest(t, config, http.MethodGet, "https://anything.io", false)
	assert.Equal(t, "https://anything.io", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestCORS_SubdomainPattern(t *testing.T) {
	config := DefaultCORSConfig()
	config.AllowedOrigins = []string{"*.example.com"}

	w := corsRequest(t, config, http.MethodGet, "https://team.example.com", false)
	assert.Equal(t, "https://team.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	w = corsRequest(t, config, http.MethodGet, "https://example.org", false)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	config.AllowWildcard = false
	w = corsRequest(t, config, http.MethodGet, "https://team.example.com", false)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestDefaultCORSConfig(t *testing.T) {
	config := DefaultCORSConfig()

	assert.Empty(t, config.AllowedOrigins)
	assert.Contains(t, config.AllowedMethods, http.MethodPatch)
	assert.Contains(t, config.AllowedHeaders, "X-API-Key")
	assert.Contains(t, config.ExposedHeaders, "X-Request-ID")
	assert.False(t, config.AllowCredentials)
	assert.Equal(t, 86400, config.MaxAge)
}

//Personal.AI order the ending
