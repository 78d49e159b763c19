package middleware

import (
	"net/http"
	"strconv"
	"strings"
)

// CORSConfig holds configuration for CORS middleware.
type CORSConfig struct {
	// AllowedOrigins lists exact origins, "*" for any, or "*.example.com"
	// subdomain patterns when AllowWildcard is set.
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	// MaxAge is the preflight cache lifetime in seconds.
	MaxAge        int
	AllowWildcard bool
}

// DefaultCORSConfig allows no origin until server.cors_origins is set.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowedOrigins: []string{},
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Accept",
			"Authorization",
			"Content-Type",
			"X-API-Key",
			"X-Request-ID",
		},
		ExposedHeaders: []string{
			"Location",
			"X-Request-ID",
			"X-RateLimit-Limit",
			"X-RateLimit-Remaining",
			"X-RateLimit-Reset",
		},
		MaxAge:        86400,
		AllowWildcard: true,
	}
}

// CORSMiddleware answers preflights and decorates cross-origin responses.
type CORSMiddleware struct {
	config   CORSConfig
	methods  string
	headers  string
	exposed  string
	maxAge   string
	allowAll bool
	exact    map[string]bool
	suffixes []string
}

// NewCORSMiddleware precomputes the header values of config.
func NewCORSMiddleware(config CORSConfig) *CORSMiddleware {
	m := &CORSMiddleware{
		config:  config,
		methods: strings.Join(config.AllowedMethods, ", "),
		headers: strings.Join(config.AllowedHeaders, ", "),
		exposed: strings.Join(config.ExposedHeaders, ", "),
		maxAge:  strconv.Itoa(config.MaxAge),
		exact:   make(map[string]bool, len(config.AllowedOrigins)),
	}
	for _, origin := range config.AllowedOrigins {
		origin = strings.ToLower(strings.TrimSpace(origin))
		switch {
		case origin == "*":
			m.allowAll = true
		case config.AllowWildcard && strings.HasPrefix(origin, "*."):
			m.suffixes = append(m.suffixes, origin[1:])
		case origin != "":
			m.exact[origin] = true
		}
	}
	return m
}

func (m *CORSMiddleware) allowed(origin string) bool {
	if m.allowAll {
		return true
	}
	origin = strings.ToLower(origin)
	if m.exact[origin] {
		return true
	}
	for _, s := range m.suffixes {
		if strings.HasSuffix(origin, s) {
			return true
		}
	}
	return false
}

func (m *CORSMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" || !m.allowed(origin) {
			next.ServeHTTP(w, r)
			return
		}

		h := w.Header()
		h.Add("Vary", "Origin")
		h.Add("Vary", "Access-Control-Request-Method")
		h.Add("Vary", "Access-Control-Request-Headers")

		// a wildcard is never combined with credentials
		if m.allowAll && !m.config.AllowCredentials {
			h.Set("Access-Control-Allow-Origin", "*")
		} else {
			h.Set("Access-Control-Allow-Origin", origin)
		}
		if m.config.AllowCredentials {
			h.Set("Access-Control-Allow-Credentials", "true")
		}

		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			h.Set("Access-Control-Allow-Methods", m.methods)
			h.Set("Access-Control-Allow-Headers", m.headers)
			if m.config.MaxAge > 0 {
				h.Set("Access-Control-Max-Age", m.maxAge)
			}
			w.WriteHeader(http.StatusNoContent)
			return
		}

		if m.exposed != "" {
			h.Set("Access-Control-Expose-Headers", m.exposed)
		}
		next.ServeHTTP(w, r)
	})
}

//Personal.AI order the ending
