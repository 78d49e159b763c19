// Package middleware holds the HTTP middleware chain of the ExpTrack API:
// API-key authentication, per-client rate limiting, request logging and CORS.
package middleware

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/turtacn/ExpTrack/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ExpTrack/pkg/errors"
)

type contextKey int

const apiKeyInfoContextKey contextKey = iota

// APIKeyInfo identifies the caller of an authenticated request.  KeyID is a
// short fingerprint, never the key itself.
type APIKeyInfo struct {
	KeyID string `json:"key_id"`
}

// APIKeyValidator validates API keys.
type APIKeyValidator interface {
	ValidateAPIKey(key string) (*APIKeyInfo, error)
}

// StaticKeys accepts a fixed set of keys, typically server.api_keys.
type StaticKeys struct {
	keys [][]byte
}

// NewStaticKeys builds a validator from keys.  Blank entries are ignored.
func NewStaticKeys(keys []string) *StaticKeys {
	s := &StaticKeys{}
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			s.keys = append(s.keys, []byte(k))
		}
	}
	return s
}

// Len reports how many keys are configured.
func (s *StaticKeys) Len() int { return len(s.keys) }

func (s *StaticKeys) ValidateAPIKey(key string) (*APIKeyInfo, error) {
	candidate := []byte(key)
	for _, k := range s.keys {
		if subtle.ConstantTimeCompare(k, candidate) == 1 {
			return &APIKeyInfo{KeyID: fingerprint(key)}, nil
		}
	}
	return nil, errors.New(errors.ErrCodeUnauthorized, "unknown api key")
}

func fingerprint(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:4])
}

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	// SkipPaths bypass authentication entirely, along with their subpaths.
	SkipPaths []string
}

// AuthMiddleware rejects requests that carry no valid API key.
type AuthMiddleware struct {
	validator APIKeyValidator
	config    AuthConfig
	logger    logging.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware.
func NewAuthMiddleware(validator APIKeyValidator, config AuthConfig, logger logging.Logger) *AuthMiddleware {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &AuthMiddleware{validator: validator, config: config, logger: logger.Named("auth")}
}

// Handler enforces authentication.  Keys are read from X-API-Key or from a
// Bearer Authorization header.
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.shouldSkip(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		key := extractAPIKey(r)
		if key == "" {
			writeUnauthorized(w, "authentication required")
			return
		}
		info, err := m.validator.ValidateAPIKey(key)
		if err != nil {
			m.logger.Warn("api key rejected",
				logging.String("path", r.URL.Path),
				logging.String("remote_addr", r.RemoteAddr))
			writeUnauthorized(w, "invalid api key")
			return
		}

		ctx := context.WithValue(r.Context(), apiKeyInfoContextKey, info)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *AuthMiddleware) shouldSkip(path string) bool {
	for _, skip := range m.config.SkipPaths {
		if path == skip || strings.HasPrefix(path, skip+"/") {
			return true
		}
	}
	return false
}

func extractAPIKey(r *http.Request) string {
	if key := strings.TrimSpace(r.Header.Get("X-API-Key")); key != "" {
		return key
	}
	auth := r.Header.Get("Authorization")
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// ContextGetAPIKeyInfo retrieves the caller identity from the request
// context.  It returns nil for anonymous requests.
func ContextGetAPIKeyInfo(ctx context.Context) *APIKeyInfo {
	info, ok := ctx.Value(apiKeyInfoContextKey).(*APIKeyInfo)
	if !ok {
		return nil
	}
	return info
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="exptrack"`)
	writeError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, message)
}

// writeError renders the same envelope as the handlers package.
func writeError(w http.ResponseWriter, status int, code errors.ErrorCode, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":{"code":"` + code.String() + `","message":"` + message + `"}}`))
}

//Personal.AI order the ending
