package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/turtacn/ExpTrack/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ExpTrack/pkg/errors"
)

// RateLimiter decides whether a request identified by key may proceed.
type RateLimiter interface {
	Allow(key string) (bool, RateLimitInfo)
}

// RateLimitInfo is the limiter state reported in response headers.
type RateLimitInfo struct {
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RateLimitConfig holds configuration for the rate limit middleware.
type RateLimitConfig struct {
	RequestsPerSecond float64
	BurstSize         int
	// KeyFunc extracts the bucket key.  Defaults to ClientKeyFunc.
	KeyFunc         func(r *http.Request) string
	SkipPaths       []string
	CleanupInterval time.Duration
}

// DefaultRateLimitConfig returns the limits used when server.rate_limit_rps
// is set without a burst.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 20,
		BurstSize:         40,
		KeyFunc:           ClientKeyFunc,
		SkipPaths:         []string{"/healthz", "/readyz", "/metrics"},
		CleanupInterval:   5 * time.Minute,
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Key functions
// ─────────────────────────────────────────────────────────────────────────────

// ClientKeyFunc keys by API key fingerprint when authenticated, otherwise by
// remote address.  chi's RealIP middleware has already rewritten RemoteAddr.
func ClientKeyFunc(r *http.Request) string {
	if info := ContextGetAPIKeyInfo(r.Context()); info != nil {
		return "key:" + info.KeyID
	}
	return "ip:" + r.RemoteAddr
}

// SessionKeyFunc keys dashboard event traffic by session so one noisy tab
// cannot starve the other sessions of the same client.
func SessionKeyFunc(r *http.Request) string {
	if id := chi.URLParam(r, "sessionID"); id != "" {
		return "session:" + id
	}
	return ClientKeyFunc(r)
}

// ─────────────────────────────────────────────────────────────────────────────
// Token bucket
// ─────────────────────────────────────────────────────────────────────────────

type tokenBucket struct {
	mu         sync.Mutex
	tokens     float64
	lastRefill time.Time
}

// TokenBucketLimiter is an in-memory RateLimiter with one bucket per key.
type TokenBucketLimiter struct {
	rate      float64
	burstSize int
	now       func() time.Time

	mu      sync.Mutex
	buckets map[string]*tokenBucket

	stopOnce sync.Once
	stop     chan struct{}
}

// NewTokenBucketLimiter creates a limiter refilling rate tokens per second up
// to burstSize.  A positive cleanupInterval starts a sweeper that forgets
// idle buckets; call Stop to end it.
func NewTokenBucketLimiter(rate float64, burstSize int, cleanupInterval time.Duration) *TokenBucketLimiter {
	if burstSize < 1 {
		burstSize = 1
	}
	l := &TokenBucketLimiter{
		rate:      rate,
		burstSize: burstSize,
		now:       time.Now,
		buckets:   make(map[string]*tokenBucket),
		stop:      make(chan struct{}),
	}
	if cleanupInterval > 0 {
		go l.sweep(cleanupInterval)
	}
	return l
}

func (l *TokenBucketLimiter) bucket(key string, now time.Time) *tokenBucket {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.buckets[key]
	if !ok {
		b = &tokenBucket{tokens: float64(l.burstSize), lastRefill: now}
		l.buckets[key] = b
	}
	return b
}

func (l *TokenBucketLimiter) Allow(key string) (bool, RateLimitInfo) {
	now := l.now()
	b := l.bucket(key, now)

	b.mu.Lock()
	defer b.mu.Unlock()

	b.tokens += now.Sub(b.lastRefill).Seconds() * l.rate
	if b.tokens > float64(l.burstSize) {
		b.tokens = float64(l.burstSize)
	}
	b.lastRefill = now

	info := RateLimitInfo{Limit: l.burstSize}
	if l.rate > 0 {
		info.ResetAt = now.Add(time.Duration(float64(time.Second) / l.rate))
	}
	if b.tokens < 1 {
		return false, info
	}
	b.tokens--
	info.Remaining = int(b.tokens)
	return true, info
}

func (l *TokenBucketLimiter) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			l.forgetIdle(l.now().Add(-interval))
		}
	}
}

// forgetIdle drops full buckets untouched since threshold.
func (l *TokenBucketLimiter) forgetIdle(threshold time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, b := range l.buckets {
		b.mu.Lock()
		idle := b.lastRefill.Before(threshold)
		b.mu.Unlock()
		if idle {
			delete(l.buckets, key)
		}
	}
}

// Stop ends the sweeper.  It is safe to call more than once.
func (l *TokenBucketLimiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

// BucketCount returns the number of tracked keys.
func (l *TokenBucketLimiter) BucketCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// ─────────────────────────────────────────────────────────────────────────────
// Middleware
// ─────────────────────────────────────────────────────────────────────────────

// RateLimitMiddleware rejects requests over the limit with 429.
type RateLimitMiddleware struct {
	limiter RateLimiter
	config  RateLimitConfig
	skip    map[string]bool
	logger  logging.Logger
}

// NewRateLimitMiddleware wraps limiter.
func NewRateLimitMiddleware(limiter RateLimiter, config RateLimitConfig, logger logging.Logger) *RateLimitMiddleware {
	if config.KeyFunc == nil {
		config.KeyFunc = ClientKeyFunc
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	skip := make(map[string]bool, len(config.SkipPaths))
	for _, p := range config.SkipPaths {
		skip[p] = true
	}
	return &RateLimitMiddleware{limiter: limiter, config: config, skip: skip, logger: logger.Named("ratelimit")}
}

func (m *RateLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.skip[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}

		key := m.config.KeyFunc(r)
		allowed, info := m.limiter.Allow(key)

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
		if !info.ResetAt.IsZero() {
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetAt.Unix(), 10))
		}

		if !allowed {
			retry := int(time.Until(info.ResetAt).Seconds())
			if retry < 1 {
				retry = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(retry))
			m.logger.Debug("rate limit exceeded", logging.String("key", key), logging.String("path", r.URL.Path))
			writeError(w, http.StatusTooManyRequests, errors.ErrCodeTooManyRequests, "rate limit exceeded, please retry later")
			return
		}
		next.ServeHTTP(w, r)
	})
}

//Personal.AI order the ending
