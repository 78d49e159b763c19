// Package upstream fetches experiment lists and scalar logs from the
// experiment-tracking backend over HTTP.
package upstream

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/turtacn/ExpTrack/internal/domain/scalar"
	"github.com/turtacn/ExpTrack/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ExpTrack/pkg/errors"
)

const userAgent = "exptrack-scalars/1"

// Config holds the upstream endpoint parameters.
type Config struct {
	BaseURL      string        `mapstructure:"base_url"`
	APIKey       string        `mapstructure:"api_key"`
	Timeout      time.Duration `mapstructure:"timeout"`
	RetryMax     int           `mapstructure:"retry_max"`
	RetryWaitMin time.Duration `mapstructure:"retry_wait_min"`
	RetryWaitMax time.Duration `mapstructure:"retry_wait_max"`
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// Client is an HTTP metrics source.  It is safe for concurrent use.
type Client struct {
	baseURL      string
	apiKey       string
	httpClient   *http.Client
	retryMax     int
	retryWaitMin time.Duration
	retryWaitMax time.Duration
	logger       logging.Logger
}

// envelope is the upstream response wrapper.
type envelope struct {
	Data json.RawMessage `json:"data"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewClient validates cfg and builds a Client.
func NewClient(cfg Config, logger logging.Logger, opts ...Option) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New(errors.ErrCodeValidation, "upstream base url is required")
	}
	u, err := url.Parse(cfg.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, errors.New(errors.ErrCodeValidation, "upstream base url must be an absolute http(s) url").
			WithDetail(cfg.BaseURL)
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RetryMax < 0 {
		cfg.RetryMax = 0
	}
	if cfg.RetryWaitMin <= 0 {
		cfg.RetryWaitMin = 200 * time.Millisecond
	}
	if cfg.RetryWaitMax < cfg.RetryWaitMin {
		cfg.RetryWaitMax = 10 * cfg.RetryWaitMin
	}

	c := &Client{
		baseURL:      strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:       cfg.APIKey,
		httpClient:   &http.Client{Timeout: cfg.Timeout},
		retryMax:     cfg.RetryMax,
		retryWaitMin: cfg.RetryWaitMin,
		retryWaitMax: cfg.RetryWaitMax,
		logger:       logger.Named("upstream"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Experiments returns the ordered experiment list of a project.
func (c *Client) Experiments(ctx context.Context, projectID string) ([]scalar.Experiment, error) {
	var out []scalar.Experiment
	if err := c.get(ctx, projectPath(projectID, "experiments"), &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []scalar.Experiment{}
	}
	return out, nil
}

// Metrics returns every scalar series logged in a project, keyed by
// experiment id then metric name.
func (c *Client) Metrics(ctx context.Context, projectID string) (scalar.MetricsPayload, error) {
	out := scalar.MetricsPayload{}
	if err := c.get(ctx, projectPath(projectID, "scalars"), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Ping checks that the upstream answers at all.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "build upstream ping request")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeUpstreamUnavailable, "upstream unreachable")
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if resp.StatusCode >= 500 {
		return errors.New(errors.ErrCodeUpstreamUnavailable, "upstream unhealthy").
			WithDetail(resp.Status)
	}
	return nil
}

func projectPath(projectID, resource string) string {
	return "/api/v1/projects/" + url.PathEscape(projectID) + "/" + resource
}

// get performs a GET with retry on transport errors, 429 and 5xx.
func (c *Client) get(ctx context.Context, path string, result interface{}) error {
	fullURL := c.baseURL + path

	var lastErr error
	for attempt := 0; attempt <= c.retryMax; attempt++ {
		if attempt > 0 {
			backoff := c.calculateBackoff(attempt)
			c.logger.Debug("retrying upstream request",
				logging.String("path", path),
				logging.Int("attempt", attempt),
				logging.Duration("backoff", backoff))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return errors.Wrap(ctx.Err(), errors.ErrCodeTimeout, "upstream request cancelled")
			}
		}

		body, retry, err := c.once(ctx, fullURL)
		if err == nil {
			if err := decodeEnvelope(body, result); err != nil {
				return errors.Wrap(err, errors.ErrCodeSerialization, "decode upstream response").
					WithDetail(path)
			}
			return nil
		}
		lastErr = err
		if !retry || ctx.Err() != nil {
			return err
		}
	}
	return lastErr
}

// once performs a single attempt and reports whether a failure is retryable.
func (c *Client) once(ctx context.Context, fullURL string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, false, errors.Wrap(err, errors.ErrCodeInternal, "build upstream request")
	}
	requestID := uuid.New().String()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Request-ID", requestID)
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("upstream request failed",
			logging.String("url", fullURL),
			logging.String("request_id", requestID),
			logging.Err(err))
		return nil, true, errors.Wrap(err, errors.ErrCodeUpstreamUnavailable, "upstream request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, errors.Wrap(err, errors.ErrCodeUpstreamUnavailable, "read upstream response")
	}
	c.logger.Debug("upstream response",
		logging.String("url", fullURL),
		logging.Int("status", resp.StatusCode),
		logging.Duration("duration", time.Since(start)))

	switch {
	case resp.StatusCode < 300:
		return body, false, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, false, errors.New(errors.ErrCodeProjectNotFound, "project not found upstream").
			WithDetail(upstreamMessage(body))
	case resp.StatusCode == http.StatusTooManyRequests:
		if wait := retryAfter(resp.Header.Get("Retry-After")); wait > 0 {
			select {
			case <-time.After(wait):
			case <-ctx.Done():
			}
		}
		return nil, true, errors.New(errors.ErrCodeTooManyRequests, "upstream rate limited")
	case resp.StatusCode >= 500:
		return nil, true, errors.New(errors.ErrCodeUpstreamUnavailable, "upstream server error").
			WithDetail(fmt.Sprintf("HTTP %d: %s", resp.StatusCode, upstreamMessage(body)))
	default:
		return nil, false, errors.New(errors.ErrCodeExternalService, "upstream rejected request").
			WithDetail(fmt.Sprintf("HTTP %d: %s", resp.StatusCode, upstreamMessage(body)))
	}
}

func decodeEnvelope(body []byte, result interface{}) error {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return err
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	return json.Unmarshal(env.Data, result)
}

func upstreamMessage(body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil && eb.Message != "" {
		return eb.Message
	}
	if len(body) > 256 {
		body = body[:256]
	}
	return strings.TrimSpace(string(body))
}

// retryAfter parses a Retry-After seconds value, capped at 30s.
func retryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		return 0
	}
	if secs > 30 {
		secs = 30
	}
	return time.Duration(secs) * time.Second
}

func (c *Client) calculateBackoff(attempt int) time.Duration {
	backoff := c.retryWaitMin * time.Duration(1<<uint(attempt-1))
	if backoff > c.retryWaitMax {
		backoff = c.retryWaitMax
	}
	// 0-25% jitter
	if q := int64(backoff / 4); q > 0 {
		backoff += time.Duration(rand.Int63n(q))
	}
	return backoff
}

//Personal.AI order the ending
