package bootstrap

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/ExpTrack/internal/config"
	"github.com/turtacn/ExpTrack/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ExpTrack/pkg/errors"
)

func workerConfig(t *testing.T) *config.Config {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	cfg := config.NewDefaultConfig()
	cfg.Redis.Addr = mr.Addr()
	cfg.Kafka.Enabled = true
	cfg.Kafka.Brokers = []string{"127.0.0.1:1"}
	cfg.Kafka.GroupID = "exptrack-test"
	cfg.Kafka.AutoOffsetReset = "earliest"
	return cfg
}

func TestNewWorker_RequiresKafka(t *testing.T) {
	cfg := config.NewDefaultConfig()
	_, err := NewWorker(context.Background(), cfg, nil, "")
	assert.True(t, errors.IsValidation(err))
}

func TestNewWorker_RequiresRedis(t *testing.T) {
	cfg := workerConfig(t)
	cfg.Redis.Addr = "127.0.0.1:1"
	cfg.Redis.DialTimeout = 100 * time.Millisecond

	_, err := NewWorker(context.Background(), cfg, nil, "")
	assert.True(t, errors.IsCode(err, errors.ErrCodeServiceUnavailable))
}

func TestWorker_HealthEndpoints(t *testing.T) {
	w, err := NewWorker(context.Background(), workerConfig(t), logging.NewNopLogger(), "127.0.0.1:0", WithVersion("w1"))
	require.NoError(t, err)
	defer w.Close()

	rec := do(t, w.health.Handler(), http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"version":"w1"`)

	rec = do(t, w.health.Handler(), http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, rec.Code, "redis is reachable")

	rec = do(t, w.health.Handler(), http.MethodGet, "/api/v1/sessions/x", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWorker_RunStopsOnCancel(t *testing.T) {
	w, err := NewWorker(context.Background(), workerConfig(t), logging.NewNopLogger(), "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

//Personal.AI order the ending
