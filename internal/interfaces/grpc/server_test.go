package grpc

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"github.com/turtacn/ExpTrack/internal/config"
	"github.com/turtacn/ExpTrack/internal/testutil"
)

type stubChecker struct {
	name string
	err  error
}

func (c stubChecker) Name() string                { return c.name }
func (c stubChecker) Check(context.Context) error { return c.err }

func startTestServer(t *testing.T) (*Server, healthpb.HealthClient, *testutil.MockLogger) {
	t.Helper()
	logger := testutil.NewMockLogger()
	srv, err := NewServer(config.GRPCConfig{Host: "127.0.0.1", Port: 0},
		WithLogger(logger), WithGracefulTimeout(2*time.Second))
	require.NoError(t, err)

	go func() { _ = srv.Start() }()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, err := grpc.DialContext(ctx, srv.Addr(),
		grpc.WithTransportCredentials(insecure.NewCredentials()), grpc.WithBlock())
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = conn.Close()
		_ = srv.Stop(context.Background())
	})
	return srv, healthpb.NewHealthClient(conn), logger
}

func check(t *testing.T, client healthpb.HealthClient, service string) (healthpb.HealthCheckResponse_ServingStatus, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN, err
	}
	return resp.Status, nil
}

func TestServer_HealthServing(t *testing.T) {
	_, client, _ := startTestServer(t)

	st, err := check(t, client, "")
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, st)
}

func TestServer_UnknownComponent(t *testing.T) {
	_, client, _ := startTestServer(t)

	_, err := check(t, client, "nope")
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestServer_RefreshHealth(t *testing.T) {
	srv, client, logger := startTestServer(t)

	healthy := srv.RefreshHealth(context.Background(),
		stubChecker{name: "redis"},
		stubChecker{name: "postgres", err: errors.New("connection refused")},
	)
	assert.False(t, healthy)

	st, err := check(t, client, "redis")
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, st)

	st, err = check(t, client, "postgres")
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, st)

	st, err = check(t, client, "")
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, st)
	assert.True(t, logger.HasMessage("warn", "dependency unhealthy"))

	assert.True(t, srv.RefreshHealth(context.Background(), stubChecker{name: "postgres"}))
	st, err = check(t, client, "")
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, st)
}

func TestServer_MonitorHealthStopsWithContext(t *testing.T) {
	srv, client, _ := startTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		srv.MonitorHealth(ctx, 10*time.Millisecond, stubChecker{name: "kafka", err: errors.New("down")})
		close(done)
	}()

	require.Eventually(t, func() bool {
		st, err := check(t, client, "kafka")
		return err == nil && st == healthpb.HealthCheckResponse_NOT_SERVING
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("MonitorHealth did not return")
	}
}

func TestServer_StopBeforeStart(t *testing.T) {
	srv, err := NewServer(config.GRPCConfig{Host: "127.0.0.1", Port: 0})
	require.NoError(t, err)
	assert.NoError(t, srv.Stop(context.Background()))
}

func TestServer_StartTwice(t *testing.T) {
	srv, _, _ := startTestServer(t)
	assert.Error(t, srv.Start())
}

func TestRecoveryUnaryInterceptor(t *testing.T) {
	logger := testutil.NewMockLogger()
	interceptor := recoveryUnaryInterceptor(logger)

	_, err := interceptor(context.Background(), nil,
		&grpc.UnaryServerInfo{FullMethod: "/svc.Test/Boom"},
		func(context.Context, interface{}) (interface{}, error) { panic("boom") })

	assert.Equal(t, codes.Internal, status.Code(err))
	assert.True(t, logger.HasMessage("error", "grpc panic recovered"))
}

func TestSplitMethodName(t *testing.T) {
	tests := []struct {
		in      string
		service string
		method  string
	}{
		{"/grpc.health.v1.Health/Check", "grpc.health.v1.Health", "Check"},
		{"/a/b/C", "a/b", "C"},
		{"bare", "unknown", "bare"},
	}
	for _, tt := range tests {
		s, m := splitMethodName(tt.in)
		assert.Equal(t, tt.service, s, tt.in)
		assert.Equal(t, tt.method, m, tt.in)
	}
}

//Personal.AI order the ending
