package http

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/turtacn/ExpTrack/internal/config"
	"github.com/turtacn/ExpTrack/internal/infrastructure/monitoring/logging"
)

const defaultShutdownTimeout = 30 * time.Second

// Server wraps http.Server with structured logging and a bounded graceful
// shutdown.
type Server struct {
	httpServer      *http.Server
	shutdownTimeout time.Duration
	logger          logging.Logger
}

// NewServer builds a server listening on addr.
func NewServer(addr string, handler http.Handler) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      handler,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		shutdownTimeout: defaultShutdownTimeout,
		logger:          logging.NewNopLogger(),
	}
}

// NewServerFromConfig builds a server from the server section of the
// configuration.  Zero timeouts keep the NewServer defaults.
func NewServerFromConfig(cfg config.ServerConfig, handler http.Handler, logger logging.Logger) *Server {
	s := NewServer(net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)), handler)
	if cfg.ReadTimeout > 0 {
		s.httpServer.ReadTimeout = cfg.ReadTimeout
	}
	if cfg.WriteTimeout > 0 {
		s.httpServer.WriteTimeout = cfg.WriteTimeout
	}
	if cfg.IdleTimeout > 0 {
		s.httpServer.IdleTimeout = cfg.IdleTimeout
	}
	if cfg.ShutdownTimeout > 0 {
		s.shutdownTimeout = cfg.ShutdownTimeout
	}
	if logger != nil {
		s.logger = logger.Named("http")
	}
	return s
}

// Addr returns the configured listen address.
func (s *Server) Addr() string { return s.httpServer.Addr }

// Start serves until Shutdown is called.  A graceful close is not an error.
func (s *Server) Start() error {
	s.logger.Info("HTTP server listening", logging.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Serve is Start over an existing listener.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("HTTP server listening", logging.String("addr", ln.Addr().String()))
	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests, waiting at most the shutdown timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(ctx, s.shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP server shutdown failed", logging.Err(err))
		return err
	}
	s.logger.Info("HTTP server stopped")
	return nil
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

//Personal.AI order the ending
