// Package server runs the public catalog API and the management endpoints with
// graceful startup and shutdown.
package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/michalszc/library-api/pkg/observability/logger"
)

// DefaultShutdownTimeout bounds the wait for in-flight requests on shutdown.
const DefaultShutdownTimeout = 30 * time.Second

// Server wraps http.Server with configurable timeouts and graceful lifecycle management.
type Server struct {
	httpServer *http.Server
	handler    http.Handler
	logger     logger.Logger
	config     Config

	mu    sync.Mutex
	addr  net.Addr
	ready chan struct{}
}

// Config holds configuration for the HTTP server.
type Config struct {
	// Host is the interface to bind; empty binds all interfaces.
	Host string
	// Port 0 picks a free port, reported by Addr once the server is ready.
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	TLSConfig       *tls.Config
}

// NewServer creates a Server serving handler.
func NewServer(cfg Config, handler http.Handler, log logger.Logger) *Server {
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}
	return &Server{
		handler: handler,
		logger:  log,
		config:  cfg,
		ready:   make(chan struct{}),
	}
}

// Start binds the listener and serves until ctx is cancelled, then shuts down
// gracefully. Bind failures are returned immediately.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", net.JoinHostPort(s.config.Host, fmt.Sprint(s.config.Port)))
	if err != nil {
		return fmt.Errorf("server failed to start: %w", err)
	}
	if s.config.TLSConfig != nil {
		ln = tls.NewListener(ln, s.config.TLSConfig)
	}

	s.mu.Lock()
	s.httpServer = &http.Server{
		Handler:      s.handler,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
		TLSConfig:    s.config.TLSConfig,
	}
	s.addr = ln.Addr()
	close(s.ready)
	s.mu.Unlock()

	s.logger.Info("starting server", "addr", ln.Addr().String(), "tls_enabled", s.config.TLSConfig != nil)

	errChan := make(chan error, 1)
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	}
}

// Ready is closed once the listener is bound.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Addr returns the bound address, empty before Ready.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.addr == nil {
		return ""
	}
	return s.addr.String()
}

// Shutdown stops accepting connections and waits up to the shutdown timeout for
// in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	httpServer := s.httpServer
	s.mu.Unlock()
	if httpServer == nil {
		return nil
	}

	addr := s.Addr()
	s.logger.Info("shutting down server", "addr", addr)

	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.logger.Info("server shutdown complete", "addr", addr)
	return nil
}
