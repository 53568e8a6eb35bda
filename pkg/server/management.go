package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/michalszc/library-api/pkg/config"
	"github.com/michalszc/library-api/pkg/health"
	"github.com/michalszc/library-api/pkg/middleware/logging"
	"github.com/michalszc/library-api/pkg/middleware/recovery"
	"github.com/michalszc/library-api/pkg/middleware/requestid"
	"github.com/michalszc/library-api/pkg/observability/logger"
	"github.com/michalszc/library-api/pkg/observability/metrics"
	"github.com/michalszc/library-api/pkg/server/router"
	"github.com/michalszc/library-api/pkg/version"
)

// ManagementServer serves health, readiness, metrics and version endpoints on a
// port separate from the public API.
type ManagementServer struct {
	*Server
	healthRegistry  *health.Registry
	metricsRegistry *metrics.Registry
	versionInfo     version.Info
}

// NewManagementServer registers the management endpoints on r:
//   - /health: liveness, always 200
//   - /ready: 200 when every registered check is healthy, 503 otherwise
//   - /metrics: Prometheus text format
//   - /version: build metadata
func NewManagementServer(
	cfg config.ManagementConfig,
	r router.Router,
	log logger.Logger,
	healthRegistry *health.Registry,
	metricsRegistry *metrics.Registry,
	versionInfo version.Info,
) (*ManagementServer, error) {
	r.Use(
		requestid.RequestID(),
		logging.WithConfig(log, logging.Config{Enabled: true, ExcludedPathPrefixes: []string{"/health", "/metrics"}}),
		recovery.Recovery(log),
	)

	serverCfg := Config{
		Port:         cfg.Port,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}
	if cfg.MTLSEnabled {
		tlsConfig, err := LoadTLSConfig(cfg.TLSCertFile, cfg.TLSKeyFile, cfg.TLSCAFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load management mTLS config: %w", err)
		}
		serverCfg.TLSConfig = tlsConfig
		log.Info("management mTLS enabled")
	}

	s := &ManagementServer{
		Server:          NewServer(serverCfg, r, log),
		healthRegistry:  healthRegistry,
		metricsRegistry: metricsRegistry,
		versionInfo:     versionInfo,
	}

	r.GET("/health", s.handleHealth)
	r.GET("/ready", s.handleReady)
	r.GET("/metrics", s.handleMetrics)
	r.GET("/version", s.handleVersion)

	return s, nil
}

func (s *ManagementServer) handleHealth(c router.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status": health.StatusHealthy,
	})
}

func (s *ManagementServer) handleReady(c router.Context) error {
	result := s.healthRegistry.Check(c.Request().Context())
	if !result.IsHealthy() {
		return c.JSON(http.StatusServiceUnavailable, result)
	}
	return c.JSON(http.StatusOK, result)
}

func (s *ManagementServer) handleMetrics(c router.Context) error {
	s.metricsRegistry.Handler().ServeHTTP(c.Response(), c.Request())
	return nil
}

func (s *ManagementServer) handleVersion(c router.Context) error {
	return c.JSON(http.StatusOK, s.versionInfo)
}

// Start starts the management server.
func (s *ManagementServer) Start(ctx context.Context) error {
	return s.Server.Start(ctx)
}
