package server

import (
	"context"
	"strings"

	"github.com/michalszc/library-api/pkg/config"
	"github.com/michalszc/library-api/pkg/middleware/logging"
	"github.com/michalszc/library-api/pkg/middleware/metrics"
	"github.com/michalszc/library-api/pkg/middleware/ratelimit"
	"github.com/michalszc/library-api/pkg/middleware/recovery"
	"github.com/michalszc/library-api/pkg/middleware/requestid"
	"github.com/michalszc/library-api/pkg/observability/logger"
	obsmetrics "github.com/michalszc/library-api/pkg/observability/metrics"
	"github.com/michalszc/library-api/pkg/server/router"
)

// PublicAPIServer serves the catalog API.
type PublicAPIServer struct {
	*Server
	router router.Router
}

// NewPublicAPIServer installs the standard middleware stack on r and wraps it in a
// Server. Routes must be registered on r (or its groups) afterwards.
//
// The stack, outermost first: request ID, request logging, panic recovery,
// Prometheus metrics and, when enabled, rate limiting.
func NewPublicAPIServer(cfg *config.Config, r router.Router, log logger.Logger, httpMetrics *obsmetrics.HTTPMetrics) *PublicAPIServer {
	type middlewareEntry struct {
		name string
		fn   router.MiddlewareFunc
	}
	namedMiddlewares := []middlewareEntry{
		{name: "request_id", fn: requestid.RequestID()},
		{name: "logging", fn: logging.WithConfig(log, loggingConfig(cfg.Observability.RequestLogging))},
		{name: "recovery", fn: recovery.Recovery(log)},
		{name: "metrics", fn: metrics.Metrics(httpMetrics)},
	}
	if cfg.RateLimit.Enabled {
		limiter := ratelimit.NewTokenBucketLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
		namedMiddlewares = append(namedMiddlewares, middlewareEntry{
			name: "rate_limit",
			fn:   ratelimit.RateLimit(limiter, rateLimitConfig(cfg.RateLimit)),
		})
	}

	middlewareFuncs := make([]router.MiddlewareFunc, 0, len(namedMiddlewares))
	middlewareNames := make([]string, 0, len(namedMiddlewares))
	for _, entry := range namedMiddlewares {
		middlewareFuncs = append(middlewareFuncs, entry.fn)
		middlewareNames = append(middlewareNames, entry.name)
	}
	log.Debug("active middleware stack", "middlewares", strings.Join(middlewareNames, ", "))
	r.Use(middlewareFuncs...)

	return &PublicAPIServer{
		Server: NewServer(Config{
			Port:         cfg.HTTP.Port,
			ReadTimeout:  cfg.HTTP.ReadTimeout,
			WriteTimeout: cfg.HTTP.WriteTimeout,
			IdleTimeout:  cfg.HTTP.IdleTimeout,
		}, r, log),
		router: r,
	}
}

// Router returns the public router for registering routes.
func (s *PublicAPIServer) Router() router.Router {
	return s.router
}

// Start starts the public API server.
func (s *PublicAPIServer) Start(ctx context.Context) error {
	return s.Server.Start(ctx)
}

func loggingConfig(cfg config.RequestLoggingConfig) logging.Config {
	out := logging.Config{
		Enabled:              cfg.Enabled,
		LogStart:             cfg.LogStart,
		ExcludedPathPrefixes: cfg.ExcludedPathPrefixes,
		PathPolicies:         make([]logging.PathPolicy, 0, len(cfg.PathPolicies)),
	}
	for _, policy := range cfg.PathPolicies {
		out.PathPolicies = append(out.PathPolicies, logging.PathPolicy{
			Prefix: policy.PathPrefix,
			Mode:   logging.Mode(strings.ToLower(policy.Mode)),
		})
	}
	return out
}

func rateLimitConfig(cfg config.RateLimitConfig) ratelimit.Config {
	if cfg.KeyBy == config.RateLimitKeyGlobal {
		return ratelimit.Config{KeyFunc: func(router.Context) string { return config.RateLimitKeyGlobal }}
	}
	return ratelimit.Config{}
}
