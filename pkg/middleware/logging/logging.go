// Package logging writes one structured log entry per HTTP request.
package logging

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/michalszc/library-api/pkg/middleware/requestid"
	"github.com/michalszc/library-api/pkg/observability/logger"
	"github.com/michalszc/library-api/pkg/server/router"
)

// Mode defines logging verbosity for matching request paths.
type Mode string

// Logging mode constants
const (
	// ModeOff disables request logging
	ModeOff Mode = "off"
	// ModeMinimal logs only the completion entry
	ModeMinimal Mode = "minimal"
	// ModeFull also logs when the request starts
	ModeFull Mode = "full"
)

// Log field name constants
const (
	FieldRequestID  = "request_id"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldRoute      = "route"
	FieldStatus     = "status"
	FieldDurationMS = "duration_ms"
	FieldRemoteAddr = "remote_addr"
	FieldUserAgent  = "http_user_agent"
	FieldError      = "error"
)

// Config configures request logging middleware behavior.
type Config struct {
	Enabled bool
	// LogStart logs an entry when a request begins, for paths in ModeFull.
	LogStart bool
	// ExcludedPathPrefixes are never logged (e.g. /health).
	ExcludedPathPrefixes []string
	// PathPolicies override the mode for a path prefix; the longest prefix wins.
	PathPolicies []PathPolicy
}

// PathPolicy configures a logging mode for a path prefix.
type PathPolicy struct {
	Prefix string
	Mode   Mode
}

// DefaultConfig returns default request logging behavior.
func DefaultConfig() Config {
	return Config{Enabled: true}
}

// Logging creates middleware with default configuration.
func Logging(log logger.Logger) router.MiddlewareFunc {
	return WithConfig(log, DefaultConfig())
}

// WithConfig creates request logging middleware with custom configuration.
// Server errors are logged at error level, client errors at warn, the rest at info.
func WithConfig(log logger.Logger, cfg Config) router.MiddlewareFunc {
	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(c router.Context) error {
			req := c.Request()
			mode := cfg.modeForPath(req.URL.Path)
			if mode == ModeOff {
				return next(c)
			}

			start := time.Now()
			if cfg.LogStart && mode == ModeFull {
				log.Info("request started", startFields(c)...)
			}

			err := next(c)
			status := c.Response().Status()
			fields := append(startFields(c),
				FieldRoute, c.Route(),
				FieldStatus, status,
				FieldDurationMS, time.Since(start).Milliseconds(),
			)
			if err != nil {
				fields = append(fields, FieldError, err.Error())
			}

			switch {
			case err != nil || status >= http.StatusInternalServerError:
				log.Error("request failed", fields...)
			case status >= http.StatusBadRequest:
				log.Warn("request rejected", fields...)
			default:
				log.Info("request completed", fields...)
			}
			return err
		}
	}
}

func startFields(c router.Context) []any {
	req := c.Request()
	return []any{
		FieldRequestID, requestid.GetRequestID(req.Context()),
		FieldMethod, req.Method,
		FieldPath, req.URL.Path,
		FieldRemoteAddr, remoteHost(req.RemoteAddr),
		FieldUserAgent, req.UserAgent(),
	}
}

func (cfg Config) modeForPath(path string) Mode {
	if !cfg.Enabled {
		return ModeOff
	}
	for _, prefix := range cfg.ExcludedPathPrefixes {
		if prefix != "" && strings.HasPrefix(path, prefix) {
			return ModeOff
		}
	}
	mode, longest := ModeFull, -1
	for _, policy := range cfg.PathPolicies {
		if strings.HasPrefix(path, policy.Prefix) && len(policy.Prefix) > longest {
			mode, longest = policy.Mode, len(policy.Prefix)
		}
	}
	return mode
}

func remoteHost(addr string) string {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}
