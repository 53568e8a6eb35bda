// Package ratelimit throttles requests per client with token buckets.
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"

	"github.com/michalszc/library-api/pkg/controller"
	"github.com/michalszc/library-api/pkg/middleware/requestid"
	"github.com/michalszc/library-api/pkg/server/router"
	"golang.org/x/time/rate"
)

// RateLimiter defines the interface for rate limiting implementations.
// Implementations must be thread-safe and support per-key rate limiting.
type RateLimiter interface {
	// Allow reports whether a request for key is within its limit.
	Allow(key string) bool
}

// TokenBucketLimiter implements the token bucket algorithm with one bucket per key.
type TokenBucketLimiter struct {
	limiters sync.Map // map[string]*rate.Limiter
	rate     rate.Limit
	burst    int
}

// NewTokenBucketLimiter creates a limiter allowing requestsPerSecond on average and
// bursts of up to burst requests.
//
// Example:
//
//	limiter := NewTokenBucketLimiter(100, 200) // 100 req/s, burst of 200
//	if !limiter.Allow(clientIP) {
//	    // reject with 429
//	}
func NewTokenBucketLimiter(requestsPerSecond float64, burst int) *TokenBucketLimiter {
	return &TokenBucketLimiter{
		rate:  rate.Limit(requestsPerSecond),
		burst: burst,
	}
}

// Allow checks if a request for the given key should be allowed.
func (l *TokenBucketLimiter) Allow(key string) bool {
	return l.getLimiter(key).Allow()
}

func (l *TokenBucketLimiter) getLimiter(key string) *rate.Limiter {
	if limiter, ok := l.limiters.Load(key); ok {
		return limiter.(*rate.Limiter)
	}
	limiter, _ := l.limiters.LoadOrStore(key, rate.NewLimiter(l.rate, l.burst))
	return limiter.(*rate.Limiter)
}

// Config defines the configuration for rate limiting middleware.
type Config struct {
	// KeyFunc extracts the rate limiting key from the request. Defaults to the
	// client IP.
	KeyFunc func(router.Context) string
}

// RateLimit creates middleware answering HTTP 429 with a Retry-After header once a
// key exceeds its limit.
func RateLimit(limiter RateLimiter, cfg Config) router.MiddlewareFunc {
	keyFunc := cfg.KeyFunc
	if keyFunc == nil {
		keyFunc = func(c router.Context) string { return ExtractIPFromRequest(c.Request()) }
	}
	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(c router.Context) error {
			if !limiter.Allow(keyFunc(c)) {
				c.Response().Header().Set("Retry-After", "1")
				return c.JSON(http.StatusTooManyRequests, controller.ErrorResponse{
					Code:      http.StatusTooManyRequests,
					Message:   "rate limit exceeded",
					RequestID: requestid.GetRequestID(c.Request().Context()),
				})
			}
			return next(c)
		}
	}
}

// ExtractIPFromRequest extracts the client IP address from the HTTP request.
// It checks X-Forwarded-For and X-Real-IP headers first (for proxied requests),
// then falls back to RemoteAddr.
func ExtractIPFromRequest(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
