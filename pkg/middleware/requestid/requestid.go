// Package requestid tags every request with an identifier for log and response
// correlation.
package requestid

import (
	"context"

	"github.com/google/uuid"
	"github.com/michalszc/library-api/pkg/middleware"
	"github.com/michalszc/library-api/pkg/server/router"
)

// RequestIDHeader is the HTTP header name for request ID.
const RequestIDHeader = "X-Request-ID"

// maxLength caps client-supplied ids; longer values are replaced.
const maxLength = 128

// RequestID creates middleware that generates or extracts request IDs.
// A client-supplied X-Request-ID is kept; otherwise a UUID is generated. The id is
// echoed in the response headers and stored in the request context.
func RequestID() router.MiddlewareFunc {
	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(c router.Context) error {
			requestID := c.Request().Header.Get(RequestIDHeader)
			if requestID == "" || len(requestID) > maxLength {
				requestID = uuid.New().String()
			}

			c.Set(string(middleware.RequestIDKey), requestID)
			c.Response().Header().Set(RequestIDHeader, requestID)

			ctx := context.WithValue(c.Request().Context(), middleware.RequestIDKey, requestID)
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}

// GetRequestID extracts the request ID from a context.
// Returns empty string if no request ID is found.
func GetRequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if requestID, ok := ctx.Value(middleware.RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}
