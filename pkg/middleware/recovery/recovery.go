// Package recovery turns handler panics into 500 responses.
package recovery

import (
	"net/http"
	"runtime/debug"

	"github.com/michalszc/library-api/pkg/controller"
	"github.com/michalszc/library-api/pkg/middleware/requestid"
	"github.com/michalszc/library-api/pkg/observability/logger"
	"github.com/michalszc/library-api/pkg/server/router"
)

// Recovery creates middleware that recovers from panics in HTTP handlers.
// The panic is logged with its stack trace and, unless a response was already
// started, answered with HTTP 500 in the standard error body.
func Recovery(log logger.Logger) router.MiddlewareFunc {
	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(c router.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				requestID := requestid.GetRequestID(c.Request().Context())
				log.Error("panic recovered",
					"request_id", requestID,
					"panic", r,
					"stack", string(debug.Stack()),
				)

				if c.Response().Written() {
					return
				}
				err = c.JSON(http.StatusInternalServerError, controller.ErrorResponse{
					Code:      http.StatusInternalServerError,
					Message:   "an unexpected error occurred",
					RequestID: requestID,
				})
				if err != nil {
					log.Error("failed to send error response", "request_id", requestID, "error", err)
				}
			}()

			return next(c)
		}
	}
}
