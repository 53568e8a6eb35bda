package controller

import (
	"context"
	"net/http"

	"github.com/michalszc/library-api/pkg/apperror"
	"github.com/michalszc/library-api/pkg/middleware"
)

// ErrorResponse represents the consistent error response format.
type ErrorResponse struct {
	Code      int                    `json:"code"`
	Message   string                 `json:"message"`
	Errors    []apperror.FieldError  `json:"errors,omitempty"`
	Params    map[string]interface{} `json:"params,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
}

// MapError maps any error to an HTTP status and response body. Classified errors
// keep their status and field errors; anything else is a 500 carrying the error text.
func MapError(ctx context.Context, err error) (int, ErrorResponse) {
	requestID := getRequestID(ctx)

	appErr, ok := apperror.As(err)
	if !ok {
		message := "an unexpected error occurred"
		if err != nil && err.Error() != "" {
			message = err.Error()
		}
		return http.StatusInternalServerError, ErrorResponse{
			Code:      http.StatusInternalServerError,
			Message:   message,
			RequestID: requestID,
		}
	}

	status := appErr.Status()
	message := appErr.Message
	if message == "" {
		message = http.StatusText(status)
	}
	return status, ErrorResponse{
		Code:      status,
		Message:   message,
		Errors:    appErr.Fields,
		Params:    map[string]interface{}(appErr.Params),
		RequestID: requestID,
	}
}

// getRequestID extracts the request ID from context.
func getRequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(middleware.RequestIDKey).(string); ok {
		return id
	}
	return ""
}
