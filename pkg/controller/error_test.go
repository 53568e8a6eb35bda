package controller

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/michalszc/library-api/pkg/apperror"
	"github.com/michalszc/library-api/pkg/middleware"
)

func TestMapError(t *testing.T) {
	withID := context.WithValue(context.Background(), middleware.RequestIDKey, "req-123")

	tests := []struct {
		name          string
		err           error
		ctx           context.Context
		wantStatus    int
		wantMessage   string
		wantRequestID string
		wantFields    int
	}{
		{
			name:        "validation error keeps field errors",
			err:         apperror.Validation("bad input", apperror.FieldError{Field: "title", Rule: "required", Message: "title is required"}),
			ctx:         context.Background(),
			wantStatus:  http.StatusBadRequest,
			wantMessage: "bad input",
			wantFields:  1,
		},
		{
			name:          "duplicate carries request id",
			err:           apperror.Duplicate("Genre already exists"),
			ctx:           withID,
			wantStatus:    http.StatusBadRequest,
			wantMessage:   "Genre already exists",
			wantRequestID: "req-123",
		},
		{
			name:        "reference not found",
			err:         apperror.ReferenceNotFound("Author not found"),
			ctx:         context.Background(),
			wantStatus:  http.StatusNotFound,
			wantMessage: "Author not found",
		},
		{
			name:        "wrapped classified error",
			err:         fmt.Errorf("create: %w", apperror.NotFound("Book not found")),
			ctx:         context.Background(),
			wantStatus:  http.StatusNotFound,
			wantMessage: "Book not found",
		},
		{
			name:        "unclassified error passes its message through",
			err:         errors.New("connection refused"),
			ctx:         context.Background(),
			wantStatus:  http.StatusInternalServerError,
			wantMessage: "connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := MapError(tt.ctx, tt.err)
			if status != tt.wantStatus {
				t.Errorf("status = %d, want %d", status, tt.wantStatus)
			}
			if body.Code != tt.wantStatus {
				t.Errorf("body code = %d, want %d", body.Code, tt.wantStatus)
			}
			if body.Message != tt.wantMessage {
				t.Errorf("message = %q, want %q", body.Message, tt.wantMessage)
			}
			if body.RequestID != tt.wantRequestID {
				t.Errorf("request id = %q, want %q", body.RequestID, tt.wantRequestID)
			}
			if len(body.Errors) != tt.wantFields {
				t.Errorf("field errors = %d, want %d", len(body.Errors), tt.wantFields)
			}
		})
	}
}
