package controller

import (
	"net/http"

	"github.com/michalszc/library-api/pkg/server/router"
)

// SuccessResponse represents a successful response with data
type SuccessResponse struct {
	Data      interface{} `json:"data"`
	RequestID string      `json:"request_id,omitempty"`
}

// Success sends a successful JSON response with HTTP 200 OK
// It wraps the provided data in a consistent response format
func Success(c router.Context, data interface{}) error {
	return c.JSON(http.StatusOK, SuccessResponse{
		Data:      data,
		RequestID: getRequestID(c.Request().Context()),
	})
}

// Created sends a successful JSON response with HTTP 201 Created
// Typically used after successfully creating a new resource
func Created(c router.Context, data interface{}) error {
	return c.JSON(http.StatusCreated, SuccessResponse{
		Data:      data,
		RequestID: getRequestID(c.Request().Context()),
	})
}

// Error sends an error response with the appropriate HTTP status code
// It uses MapError to convert application errors to HTTP responses
func Error(c router.Context, err error) error {
	statusCode, errorResponse := MapError(c.Request().Context(), err)
	return c.JSON(statusCode, errorResponse)
}
