// Package router provides an abstraction layer for HTTP routing, so handlers and
// middleware stay independent of the engine behind them.
package router

import (
	"errors"
	"net/http"
)

// ErrEmptyBody is returned by Context.Bind when the request carries no body.
var ErrEmptyBody = errors.New("request body is empty")

// Router defines the interface for HTTP routing.
type Router interface {
	// HTTP method handlers
	GET(path string, handler HandlerFunc, middleware ...MiddlewareFunc)
	POST(path string, handler HandlerFunc, middleware ...MiddlewareFunc)
	PATCH(path string, handler HandlerFunc, middleware ...MiddlewareFunc)
	DELETE(path string, handler HandlerFunc, middleware ...MiddlewareFunc)

	// Group creates a route group with common prefix and middleware
	Group(prefix string, middleware ...MiddlewareFunc) Router

	// Use applies middleware to all routes registered afterwards
	Use(middleware ...MiddlewareFunc)

	// ServeHTTP implements http.Handler
	ServeHTTP(w http.ResponseWriter, r *http.Request)
}

// HandlerFunc is the function signature for route handlers.
// It receives a Context and returns an error.
type HandlerFunc func(Context) error

// MiddlewareFunc is the function signature for middleware.
// It wraps a HandlerFunc and returns a new HandlerFunc.
type MiddlewareFunc func(HandlerFunc) HandlerFunc

// Context provides access to request and response in a router-agnostic way.
type Context interface {
	// Request returns the underlying HTTP request
	Request() *http.Request

	// SetRequest sets the HTTP request (useful for middleware that modifies the request)
	SetRequest(r *http.Request)

	// Response returns the response writer
	Response() ResponseWriter

	// SetResponse sets the HTTP response writer (useful for middleware that wraps responses)
	SetResponse(w ResponseWriter)

	// Route returns the matched route template (e.g., /api/v1/books/:id)
	Route() string

	// Param returns a URL parameter by name (e.g., /books/:id)
	Param(name string) string

	// Query returns a query parameter by name (e.g., /books?title=dune)
	Query(name string) string

	// Bind strictly decodes a JSON request body into v. Unknown keys and trailing
	// data are errors; a missing body yields ErrEmptyBody.
	Bind(v interface{}) error

	// JSON sends a JSON response with the given status code
	JSON(code int, v interface{}) error

	// String sends a plain text response with the given status code
	String(code int, s string) error

	// Get retrieves a value from the context by key
	Get(key string) interface{}

	// Set stores a value in the context by key
	Set(key string, value interface{})
}

// ResponseWriter wraps http.ResponseWriter to track response status.
type ResponseWriter interface {
	http.ResponseWriter

	// Status returns the HTTP status code of the response
	Status() int

	// Written returns whether the response has been written
	Written() bool
}
