// Package middleware holds the request-scoped context keys shared by the HTTP
// middleware packages beneath it.
package middleware

// ContextKey is a typed key for context values to avoid collisions
type ContextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey ContextKey = "request_id"
)
