// Package apperror is the classified error contract shared by every layer. Each failing
// operation yields exactly one *Error (or an unclassified error, which the HTTP layer
// treats as internal).
package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
)

// Stable error codes.
const (
	CodeValidation        = "validation.failed"
	CodeReferenceNotFound = "reference.not_found"
	CodeNotFound          = "resource.not_found"
	CodeDuplicate         = "resource.duplicate"
	CodeInternal          = "internal.error"
)

// Params carries dynamic values attached to an error, e.g. the missing ids.
type Params map[string]interface{}

// FieldError describes one invalid request field.
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule,omitempty"`
	Message string `json:"message"`
}

// Error is a classified application error: stable code, human message, HTTP status,
// optional field errors and wrapped cause.
type Error struct {
	Code       string
	Message    string
	Params     Params
	Fields     []FieldError
	HTTPStatus int
	Cause      error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	label := e.Code
	if e.Message != "" {
		label = e.Message
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", label, e.Cause)
	}
	return label
}

// Unwrap exposes the wrapped cause for errors.Is / errors.As.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// New creates an Error with a stable code.
func New(code, message string, status int) *Error {
	return &Error{Code: code, Message: message, HTTPStatus: status}
}

// WithParams attaches params.
func (e *Error) WithParams(params Params) *Error {
	if e == nil {
		return nil
	}
	e.Params = cloneParams(params)
	return e
}

// WithFields attaches field errors.
func (e *Error) WithFields(fields ...FieldError) *Error {
	if e == nil {
		return nil
	}
	e.Fields = append(e.Fields, fields...)
	return e
}

// WithCause wraps cause.
func (e *Error) WithCause(cause error) *Error {
	if e == nil {
		return nil
	}
	e.Cause = cause
	return e
}

// Status returns the HTTP status, defaulting to 500.
func (e *Error) Status() int {
	if e == nil || e.HTTPStatus == 0 {
		return http.StatusInternalServerError
	}
	return e.HTTPStatus
}

// Validation reports malformed input (400).
func Validation(message string, fields ...FieldError) *Error {
	return New(CodeValidation, message, http.StatusBadRequest).WithFields(fields...)
}

// ReferenceNotFound reports a related entity that does not exist (404).
func ReferenceNotFound(message string) *Error {
	return New(CodeReferenceNotFound, message, http.StatusNotFound)
}

// NotFound reports a missing entity addressed by id (404).
func NotFound(message string) *Error {
	return New(CodeNotFound, message, http.StatusNotFound)
}

// Duplicate reports that an equivalent entity already exists (400).
func Duplicate(message string) *Error {
	return New(CodeDuplicate, message, http.StatusBadRequest)
}

// Internal reports an unclassified failure (500). The message is passed to clients.
func Internal(message string, cause error) *Error {
	return New(CodeInternal, message, http.StatusInternalServerError).WithCause(cause)
}

// As extracts the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasCode reports whether err classifies as code.
func HasCode(err error, code string) bool {
	appErr, ok := As(err)
	return ok && appErr.Code == code
}

// CanonicalParams returns the param keys sorted, for logs and tests.
func CanonicalParams(params Params) []string {
	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func cloneParams(params Params) Params {
	if len(params) == 0 {
		return nil
	}
	out := make(Params, len(params))
	for key, value := range params {
		out[key] = value
	}
	return out
}
