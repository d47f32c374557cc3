package errors

import (
	stderrors "errors"
	"fmt"
)

// APIError is the error body every handler responds with
type APIError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Field   string    `json:"field,omitempty"`
	Details string    `json:"details,omitempty"`
	Status  int       `json:"-"`

	cause error
}

// New creates an APIError whose status follows from code
func New(code ErrorCode, message string) *APIError {
	return &APIError{Code: code, Message: message, Status: code.StatusCode()}
}

func (e *APIError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (field: %s)", e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.cause
}

// Wrap attaches the underlying error. It is logged, never sent to the client.
func (e *APIError) Wrap(err error) *APIError {
	e.cause = err
	return e
}

// WithDetails adds a client-visible detail string
func (e *APIError) WithDetails(details string) *APIError {
	e.Details = details
	return e
}

// As extracts an APIError from err's chain
func As(err error) (*APIError, bool) {
	var apiErr *APIError
	if stderrors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// NotFound creates a NOT_FOUND error
func NotFound(resource string) *APIError {
	return New(ErrNotFound, fmt.Sprintf("%s not found", resource))
}

// ValidationError creates a VALIDATION_ERROR for one field
func ValidationError(field, message string) *APIError {
	e := New(ErrValidation, message)
	e.Field = field
	return e
}

// BadRequest creates a BAD_REQUEST error
func BadRequest(message string) *APIError {
	return New(ErrBadRequest, message)
}

// InternalError creates an INTERNAL_ERROR
func InternalError(message string) *APIError {
	return New(ErrInternalError, message)
}

// RateLimited creates a RATE_LIMITED error
func RateLimited(retryAfterSeconds int) *APIError {
	return New(ErrRateLimited, "too many requests").
		WithDetails(fmt.Sprintf("retry after %d seconds", retryAfterSeconds))
}

// ServiceUnavailable creates a SERVICE_UNAVAILABLE error
func ServiceUnavailable(service string) *APIError {
	return New(ErrServiceUnavail, fmt.Sprintf("%s is unavailable", service))
}
