package errors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/leadbridge/marketplace/cli/pkg/api"
)

// ErrorType categorizes different error types
type ErrorType string

const (
	ErrorTypeNetwork    ErrorType = "network"
	ErrorTypeTimeout    ErrorType = "timeout"
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeFile       ErrorType = "file"
	ErrorTypeServer     ErrorType = "server"
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeRateLimit  ErrorType = "rate_limit"
	ErrorTypeUnknown    ErrorType = "unknown"
)

// CLIError represents a structured error with context
type CLIError struct {
	Type       ErrorType
	Message    string
	Cause      error
	Suggestion string
	StatusCode int
	RetryAfter int
}

// Error implements the error interface
func (e *CLIError) Error() string {
	return e.Message
}

// WithSuggestion adds a helpful suggestion to the error
func (e *CLIError) WithSuggestion(suggestion string) *CLIError {
	e.Suggestion = suggestion
	return e
}

// HasSuggestion returns true if the error has a suggestion
func (e *CLIError) HasSuggestion() bool {
	return e.Suggestion != ""
}

// Unwrap returns the underlying error
func (e *CLIError) Unwrap() error {
	return e.Cause
}

// NewCLIError creates a new CLI error
func NewCLIError(errorType ErrorType, message string, cause error) *CLIError {
	return &CLIError{
		Type:    errorType,
		Message: message,
		Cause:   cause,
	}
}

// NetworkError creates a network error
func NetworkError(message string) *CLIError {
	return NewCLIError(ErrorTypeNetwork, message, nil).
		WithSuggestion("Check that the leads server is running and api.base_url is correct.")
}

// TimeoutError creates a timeout error
func TimeoutError() *CLIError {
	return NewCLIError(ErrorTypeTimeout, "Request timed out", nil).
		WithSuggestion("The server is taking too long to respond. Raise api.timeout or try again.")
}

// ValidationError creates a validation error
func ValidationError(field, reason string) *CLIError {
	return NewCLIError(ErrorTypeValidation, fmt.Sprintf("Validation error: %s - %s", field, reason), nil)
}

// FileError wraps a failure to read an input file
func FileError(path string, cause error) *CLIError {
	return NewCLIError(ErrorTypeFile, fmt.Sprintf("Cannot read %s", path), cause).
		WithSuggestion("Check the file path and permissions.")
}

// ServerError creates a server error
func ServerError(statusCode int) *CLIError {
	err := NewCLIError(ErrorTypeServer, "Server error", nil)
	err.StatusCode = statusCode
	err.Suggestion = "The server encountered an error. Try again in a few moments."
	return err
}

// NotFoundError creates a not found error
func NotFoundError(resourceType, identifier string) *CLIError {
	err := NewCLIError(ErrorTypeNotFound, fmt.Sprintf("%s not found: %s", resourceType, identifier), nil)
	err.StatusCode = 404
	return err
}

// RateLimitError creates a rate limit error
func RateLimitError(retryAfter int) *CLIError {
	err := NewCLIError(ErrorTypeRateLimit, "Rate limit exceeded. Too many requests.", nil)
	err.StatusCode = 429
	err.RetryAfter = retryAfter
	err.Suggestion = fmt.Sprintf("Please wait %d seconds before trying again.", retryAfter)
	return err
}

// CategorizeError converts a standard error into a CLIError
func CategorizeError(err error) *CLIError {
	if err == nil {
		return nil
	}

	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		return cliErr
	}

	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == 404:
			e := NewCLIError(ErrorTypeNotFound, apiErr.Message, err)
			e.StatusCode = 404
			return e
		case apiErr.StatusCode == 429:
			retryAfter := apiErr.RetryAfter
			if retryAfter <= 0 {
				retryAfter = 60
			}
			e := RateLimitError(retryAfter)
			e.Cause = err
			return e
		case apiErr.StatusCode >= 500:
			e := ServerError(apiErr.StatusCode)
			e.Cause = err
			return e
		}
	}

	errMsg := err.Error()
	switch {
	case strings.Contains(errMsg, "connection refused"):
		return NetworkError("Could not connect to server. Make sure it's running.")
	case strings.Contains(errMsg, "timeout"), strings.Contains(errMsg, "context deadline exceeded"):
		return TimeoutError()
	default:
		return NewCLIError(ErrorTypeUnknown, errMsg, err)
	}
}

// FormatError returns a user-friendly error message
func FormatError(err error) string {
	if err == nil {
		return ""
	}

	cliErr := CategorizeError(err)
	var sb strings.Builder

	sb.WriteString("Error")
	if cliErr.Type != ErrorTypeUnknown {
		sb.WriteString(" (")
		sb.WriteString(string(cliErr.Type))
		sb.WriteString(")")
	}
	sb.WriteString(": ")
	sb.WriteString(cliErr.Message)
	sb.WriteString("\n")

	if cliErr.HasSuggestion() {
		sb.WriteString("\nSuggestion: ")
		sb.WriteString(cliErr.Suggestion)
		sb.WriteString("\n")
	}

	if cliErr.Type == ErrorTypeRateLimit && cliErr.RetryAfter > 0 {
		sb.WriteString(fmt.Sprintf("\nRetry in: %d seconds\n", cliErr.RetryAfter))
	}

	return sb.String()
}
