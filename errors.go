package tensalis

import (
	"fmt"
	"time"
)

// Error is implemented by every error the SDK returns. The set of
// implementations is closed: *ClientError, *APIError, *AuthenticationError,
// *RateLimitError, *TimeoutError, *ValidationError, and *ConnectionError.
// Callers can assert against Error to handle all SDK failures generically,
// or use errors.As with a concrete variant for fine-grained handling.
type Error interface {
	error
	sdkError()
}

// ClientError is the catch-all failure variant for errors that fit no other
// category, such as a malformed response body from the server.
type ClientError struct {
	// Message is a human-readable error description.
	Message string
	// Err is the underlying cause, if any.
	Err error
}

func (e *ClientError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("tensalis: %s: %v", e.Message, e.Err)
	}
	return "tensalis: " + e.Message
}

func (e *ClientError) Unwrap() error { return e.Err }

func (e *ClientError) sdkError() {}

// APIError is returned for any non-2xx response not otherwise classified.
type APIError struct {
	// StatusCode is the HTTP status code from the API.
	StatusCode int
	// Message is the server-provided error message, or a generic one if the
	// body carried none.
	Message string
	// Body is the raw response body.
	Body []byte
	// Code is the API error code, if the server provided one.
	Code string
	// RequestID identifies the request for support and debugging.
	RequestID string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("tensalis: api error [%d] %s", e.StatusCode, e.Message)
}

func (e *APIError) sdkError() {}

// AuthenticationError is the APIError specialization for HTTP 401. The API
// key is invalid, expired, or lacks the required permissions.
type AuthenticationError struct {
	APIError
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("tensalis: authentication failed [%d] %s", e.StatusCode, e.Message)
}

// Unwrap exposes the embedded APIError so errors.As(err, **APIError) matches.
func (e *AuthenticationError) Unwrap() error { return &e.APIError }

// RateLimitError is the APIError specialization for HTTP 429.
type RateLimitError struct {
	APIError
	// RetryAfter is the server-provided minimum wait before the next attempt.
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("tensalis: rate limit exceeded (retry after %s)", e.RetryAfter)
}

// Unwrap exposes the embedded APIError so errors.As(err, **APIError) matches.
func (e *RateLimitError) Unwrap() error { return &e.APIError }

// TimeoutError is returned when no response arrives within the configured
// timeout across all retry attempts.
type TimeoutError struct {
	// Timeout is the per-attempt deadline that elapsed.
	Timeout time.Duration
	// Err is the underlying transport error.
	Err error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("tensalis: request timed out after %s", e.Timeout)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

func (e *TimeoutError) sdkError() {}

// ValidationError is raised locally, before any network call, when
// caller-supplied arguments violate documented constraints.
type ValidationError struct {
	// Field names the offending argument (e.g., "response", "context").
	Field string
	// Message describes the violated constraint.
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("tensalis: validation error on %q: %s", e.Field, e.Message)
	}
	return "tensalis: validation error: " + e.Message
}

func (e *ValidationError) sdkError() {}

// ConnectionError is returned when the API endpoint cannot be reached:
// network connectivity problems, DNS failures, or endpoint unavailability.
type ConnectionError struct {
	// Err is the underlying network error.
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("tensalis: connection failed: %v", e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

func (e *ConnectionError) sdkError() {}
