package errors

import "fmt"

// ErrorCode represents a lister error code.
type ErrorCode string

const (
	ErrInvalidRequest   ErrorCode = "INVALID_REQUEST"   // 400
	ErrNotFound         ErrorCode = "NOT_FOUND"         // 404
	ErrTransientNetwork ErrorCode = "TRANSIENT_NETWORK" // 503, retryable
	ErrFeedService      ErrorCode = "FEED_SERVICE"      // 502, retryable
	ErrInternal         ErrorCode = "INTERNAL"          // 500
)

// ListerError represents a structured error with code, status, and details.
type ListerError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *ListerError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *ListerError {
	return &ListerError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for a missing post or feed.
func NewNotFound(identifier string) *ListerError {
	return &ListerError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("not found: %s", identifier),
		Details: map[string]any{"identifier": identifier},
	}
}

// NewTransientNetwork creates a retryable error for network-level failures
// (timeouts, connection resets) talking to the feed service.
func NewTransientNetwork(err error) *ListerError {
	msg := "network error"
	if err != nil {
		msg = err.Error()
	}
	return &ListerError{
		Code:    ErrTransientNetwork,
		Status:  503,
		Message: msg,
	}
}

// NewFeedService creates a retryable error for failures reported by the
// feed service itself (5xx responses, rate limiting, malformed payloads).
func NewFeedService(msg string, details map[string]any) *ListerError {
	return &ListerError{
		Code:    ErrFeedService,
		Status:  502,
		Message: msg,
		Details: details,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *ListerError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &ListerError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is a ListerError with the given code.
func Is(err error, code ErrorCode) bool {
	if lErr, ok := err.(*ListerError); ok {
		return lErr.Code == code
	}
	return false
}

// Retryable reports whether an error is in the transient-retryable taxonomy:
// network failures and feed-service failures. Anything else is either a
// defect or a caller mistake and gets the longer retry delay upstream.
func Retryable(err error) bool {
	return Is(err, ErrTransientNetwork) || Is(err, ErrFeedService)
}
