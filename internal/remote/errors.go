package remote

import (
	"errors"
	"fmt"
)

// ErrUnauthorized indicates the configured API token was rejected
var ErrUnauthorized = errors.New("invalid or expired remote API token")

// ErrRateLimited indicates the API rate limit was exceeded
var ErrRateLimited = errors.New("remote API rate limit exceeded")

// ErrNotFound indicates the target record does not exist remotely
var ErrNotFound = errors.New("remote record not found")

// ServerError represents a 5xx error from the remote API
type ServerError struct {
	StatusCode int
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("remote server error: HTTP %d", e.StatusCode)
}

// ValidationError represents a 400/422 response: the payload itself was
// rejected. Validation failures are permanent and must not be retried.
type ValidationError struct {
	StatusCode int
	Message    string
}

func (e *ValidationError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("remote rejected payload: HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("remote rejected payload: HTTP %d: %s", e.StatusCode, e.Message)
}

// IsRetryable reports whether the error is worth another attempt.
// Rate limits and server errors are transient; everything else is not.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var serverErr *ServerError
	return errors.As(err, &serverErr)
}

// IsValidation reports whether the error is a permanent payload rejection.
func IsValidation(err error) bool {
	var validationErr *ValidationError
	return errors.As(err, &validationErr)
}
