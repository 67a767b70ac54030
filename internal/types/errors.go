package types

import (
	"errors"
	"fmt"
	"time"
)

// Common errors
var (
	// ErrNotAuthenticated is returned when authentication is required
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrSessionExpired is returned when the session token has expired
	ErrSessionExpired = errors.New("session expired")

	// ErrRateLimited is returned when rate limited
	ErrRateLimited = errors.New("rate limited")

	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("resource not found")

	// ErrServerError is returned for server errors
	ErrServerError = errors.New("server error")
)

// Error is the single error shape surfaced to callers of the SDK.
// Every transport or API-level failure is normalized into one of these;
// no raw transport error crosses the package boundary.
type Error struct {
	Success    bool      `json:"success"`
	Message    string    `json:"message"`
	ErrorCode  string    `json:"errorCode"`
	StatusCode int       `json:"-"`
	Timestamp  time.Time `json:"timestamp"`
	Err        error     `json:"-"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.ErrorCode, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.ErrorCode, e.Message)
}

// Unwrap returns the wrapped error
func (e *Error) Unwrap() error {
	return e.Err
}

// Is checks if the error matches target
func (e *Error) Is(target error) bool {
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.ErrorCode == t.ErrorCode
}

// IsRetryable reports whether the failure that produced err may succeed
// on re-issue: no response received, HTTP 429, or HTTP 5xx. Any other
// 4xx is terminal.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrRateLimited) || errors.Is(err, ErrServerError) {
		return true
	}

	var apiErr *Error
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == 0 {
			return apiErr.ErrorCode == "NETWORK_ERROR"
		}
		return apiErr.StatusCode == 429 || apiErr.StatusCode >= 500
	}

	return false
}
