package paylink

import (
	"fmt"

	"github.com/paylink-dev/paylink-go/internal/types"
)

// Sentinel errors surfaced by the SDK. They are the same values the
// transport attaches to normalized errors, so errors.Is works across
// the package boundary.
var (
	// ErrNotAuthenticated is returned when authentication is required
	ErrNotAuthenticated = types.ErrNotAuthenticated

	// ErrSessionExpired is returned when the session token has expired
	ErrSessionExpired = types.ErrSessionExpired

	// ErrRateLimited is returned when rate limited
	ErrRateLimited = types.ErrRateLimited

	// ErrNotFound is returned when a resource is not found
	ErrNotFound = types.ErrNotFound

	// ErrServerError is returned for server errors
	ErrServerError = types.ErrServerError
)

// Error is the normalized error shape. Every failure a caller can
// observe, whether transport, API-level, or validation, is one of these.
type Error = types.Error

// IsRetryable reports whether the failure may succeed on re-issue.
func IsRetryable(err error) bool {
	return types.IsRetryable(err)
}

// ValidationError reports a caller-supplied input failing a
// precondition. It is raised before any network call and never retried.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}
