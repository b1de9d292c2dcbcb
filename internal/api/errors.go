// Package api provides error types for backend operations.
package api

import (
	"errors"
	"fmt"
)

// Sentinel errors for backend operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrUnauthorized indicates the session is missing or expired. The
	// client does not attempt recovery; the user must sign in again.
	ErrUnauthorized = errors.New("not signed in")

	// ErrNotParticipant indicates the current user is not a party to
	// the requested conversation.
	ErrNotParticipant = errors.New("not a conversation participant")

	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("not found")
)

// RejectedError carries the backend's rejection detail verbatim, e.g.
// a deal action refused because of stale state. Local state is left
// untouched by the caller; the detail is surfaced to the user as-is.
type RejectedError struct {
	StatusCode int
	Detail     string
}

func (e *RejectedError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("request rejected (HTTP %d)", e.StatusCode)
}
