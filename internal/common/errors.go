// Package common provides shared utilities and types used across the application.
package common

import (
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Source errors.
	ErrAuthentication = errors.New("authentication failed")
	ErrSourceFetch    = errors.New("source fetch failed")
	ErrUnknownSource  = errors.New("unknown source")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// SourceError records which source a fetch failure belongs to.
type SourceError struct {
	Err      error
	SourceID string
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("source %q: %v", e.SourceID, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// NewSourceError wraps err as a fetch failure for sourceID. Authentication
// failures keep their identity so callers can still abort the cycle.
func NewSourceError(sourceID string, err error) error {
	if errors.Is(err, ErrAuthentication) {
		return &SourceError{SourceID: sourceID, Err: err}
	}
	return &SourceError{SourceID: sourceID, Err: fmt.Errorf("%w: %w", ErrSourceFetch, err)}
}

// IsFatal reports whether err must abort the whole refresh cycle.
func IsFatal(err error) bool {
	return errors.Is(err, ErrAuthentication)
}
