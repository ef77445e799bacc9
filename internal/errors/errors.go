package errors

import (
	"errors"
	"fmt"
)

// Error taxonomy for the back office
var (
	// Login errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrForbidden          = errors.New("admin role required")
	ErrNetworkOrServer    = errors.New("network or server error")

	// Identity resolution errors
	ErrResolutionInvalid = errors.New("stored token rejected")
	ErrNotAdmin          = errors.New("identity is not an admin")

	// Token slot errors
	ErrSessionStorage = errors.New("session storage failure")
	ErrSlotEmpty      = errors.New("token slot empty")

	// Session change errors
	ErrSuperseded = errors.New("superseded by a newer session change")

	// General errors
	ErrInvalidRequest = errors.New("invalid request")
)

// Wrapf prefixes err with a formatted context, keeping it matchable. A nil
// err stays nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Join combines a sentinel with its underlying cause so both match errors.Is.
func Join(sentinel, cause error) error {
	if cause == nil {
		return sentinel
	}
	return fmt.Errorf("%w: %w", sentinel, cause)
}
