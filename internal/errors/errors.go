package errors

import (
	"errors"
	"fmt"
)

// Common error types for the session manager
var (
	// Sign-in errors
	ErrMissingCredential = errors.New("auth provider missing credential")
	ErrInvalidState      = errors.New("invalid state parameter")
	ErrInvalidNonce      = errors.New("invalid nonce")

	// Session errors
	ErrNoSession      = errors.New("no session")
	ErrInvalidSession = errors.New("invalid session")
	ErrSessionExpired = errors.New("session expired")

	// Token errors
	ErrInvalidToken = errors.New("invalid token")

	// General errors
	ErrNotFound = errors.New("not found")
	ErrInternal = errors.New("internal error")
)

// Wrapf wraps an error with context using fmt.Errorf
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
