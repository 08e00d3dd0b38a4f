package errors

import (
	"errors"
	"fmt"
)

// Common error types for the bookmark server
var (
	// Provider errors
	ErrProviderDisabled = errors.New("identity provider disabled")
	ErrExchangeFailed   = errors.New("code exchange failed")
	ErrNoIdentity       = errors.New("no authenticated identity")

	// Session errors
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
	ErrSessionInvalid  = errors.New("session invalid")

	// Bookmark errors
	ErrBlankField       = errors.New("title and url must be non-empty")
	ErrBookmarkNotFound = errors.New("bookmark not found")

	// Flow state errors
	ErrStateNotFound = errors.New("state not found")

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
