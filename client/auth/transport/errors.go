package transport

import "github.com/cockroachdb/errors"

var (
	// ErrAuthenticationRequired is reported when no refresh token is stored
	ErrAuthenticationRequired = errors.New("authentication required")
	// ErrSessionExpired is reported when the refresh endpoint rejects the refresh token
	ErrSessionExpired = errors.New("session expired")
)

// IsAuthFailure returns true if err means the user has to sign in again
func IsAuthFailure(err error) bool {
	return errors.Is(err, ErrAuthenticationRequired) || errors.Is(err, ErrSessionExpired)
}
