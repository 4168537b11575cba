package auth

import (
	"errors"
	"fmt"
)

var (
	// ErrNoCredentials means the athlete never authorized the app or revoked it.
	ErrNoCredentials = errors.New("no credentials stored")
	// ErrMalformedToken means the token endpoint answered without the expected fields.
	ErrMalformedToken = errors.New("malformed token response")
)

// AuthError is returned when valid credentials cannot be produced for an
// athlete. The stored record is left untouched whenever it is returned.
type AuthError struct {
	UserID int64
	Err    error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth: athlete %d: %v", e.UserID, e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}
