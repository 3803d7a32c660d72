package directory

import (
	"errors"
	"fmt"
)

// ErrGroupNotFound is returned when no lookup strategy matches the configured group.
var ErrGroupNotFound = errors.New("group not found")

// ErrNoCredential is returned when no credential source in the chain is configured.
var ErrNoCredential = errors.New("no credential source configured")

// AuthTokenError means a bearer token could not be obtained. It aborts the whole resolution.
type AuthTokenError struct {
	Source string
	Err    error
}

func (e *AuthTokenError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("failed to obtain directory token: %v", e.Err)
	}
	return fmt.Sprintf("failed to obtain directory token from %s: %v", e.Source, e.Err)
}

func (e *AuthTokenError) Unwrap() error {
	return e.Err
}
