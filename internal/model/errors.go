package model

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthenticated = errors.New("not signed in")
	ErrNotFound        = errors.New("project not found")
	ErrUnavailable     = errors.New("store unavailable")
	ErrInvalid         = errors.New("invalid input")
)

// AuthErrorKind classifies identity provider failures
type AuthErrorKind string

const (
	AuthInvalidCredentials AuthErrorKind = "invalid-credentials"
	AuthPopupBlocked       AuthErrorKind = "popup-blocked"
	AuthCancelled          AuthErrorKind = "cancelled"
	AuthNetwork            AuthErrorKind = "network"
)

// AuthError is returned by identity providers
type AuthError struct {
	Kind AuthErrorKind
	Err  error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("auth %s: %v", e.Kind, e.Err)
	}
	return "auth " + string(e.Kind)
}

func (e *AuthError) Unwrap() error { return e.Err }

// Is matches any *AuthError of the same kind
func (e *AuthError) Is(target error) bool {
	t, ok := target.(*AuthError)
	return ok && t.Kind == e.Kind
}

// NewAuthError creates an AuthError of the given kind
func NewAuthError(kind AuthErrorKind, err error) *AuthError {
	return &AuthError{Kind: kind, Err: err}
}

// ValidationError names the draft field that failed validation
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Field + " is required"
}

func (e *ValidationError) Unwrap() error { return ErrInvalid }
