package models

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by stores and services when a keyed record is missing.
var ErrNotFound = errors.New("not found")

// ValidationError is bad input; nothing was created or changed.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// AuthError covers bad credentials, a disallowed e-mail domain and missing or expired tokens.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}

// ForbiddenError means the caller's role does not allow the action.
type ForbiddenError struct {
	Action string
	Reason string
}

func (e *ForbiddenError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("forbidden: %s: %s", e.Action, e.Reason)
	}
	return fmt.Sprintf("forbidden: %s requires admin", e.Action)
}

// TransportError: the authoritative store could not be reached or refused the call.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func IsValidationError(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func IsAuthError(err error) bool {
	var a *AuthError
	return errors.As(err, &a)
}

func IsForbiddenError(err error) bool {
	var f *ForbiddenError
	return errors.As(err, &f)
}

func IsTransportError(err error) bool {
	var t *TransportError
	return errors.As(err, &t)
}
