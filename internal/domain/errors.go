package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ValidationError reports missing or malformed input. The operation was not attempted.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}

	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return e.Message + " (" + strings.Join(parts, ", ") + ")"
}

func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message}
}

func NewFieldError(field, message string) *ValidationError {
	return &ValidationError{
		Message: "validation failed",
		Fields:  map[string]string{field: message},
	}
}

type NotFoundError struct {
	Entity string
	ID     string
	Reason string
}

func (e *NotFoundError) Error() string {
	msg := e.Entity + " not found"
	if e.ID != "" {
		msg = fmt.Sprintf("%s %s not found", e.Entity, e.ID)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func NewNotFoundError(entity string, id fmt.Stringer) *NotFoundError {
	e := &NotFoundError{Entity: entity}
	if id != nil {
		e.ID = id.String()
	}
	return e
}

type AuthError struct {
	Message string
}

func (e *AuthError) Error() string { return e.Message }

type ForbiddenError struct {
	Message string
}

func (e *ForbiddenError) Error() string { return e.Message }

// ConflictError is returned when a precondition on the current row state fails,
// e.g. a stale updated_at or a transition out of a terminal state.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// RemoteUnavailableError wraps a store, object-store or upstream failure.
type RemoteUnavailableError struct {
	Op  string
	Err error
}

func (e *RemoteUnavailableError) Error() string {
	if e.Err == nil {
		return e.Op + ": remote unavailable"
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *RemoteUnavailableError) Unwrap() error { return e.Err }

func NewRemoteUnavailable(op string, err error) *RemoteUnavailableError {
	return &RemoteUnavailableError{Op: op, Err: err}
}

type RateLimitedError struct {
	Message string
}

func (e *RateLimitedError) Error() string { return e.Message }

type QuotaExceededError struct {
	Message string
}

func (e *QuotaExceededError) Error() string { return e.Message }

var (
	ErrInvalidCredentials = &AuthError{Message: "invalid email or password"}
	ErrInvalidToken       = &AuthError{Message: "invalid or expired token"}
	ErrAccountInactive    = &AuthError{Message: "account is inactive"}
	ErrRateLimited        = &RateLimitedError{Message: "too many requests, please try again later"}
	ErrQuotaExceeded      = &QuotaExceededError{Message: "assistant credits depleted, please contact an administrator"}
)

func IsValidation(err error) bool {
	var e *ValidationError
	return errors.As(err, &e)
}

func IsNotFound(err error) bool {
	var e *NotFoundError
	return errors.As(err, &e)
}

func IsAuth(err error) bool {
	var e *AuthError
	return errors.As(err, &e)
}

func IsConflict(err error) bool {
	var e *ConflictError
	return errors.As(err, &e)
}

func IsRemoteUnavailable(err error) bool {
	var e *RemoteUnavailableError
	return errors.As(err, &e)
}
