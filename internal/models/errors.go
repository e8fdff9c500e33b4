package models

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failure so clients can decide whether to retry,
// pick another seat or restart their session.
type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindForbidden  ErrorKind = "forbidden"
	KindNotFound   ErrorKind = "not_found"
	KindConflict   ErrorKind = "conflict"
	KindExpired    ErrorKind = "expired"
	KindInternal   ErrorKind = "server_error"
)

// DomainError is the error type returned by services and repositories
type DomainError struct {
	Kind    ErrorKind
	Field   string // offending input field, validation errors only
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewValidationError creates a validation error for the given field
func NewValidationError(field, message string) *DomainError {
	return &DomainError{Kind: KindValidation, Field: field, Message: message}
}

// NewForbiddenError creates an authorization error
func NewForbiddenError(message string) *DomainError {
	return &DomainError{Kind: KindForbidden, Message: message}
}

// NewNotFoundError creates a not-found error
func NewNotFoundError(message string) *DomainError {
	return &DomainError{Kind: KindNotFound, Message: message}
}

// NewConflictError creates a conflict error wrapping the storage cause, if any
func NewConflictError(message string, err error) *DomainError {
	return &DomainError{Kind: KindConflict, Message: message, Err: err}
}

// NewExpiredError creates a lease-expired error
func NewExpiredError(message string) *DomainError {
	return &DomainError{Kind: KindExpired, Message: message}
}

// NewInternalError creates a server error wrapping err
func NewInternalError(message string, err error) *DomainError {
	return &DomainError{Kind: KindInternal, Message: message, Err: err}
}

// KindOf returns the kind of the first DomainError in err's chain.
// Errors that carry no kind are server errors.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}
