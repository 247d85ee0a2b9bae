package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Error represents a typed domain error returned across repository and manager boundaries.
type Error struct {
	Code       string   `json:"code"`
	Message    string   `json:"message"`
	Violations []string `json:"violations,omitempty"`
	Err        error    `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is reports whether target carries the same code, so clones match their predefined parent.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

// New creates a new Error instance.
func New(code string, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, message string) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// Predefined errors for the domain taxonomy.
var (
	ErrValidation            = New("VALIDATION_ERROR", "validation failed")
	ErrNotFound              = New("NOT_FOUND", "resource not found")
	ErrConnectionUnavailable = New("CONNECTION_UNAVAILABLE", "Database is not connected or initialized")
	ErrReferential           = New("REFERENTIAL_ERROR", "referenced record does not exist")
	ErrConflict              = New("CONFLICT", "uniqueness violation")
	ErrStorage               = New("STORAGE_ERROR", "storage failure")
	ErrInvalidEnum           = New("INVALID_ENUM_VALUE", "invalid enumerated value in stored data")
	ErrInvalidArgument       = New("INVALID_ARGUMENT", "invalid argument")
	ErrInternal              = New("INTERNAL_ERROR", "internal error")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// Validation builds a validation error whose message joins every violation.
func Validation(violations []string) *Error {
	clone := Clone(ErrValidation, strings.Join(violations, ", "))
	clone.Violations = append([]string(nil), violations...)
	return clone
}

// Message returns the user-facing message of err, or fallback when err carries none.
func Message(err error, fallback string) string {
	if err == nil {
		return fallback
	}
	if e := FromError(err); e != nil && e.Code != ErrInternal.Code && e.Message != "" {
		return e.Message
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return fallback
}
