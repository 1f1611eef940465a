package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a semantic classification shared across transport layers.
type ErrorCode string

const (
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeInvalid      ErrorCode = "INVALID"
	ErrCodeConflict     ErrorCode = "CONFLICT"
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeInternal     ErrorCode = "INTERNAL"
)

// Error represents a domain-level error.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewError builds a domain error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError wraps an existing error with a domain classification.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain errors. ErrGoalNotFound doubles as the ownership-mismatch
// signal: a caller probing another user's goal gets the same answer as one
// probing a nonexistent id.
var (
	ErrUserNotFound    = NewError(ErrCodeNotFound, "user not found")
	ErrGoalNotFound    = NewError(ErrCodeNotFound, "goal not found")
	ErrParentNotFound  = NewError(ErrCodeNotFound, "parent goal not found")
	ErrSessionNotFound = NewError(ErrCodeNotFound, "session not found")
	ErrUnauthorized    = NewError(ErrCodeUnauthorized, "unauthorized")
	ErrInvalidPayload  = NewError(ErrCodeInvalid, "invalid payload")

	ErrDepthExceeded = NewError(ErrCodeInvalid, "maximum nesting depth of 2 levels exceeded")
	ErrSelfParent    = NewError(ErrCodeInvalid, "a goal cannot be its own ancestor")
	ErrHasChildren   = NewError(ErrCodeInvalid, "goal has sub-goals; delete or reassign them first")
	ErrTreeCorrupt   = NewError(ErrCodeInternal, "goal parent chain exceeds structural bounds")

	// ErrPublicIDTaken is what the store reports on a public-id unique
	// violation; the service retries the allocation exactly once before
	// surfacing ErrPublicIDConflict.
	ErrPublicIDTaken    = NewError(ErrCodeConflict, "public id already in use")
	ErrPublicIDConflict = NewError(ErrCodeConflict, "failed to generate a unique public id")
	ErrEmailTaken       = NewError(ErrCodeConflict, "email already registered")
)

// IsDomainError helps checking error codes.
func IsDomainError(err error, code ErrorCode) bool {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code == code
	}
	return false
}
