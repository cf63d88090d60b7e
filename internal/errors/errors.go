// Package errors provides error codes shared across the offline core.
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a unique, stable error code.
type ErrorCode string

const (
	// General errors
	ErrInternal   ErrorCode = "INTERNAL_ERROR"
	ErrInvalid    ErrorCode = "INVALID_INPUT"
	ErrNotFound   ErrorCode = "NOT_FOUND"
	ErrValidation ErrorCode = "VALIDATION_ERROR"

	// Terminal remote errors. The retry wrapper never re-attempts
	// an operation that failed with one of these.
	ErrAuth       ErrorCode = "AUTH_FAILED"
	ErrPermission ErrorCode = "PERMISSION_DENIED"
	ErrConstraint ErrorCode = "CONSTRAINT_VIOLATION"
	ErrDuplicate  ErrorCode = "UNIQUE_VIOLATION"
	ErrForeignKey ErrorCode = "FOREIGN_KEY_VIOLATION"

	// Transient remote errors
	ErrNetwork ErrorCode = "NETWORK_ERROR"
	ErrTimeout ErrorCode = "TIMEOUT"

	// Local store errors
	ErrStorage   ErrorCode = "STORAGE_ERROR"
	ErrMigration ErrorCode = "MIGRATION_FAILED"

	// Sync errors
	ErrSyncInProgress    ErrorCode = "SYNC_IN_PROGRESS"
	ErrSyncOffline       ErrorCode = "SYNC_OFFLINE"
	ErrSyncFailed        ErrorCode = "SYNC_FAILED"
	ErrMutationDropped   ErrorCode = "MUTATION_DROPPED"
	ErrUnknownCollection ErrorCode = "UNKNOWN_COLLECTION"
)

// AppError represents an application error with code and message.
type AppError struct {
	Code    ErrorCode
	Message string
	Err     error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with an error code.
func Wrap(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Is reports whether err carries the given code anywhere in its chain.
func Is(err error, code ErrorCode) bool {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// CodeOf returns the error code of err, or ErrInternal if err carries none.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrInternal
}

// IsTerminal reports whether err is a terminal remote failure: one that
// retrying cannot fix (bad credentials, rejected payloads, key conflicts).
func IsTerminal(err error) bool {
	switch CodeOf(err) {
	case ErrAuth, ErrPermission, ErrValidation, ErrConstraint, ErrDuplicate, ErrForeignKey:
		return true
	}
	return false
}
