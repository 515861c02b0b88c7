// Package apperror defines the error taxonomy shared by the case client,
// the sync engines and the time posting pipeline.
package apperror

import (
	"errors"
	"fmt"
)

// Code classifies an AppError.
type Code string

const (
	// ErrTransport marks a network or IO failure reaching a remote system.
	ErrTransport Code = "TRANSPORT_ERROR"
	// ErrRemote marks a structured error payload or an unexpected empty body from a remote system.
	ErrRemote Code = "REMOTE_ERROR"
	// ErrConfiguration marks invalid startup configuration.
	ErrConfiguration Code = "CONFIGURATION_ERROR"
	// ErrValidation marks a time group that can never be posted as-is.
	ErrValidation Code = "VALIDATION_ERROR"
)

// AppError is an error carrying a classification code.
type AppError struct {
	Code    Code
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
func New(code Code, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Newf creates a new AppError with a formatted message.
func Newf(code Code, format string, args ...interface{}) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an existing error with an error code.
func Wrap(code Code, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// Is reports whether any error in err's chain is an AppError with the given code.
func Is(err error, code Code) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// IsBusiness reports whether err is a non-retryable business rule failure:
// a validation failure or an error reported by the remote system.
func IsBusiness(err error) bool {
	return Is(err, ErrValidation) || Is(err, ErrRemote)
}

// Message returns the human readable message of the first AppError in err's
// chain, or err.Error() when there is none.
func Message(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
