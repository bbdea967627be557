package models

import (
	"errors"
	"fmt"
)

// Error codes carried by AppError.
const (
	CodeNotFound           = "NOT_FOUND"
	CodeValidation         = "VALIDATION_ERROR"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeInternal           = "INTERNAL_ERROR"
	CodeInvalidCursor      = "INVALID_CURSOR"
	CodePreconditionFailed = "PRECONDITION_FAILED"
)

// ErrMalformedCursor is the sentinel wrapped by every cursor decoding failure.
var ErrMalformedCursor = errors.New("invalid pagination token")

// AppError represents a custom application error
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Predefined error constructors
func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s with ID %v not found", resource, id),
	}
}

func NewValidationError(message string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: message,
	}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Code:    CodeUnauthorized,
		Message: message,
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: "Internal server error",
		Err:     err,
	}
}

// NewMalformedCursorError wraps a decoding failure so callers can match on ErrMalformedCursor.
func NewMalformedCursorError(err error) *AppError {
	if err == nil {
		err = ErrMalformedCursor
	} else if !errors.Is(err, ErrMalformedCursor) {
		err = fmt.Errorf("%w: %v", ErrMalformedCursor, err)
	}
	return &AppError{
		Code:    CodeInvalidCursor,
		Message: "invalid pagination token",
		Err:     err,
	}
}

// NewPreconditionError reports a caller contract violation (programmer error).
func NewPreconditionError(message string) *AppError {
	return &AppError{
		Code:    CodePreconditionFailed,
		Message: message,
	}
}

// HasCode reports whether err is an AppError carrying the given code.
func HasCode(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}
