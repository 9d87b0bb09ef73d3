package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors.
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors. Each maps to exactly one outcome bucket:
// decode/network/timeout/validation resolve to `error`, never `empty`.
var (
	ErrDecode       = errors.New("image decode failed")
	ErrNetwork      = errors.New("remote classifier unreachable")
	ErrTimeout      = errors.New("remote classifier timed out")
	ErrInvalidInput = errors.New("invalid input")
	ErrInternal     = errors.New("internal error")
)

// Validation reason codes surfaced in error outcome messages.
const (
	ReasonMissingField     = "missing_field"
	ReasonNonNumeric       = "non_numeric"
	ReasonMalformedNesting = "malformed_nesting"
)

// ValidationError is raised when the classifier output is structurally
// malformed. A model-reported empty reading is NOT a ValidationError.
type ValidationError struct {
	Reason string // one of the Reason* constants
	Field  string
	Detail string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed (%s) on field %q: %s", e.Reason, e.Field, e.Detail)
	}
	return fmt.Sprintf("validation failed (%s): %s", e.Reason, e.Detail)
}

// NewAppError builds an AppError.
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WrapError annotates err with a message, preserving the chain.
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
