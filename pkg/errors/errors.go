package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType represents different types of errors in the console
type ErrorType string

const (
	// ErrorTypeNotFound indicates a resource was not found
	ErrorTypeNotFound ErrorType = "NOT_FOUND"

	// ErrorTypeValidation indicates a client-side validation failure
	ErrorTypeValidation ErrorType = "VALIDATION"

	// ErrorTypeConflict indicates the backend rejected a change as conflicting
	ErrorTypeConflict ErrorType = "CONFLICT"

	// ErrorTypeInternal indicates an internal console error
	ErrorTypeInternal ErrorType = "INTERNAL"

	// ErrorTypeExternal indicates a non-2xx answer from the scheduling backend
	ErrorTypeExternal ErrorType = "EXTERNAL"

	// ErrorTypeTransport indicates the backend could not be reached at all
	ErrorTypeTransport ErrorType = "TRANSPORT"
)

// AppError represents an application error
type AppError struct {
	Type    ErrorType
	Message string
	// Status is the upstream HTTP status for EXTERNAL errors, zero otherwise.
	Status int
	Err    error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements the unwrap interface
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeNotFound,
		Message: message,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeValidation,
		Message: message,
	}
}

// NewConflictError creates a new conflict error
func NewConflictError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeConflict,
		Message: message,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeInternal,
		Message: message,
		Err:     err,
	}
}

// NewExternalError wraps a non-2xx backend answer. The message carries the
// server-provided text so it can be shown to the user verbatim.
func NewExternalError(status int, message string) *AppError {
	return &AppError{
		Type:    ErrorTypeExternal,
		Message: message,
		Status:  status,
	}
}

// NewTransportError wraps a network failure talking to the backend
func NewTransportError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeTransport,
		Message: message,
		Err:     err,
	}
}

// As extracts an *AppError from err, if any.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsType reports whether err is an AppError of the given type.
func IsType(err error, t ErrorType) bool {
	appErr, ok := As(err)
	return ok && appErr.Type == t
}

// UserMessage returns the text to surface to the initiating user action.
func UserMessage(err error) string {
	if appErr, ok := As(err); ok {
		if appErr.Message != "" {
			return appErr.Message
		}
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
