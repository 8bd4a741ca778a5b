// Package apperror defines a centralized system for application-specific errors.
// Handlers never pick HTTP status codes themselves: services return an
// *AppError (or a plain error, which is treated as internal), and the shared
// response writer maps it to a status code and a consistent JSON body.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType enumerates the categories of application errors.
type ErrorType int

const (
	// UnknownError is for unspecified errors.
	UnknownError ErrorType = iota
	// DatabaseError represents an error originating from the database.
	DatabaseError
	// ConfigError represents an error related to application configuration.
	ConfigError
	// AuthError represents an authentication error (missing or invalid token).
	AuthError
	// NotFoundError represents a resource not found error. Rows owned by a
	// different user are reported with this type as well, so the response
	// never reveals whether the row exists at all.
	NotFoundError
	// ValidationError represents an input validation error, optionally with
	// per-field detail.
	ValidationError
	// BadRequestError represents a malformed request (undecodable body,
	// wrong content type).
	BadRequestError
	// MethodNotAllowedError represents a request method an endpoint
	// intentionally does not support.
	MethodNotAllowedError
	// ConflictError represents a uniqueness conflict.
	ConflictError
	// InternalError represents a generic internal server error.
	InternalError
)

// AppError is the application's error type. It wraps an optional underlying
// error for debugging and carries optional per-field validation detail.
type AppError struct {
	Type    ErrorType
	Message string
	// Fields maps request field names to human-readable problems. Only
	// populated for validation failures.
	Fields map[string]string
	Err    error
}

// Error satisfies the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error so errors.Is / errors.As can walk the
// chain.
func (e *AppError) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status code appropriate for the error type.
func (e *AppError) StatusCode() int {
	switch e.Type {
	case AuthError:
		return http.StatusUnauthorized
	case NotFoundError:
		return http.StatusNotFound
	case ValidationError, BadRequestError:
		return http.StatusBadRequest
	case MethodNotAllowedError:
		return http.StatusMethodNotAllowed
	case ConflictError:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// New creates an AppError of an arbitrary type.
func New(errType ErrorType, message string, underlying error) *AppError {
	return &AppError{Type: errType, Message: message, Err: underlying}
}

// NewDatabaseError creates a DatabaseError.
func NewDatabaseError(message string, underlying error) *AppError {
	return New(DatabaseError, message, underlying)
}

// NewConfigError creates a ConfigError.
func NewConfigError(message string, underlying error) *AppError {
	return New(ConfigError, message, underlying)
}

// NewAuthError creates an AuthError.
func NewAuthError(message string, underlying error) *AppError {
	return New(AuthError, message, underlying)
}

// NewNotFoundError creates a NotFoundError.
func NewNotFoundError(message string, underlying error) *AppError {
	return New(NotFoundError, message, underlying)
}

// NewValidationError creates a ValidationError without field detail.
func NewValidationError(message string, underlying error) *AppError {
	return New(ValidationError, message, underlying)
}

// NewFieldValidationError creates a ValidationError carrying per-field detail.
func NewFieldValidationError(message string, fields map[string]string) *AppError {
	return &AppError{Type: ValidationError, Message: message, Fields: fields}
}

// NewBadRequestError creates a BadRequestError.
func NewBadRequestError(message string, underlying error) *AppError {
	return New(BadRequestError, message, underlying)
}

// NewMethodNotAllowedError creates a MethodNotAllowedError.
func NewMethodNotAllowedError(message string) *AppError {
	return New(MethodNotAllowedError, message, nil)
}

// NewConflictError creates a ConflictError.
func NewConflictError(message string, underlying error) *AppError {
	return New(ConflictError, message, underlying)
}

// NewInternalError creates an InternalError.
func NewInternalError(message string, underlying error) *AppError {
	return New(InternalError, message, underlying)
}

// ErrorResponse is the JSON body sent to API clients for any error.
type ErrorResponse struct {
	Error string `json:"error"`
	// Fields is present only on validation failures.
	Fields map[string]string `json:"fields,omitempty"`
}

// ToResponse converts an AppError to its client-facing representation. The
// underlying error is deliberately excluded.
func (e *AppError) ToResponse() ErrorResponse {
	return ErrorResponse{Error: e.Message, Fields: e.Fields}
}

// FromError attempts to interpret err as an *AppError.
func FromError(err error) (*AppError, bool) {
	if err == nil {
		return nil, false
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Type == NotFoundError
}

// IsAuthError reports whether err is an AuthError.
func IsAuthError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Type == AuthError
}

// IsValidationError reports whether err is a ValidationError.
func IsValidationError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Type == ValidationError
}

// IsConflictError reports whether err is a ConflictError.
func IsConflictError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Type == ConflictError
}
