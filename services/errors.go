package services

import (
	"errors"
	"fmt"
)

// ErrorType represents the type/category of error
type ErrorType string

const (
	ErrorTypeValidation  ErrorType = "validation"
	ErrorTypeNotFound    ErrorType = "not_found"
	ErrorTypeUnavailable ErrorType = "upstream_unavailable"
	ErrorTypeTimeout     ErrorType = "upstream_timeout"
	ErrorTypeProtocol    ErrorType = "upstream_protocol"
	ErrorTypeConflict    ErrorType = "conflict"
	ErrorTypeInternal    ErrorType = "internal"
)

// DomainError represents a structured error with additional context
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
	Details map[string]interface{}
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// WithDetail adds a detail to the error
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// NewDomainError creates a new domain error
func NewDomainError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
		Details: make(map[string]interface{}),
	}
}

// Domain error variables

var (
	// Validation errors — rejected before any upstream call
	ErrInvalidInput = NewDomainError(ErrorTypeValidation, "invalid input", nil)
	ErrEmptyQuery   = NewDomainError(ErrorTypeValidation, "query text cannot be empty", nil)
	ErrInvalidTopK  = NewDomainError(ErrorTypeValidation, "top_k must be a positive integer", nil)

	// Not found errors
	ErrRequestNotFound = NewDomainError(ErrorTypeNotFound, "request not found", nil)

	// Upstream availability errors. Unavailable and timeout are kept apart
	// because they imply different recovery actions for the caller.
	ErrEmbeddingUnavailable = NewDomainError(ErrorTypeUnavailable, "embedding provider unavailable", nil)
	ErrEmbeddingTimeout     = NewDomainError(ErrorTypeTimeout, "embedding provider timed out", nil)
	ErrIndexUnavailable     = NewDomainError(ErrorTypeUnavailable, "vector index unavailable", nil)
	ErrIndexTimeout         = NewDomainError(ErrorTypeTimeout, "vector index query timed out", nil)
	ErrGeneratorUnavailable = NewDomainError(ErrorTypeUnavailable, "generation model unavailable", nil)
	ErrGeneratorTimeout     = NewDomainError(ErrorTypeTimeout, "generation model timed out", nil)

	// Protocol errors — contract violations with a collaborator
	ErrEmptyEmbedding    = NewDomainError(ErrorTypeProtocol, "embedding provider returned an empty vector", nil)
	ErrDimensionMismatch = NewDomainError(ErrorTypeProtocol, "embedding dimension does not match index dimension", nil)
	ErrEmptyGeneration   = NewDomainError(ErrorTypeProtocol, "generation model returned an empty response", nil)

	// Conflict errors
	ErrTerminalState    = NewDomainError(ErrorTypeConflict, "request already in a terminal state", nil)
	ErrDuplicateRequest = NewDomainError(ErrorTypeConflict, "request id already in use", nil)

	// Internal errors
	ErrInternal = NewDomainError(ErrorTypeInternal, "internal server error", nil)
)

// Error type checking helper functions

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == ErrorTypeValidation
	}
	return false
}

// IsNotFoundError checks if an error is a not found error
func IsNotFoundError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == ErrorTypeNotFound
	}
	return false
}

// IsUnavailableError checks if an error is an upstream unavailable error
func IsUnavailableError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == ErrorTypeUnavailable
	}
	return false
}

// IsTimeoutError checks if an error is an upstream timeout error
func IsTimeoutError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == ErrorTypeTimeout
	}
	return false
}

// IsProtocolError checks if an error is an upstream protocol error
func IsProtocolError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == ErrorTypeProtocol
	}
	return false
}

// IsConflictError checks if an error is a conflict error
func IsConflictError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == ErrorTypeConflict
	}
	return false
}

// IsInternalError checks if an error is an internal error
func IsInternalError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == ErrorTypeInternal
	}
	return false
}

// GetErrorType returns the ErrorType of a domain error, or empty string if not a domain error
func GetErrorType(err error) ErrorType {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type
	}
	return ""
}

// GetErrorDetails returns the details map of a domain error, or nil if not a domain error
func GetErrorDetails(err error) map[string]interface{} {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Details
	}
	return nil
}

// WrapError wraps an error with additional context
func WrapError(errType ErrorType, message string, err error) error {
	return NewDomainError(errType, message, err)
}

// WrapInternal wraps an error as an internal error
func WrapInternal(message string, err error) error {
	return NewDomainError(ErrorTypeInternal, message, err)
}

// WrapUnavailable wraps an error as an upstream unavailable error
func WrapUnavailable(message string, err error) error {
	return NewDomainError(ErrorTypeUnavailable, message, err)
}

// WrapTimeout wraps an error as an upstream timeout error
func WrapTimeout(message string, err error) error {
	return NewDomainError(ErrorTypeTimeout, message, err)
}

// WrapProtocol wraps an error as an upstream protocol error
func WrapProtocol(message string, err error) error {
	return NewDomainError(ErrorTypeProtocol, message, err)
}
