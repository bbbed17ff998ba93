package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *DomainError
		expected string
	}{
		{
			name:     "without wrapped error",
			err:      NewDomainError(ErrorTypeValidation, "query text cannot be empty", nil),
			expected: "validation: query text cannot be empty",
		},
		{
			name:     "with wrapped error",
			err:      NewDomainError(ErrorTypeUnavailable, "embedding provider unavailable", errors.New("connection refused")),
			expected: "upstream_unavailable: embedding provider unavailable (connection refused)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestDomainError_Unwrap(t *testing.T) {
	inner := errors.New("connection refused")
	err := NewDomainError(ErrorTypeUnavailable, "embedding provider unavailable", inner)

	assert.Equal(t, inner, errors.Unwrap(err))
	assert.True(t, errors.Is(err, inner))
}

func TestDomainError_Is(t *testing.T) {
	wrapped := fmt.Errorf("pipeline stage failed: %w", ErrEmptyQuery)

	assert.True(t, errors.Is(wrapped, ErrEmptyQuery))
	assert.True(t, errors.Is(wrapped, ErrInvalidTopK), "same-type domain errors compare equal")
	assert.False(t, errors.Is(wrapped, ErrRequestNotFound))
}

func TestErrorTypeCheckers(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		checker func(error) bool
	}{
		{"validation", ErrEmptyQuery, IsValidationError},
		{"not found", ErrRequestNotFound, IsNotFoundError},
		{"unavailable", ErrEmbeddingUnavailable, IsUnavailableError},
		{"timeout", ErrGeneratorTimeout, IsTimeoutError},
		{"protocol", ErrEmptyEmbedding, IsProtocolError},
		{"conflict", ErrTerminalState, IsConflictError},
		{"internal", ErrInternal, IsInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.checker(tt.err))
			assert.False(t, tt.checker(errors.New("plain error")))
		})
	}
}

func TestErrorTypeCheckers_WrappedChain(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", ErrIndexTimeout)

	assert.True(t, IsTimeoutError(wrapped))
	assert.False(t, IsUnavailableError(wrapped))
}

func TestGetErrorType(t *testing.T) {
	assert.Equal(t, ErrorTypeTimeout, GetErrorType(ErrEmbeddingTimeout))
	assert.Equal(t, ErrorType(""), GetErrorType(errors.New("plain error")))
	assert.Equal(t, ErrorType(""), GetErrorType(nil))
}

func TestWithDetail(t *testing.T) {
	err := NewDomainError(ErrorTypeProtocol, "dimension mismatch", nil).
		WithDetail("expected", 768).
		WithDetail("got", 1024)

	details := GetErrorDetails(err)
	assert.Equal(t, 768, details["expected"])
	assert.Equal(t, 1024, details["got"])
}

func TestWrapHelpers(t *testing.T) {
	inner := errors.New("boom")

	assert.True(t, IsUnavailableError(WrapUnavailable("backend down", inner)))
	assert.True(t, IsTimeoutError(WrapTimeout("backend slow", inner)))
	assert.True(t, IsProtocolError(WrapProtocol("bad reply", inner)))
	assert.True(t, IsInternalError(WrapInternal("oops", inner)))
	assert.True(t, errors.Is(WrapUnavailable("backend down", inner), inner))
}
