package domain

import (
	"fmt"
	"strings"
	"time"
)

// APIError represents a standardized error response
type APIError struct {
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error codes for different failure scenarios
const (
	ErrCodeInvalidInput      = "INVALID_INPUT"
	ErrCodeDatabaseError     = "DATABASE_ERROR"
	ErrCodeSourceUnavailable = "SOURCE_UNAVAILABLE"
	ErrCodeGenerationFailed  = "GENERATION_FAILED"
	ErrCodeRateLimit         = "RATE_LIMIT_EXCEEDED"
	ErrCodeInternalServer    = "INTERNAL_SERVER_ERROR"
	ErrCodeValidation        = "VALIDATION_ERROR"
)

// FieldError describes a single invalid input field.
type FieldError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value"`
}

// ValidationError aggregates every invalid field of a submission so the
// caller can report them all at once instead of fixing one at a time.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation error"
	}
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = fmt.Sprintf("%s: %s", f.Field, f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add records one invalid field.
func (e *ValidationError) Add(field, message string, value interface{}) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message, Value: value})
}

// HasErrors reports whether any field failed validation.
func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0
}

// SourceUnavailableError indicates that session sources could not be read.
// It is returned only when every source failed; a single failing source
// degrades to partial results instead.
type SourceUnavailableError struct {
	Sources map[string]error
}

// Error implements the error interface
func (e *SourceUnavailableError) Error() string {
	parts := make([]string, 0, len(e.Sources))
	for name, err := range e.Sources {
		parts = append(parts, fmt.Sprintf("%s=%v", name, err))
	}
	return "all session sources unavailable: " + strings.Join(parts, ", ")
}

// GenerationFailureError indicates the external recommendation generator
// failed or timed out. Callers fall back to static recommendations and
// log this error; it never propagates to the user.
type GenerationFailureError struct {
	Cause error
}

// Error implements the error interface
func (e *GenerationFailureError) Error() string {
	return fmt.Sprintf("recommendation generation failed: %v", e.Cause)
}

// Unwrap exposes the underlying cause for errors.Is/As.
func (e *GenerationFailureError) Unwrap() error {
	return e.Cause
}

// NewAPIError creates a new APIError with timestamp
func NewAPIError(code, message, details, requestID string) *APIError {
	return &APIError{
		Code:      code,
		Message:   message,
		Details:   details,
		Timestamp: time.Now().UTC(),
		RequestID: requestID,
	}
}
