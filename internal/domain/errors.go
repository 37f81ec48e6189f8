package domain

import "fmt"

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain error codes
const (
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeAlreadyExists    = "ALREADY_EXISTS"
	ErrCodeUnavailable      = "UNAVAILABLE"
	ErrCodeInternalError    = "INTERNAL_ERROR"
	ErrCodeInvalidOperation = "INVALID_OPERATION"
)

// Validation errors
var (
	ErrEmptyQuestion        = NewDomainError(ErrCodeValidation, "question cannot be empty")
	ErrInvalidPostStatus    = NewDomainError(ErrCodeValidation, "invalid post status")
	ErrInvalidAIJobKind     = NewDomainError(ErrCodeValidation, "invalid ai job kind")
	ErrInvalidAIJobStatus   = NewDomainError(ErrCodeValidation, "invalid ai job status")
	ErrMissingRequiredField = NewDomainError(ErrCodeValidation, "missing required field")
	ErrEmbeddingMisaligned  = NewDomainError(ErrCodeValidation, "embeddings must have one row per content chunk")
)

// Not found errors
var (
	ErrPostNotFound     = NewDomainError(ErrCodeNotFound, "post not found")
	ErrCategoryNotFound = NewDomainError(ErrCodeNotFound, "category not found")
	ErrAIJobNotFound    = NewDomainError(ErrCodeNotFound, "ai job not found")
)

// Operation errors
var (
	ErrPostNotPublic = NewDomainError(ErrCodeInvalidOperation, "post is not publicly visible")
)
