package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation signals a document field that cannot be processed.
	ErrValidation = errors.New("validation failed")
	// ErrGateway signals an inference backend failure.
	ErrGateway = errors.New("inference gateway error")
	// ErrIntegrity signals a result/input length mismatch from a collaborator.
	ErrIntegrity = errors.New("inference result integrity violation")
	// ErrUnknownStrategy signals an unregistered normalization strategy name.
	ErrUnknownStrategy = errors.New("unknown normalization strategy")
	// ErrUnknownPipeline signals a pipeline name missing from configuration.
	ErrUnknownPipeline = errors.New("unknown pipeline")
	// ErrBatchTooLarge signals a bulk request exceeding the configured limit.
	ErrBatchTooLarge = errors.New("batch too large")
)

// ValidationError wraps ErrValidation with the offending field path.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("field [%s] %s, cannot process it", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a validation error for a field path.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
