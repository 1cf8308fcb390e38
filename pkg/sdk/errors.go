package sdk

import "github.com/cortexa-labs/neurapipe/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrValidation      = domain.ErrValidation
	ErrGateway         = domain.ErrGateway
	ErrIntegrity       = domain.ErrIntegrity
	ErrUnknownStrategy = domain.ErrUnknownStrategy
	ErrUnknownPipeline = domain.ErrUnknownPipeline
	ErrBatchTooLarge   = domain.ErrBatchTooLarge
)
