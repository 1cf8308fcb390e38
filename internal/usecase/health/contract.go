package health

import "context"

// CachePinger checks embedding cache availability.
type CachePinger interface {
	Ping(ctx context.Context) error
}

// InferenceChecker checks inference backend availability.
type InferenceChecker interface {
	HealthCheck(ctx context.Context) error
}
