package domain

import "context"

// InferenceResult is one inference output for one input text: a dense
// embedding vector or a sparse token-weight map, depending on the model.
type InferenceResult struct {
	Embedding []float32
	Sparse    map[string]float32
}

// IsSparse reports whether the result carries a sparse token-weight payload.
func (r InferenceResult) IsSparse() bool { return r.Sparse != nil }

// Value returns the payload in the shape it is written back into documents.
func (r InferenceResult) Value() any {
	if r.IsSparse() {
		return r.Sparse
	}
	return r.Embedding
}

// Gateway is the shared inference backend contract between layers.
// Implementations must return exactly one result per input text, in input
// order, or an error.
type Gateway interface {
	SubmitBatch(ctx context.Context, modelID string, texts []string) ([]InferenceResult, error)
}

// HealthChecker verifies inference backend availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// ValidationPolicy bounds recursive field validation.
// MaxDepth is compared against a depth counter that starts at 1 for a value
// nested one level inside a mapping. AllowEmpty permits blank string values.
type ValidationPolicy struct {
	MaxDepth   int
	AllowEmpty bool
}

// DefaultMaxDepth matches the index mapping depth limit of the ingest host.
const DefaultMaxDepth = 20

// DefaultPolicy returns the standard validation policy.
func DefaultPolicy() ValidationPolicy {
	return ValidationPolicy{MaxDepth: DefaultMaxDepth, AllowEmpty: false}
}
