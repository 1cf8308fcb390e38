package enrich

import (
	"context"

	"github.com/cortexa-labs/neurapipe/internal/domain"
	"github.com/cortexa-labs/neurapipe/internal/domain/document"
)

// Gateway is the consumer contract for the inference backend: one result per
// input text, in input order, or an error.
type Gateway interface {
	SubmitBatch(ctx context.Context, modelID string, texts []string) ([]domain.InferenceResult, error)
}

// CompletionHandler receives the outcome of one document processing call.
// Exactly one of (document, error) is non-nil, and the handler fires exactly
// once per call.
type CompletionHandler func(doc *document.Document, err error)
