package enrich

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/cortexa-labs/neurapipe/internal/domain"
)

// DefaultBatchSize bounds one inference request when a pipeline does not
// configure its own limit.
const DefaultBatchSize = 10

// Scheduler partitions text sequences into bounded batches and dispatches
// them concurrently to the inference gateway.
type Scheduler struct {
	gateway domain.Gateway
	logger  *zap.Logger
}

// NewScheduler creates a batch scheduler over a gateway.
func NewScheduler(gateway domain.Gateway, logger *zap.Logger) *Scheduler {
	return &Scheduler{gateway: gateway, logger: logger}
}

type batchOutcome struct {
	index   int
	results []domain.InferenceResult
	err     error
}

// Run splits texts into contiguous batches of at most batchSize, fires every
// batch concurrently, and joins them: the overall call succeeds only when
// every batch succeeds, and fails with the first received batch error
// otherwise. Sibling in-flight batches are not cancelled; their outcomes are
// discarded. On success the per-batch results are concatenated in batch
// index order, reconstructing the input text order exactly.
func (s *Scheduler) Run(
	ctx context.Context, modelID string, texts []string, batchSize int,
) ([]domain.InferenceResult, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	numBatches := (len(texts) + batchSize - 1) / batchSize
	// Buffered so late sibling batches never block after a fail-fast return.
	outcomes := make(chan batchOutcome, numBatches)

	for i := 0; i < numBatches; i++ {
		start := i * batchSize
		end := start + batchSize
		if end > len(texts) {
			end = len(texts)
		}
		go func(index int, chunk []string) {
			results, err := s.submit(ctx, modelID, chunk)
			outcomes <- batchOutcome{index: index, results: results, err: err}
		}(i, texts[start:end])
	}

	perBatch := make([][]domain.InferenceResult, numBatches)
	for received := 0; received < numBatches; received++ {
		out := <-outcomes
		if out.err != nil {
			s.logger.Debug("Inference batch failed",
				zap.String("model", modelID),
				zap.Int("batch", out.index),
				zap.Error(out.err),
			)
			return nil, out.err
		}
		perBatch[out.index] = out.results
	}

	merged := make([]domain.InferenceResult, 0, len(texts))
	for _, results := range perBatch {
		merged = append(merged, results...)
	}
	return merged, nil
}

// RunDirect submits all texts as one gateway call without batch boundaries.
// Used by bulk and precompute callers that need a single logical result list.
func (s *Scheduler) RunDirect(
	ctx context.Context, modelID string, texts []string,
) ([]domain.InferenceResult, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	return s.submit(ctx, modelID, texts)
}

// submit performs one gateway call and enforces the one-result-per-text
// contract. A length mismatch is a collaborator contract violation.
func (s *Scheduler) submit(
	ctx context.Context, modelID string, texts []string,
) ([]domain.InferenceResult, error) {
	results, err := s.gateway.SubmitBatch(ctx, modelID, texts)
	if err != nil {
		return nil, fmt.Errorf("submit batch of %d: %w", len(texts), err)
	}
	if len(results) != len(texts) {
		return nil, fmt.Errorf(
			"gateway returned %d results for %d texts: %w",
			len(results), len(texts), domain.ErrIntegrity,
		)
	}
	return results, nil
}
