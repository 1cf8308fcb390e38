package enrich

import (
	"context"
	"sync"

	"github.com/cortexa-labs/neurapipe/internal/domain"
)

// mockGateway implements the Gateway contract for tests. By default it
// returns one distinct single-element embedding per input text.
type mockGateway struct {
	mu      sync.Mutex
	calls   [][]string
	respond func(texts []string) ([]domain.InferenceResult, error)
}

func (m *mockGateway) SubmitBatch(_ context.Context, _ string, texts []string) ([]domain.InferenceResult, error) {
	m.mu.Lock()
	m.calls = append(m.calls, append([]string(nil), texts...))
	m.mu.Unlock()

	if m.respond != nil {
		return m.respond(texts)
	}
	results := make([]domain.InferenceResult, len(texts))
	for i := range texts {
		results[i] = domain.InferenceResult{Embedding: []float32{float32(len(texts[i]))}}
	}
	return results, nil
}

func (m *mockGateway) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func (m *mockGateway) batchSizes() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	sizes := make([]int, len(m.calls))
	for i, call := range m.calls {
		sizes[i] = len(call)
	}
	return sizes
}
