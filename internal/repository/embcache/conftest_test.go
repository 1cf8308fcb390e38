package embcache

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/cortexa-labs/neurapipe/internal/db"
	"github.com/cortexa-labs/neurapipe/internal/domain"
)

type mockGateway struct {
	calls   [][]string
	respond func(texts []string) ([]domain.InferenceResult, error)
}

func (m *mockGateway) SubmitBatch(_ context.Context, _ string, texts []string) ([]domain.InferenceResult, error) {
	m.calls = append(m.calls, append([]string(nil), texts...))
	if m.respond != nil {
		return m.respond(texts)
	}
	results := make([]domain.InferenceResult, len(texts))
	for i := range texts {
		results[i] = domain.InferenceResult{Embedding: []float32{float32(len(texts[i]))}}
	}
	return results, nil
}

// mockKVStore implements the consumer interface for tests.
type mockKVStore struct {
	getFn func(ctx context.Context, key string) ([]byte, error)
	setFn func(ctx context.Context, key string, value []byte) error
}

func (m *mockKVStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	return nil, db.ErrKeyNotFound
}

func (m *mockKVStore) Set(ctx context.Context, key string, value []byte) error {
	if m.setFn != nil {
		return m.setFn(ctx, key, value)
	}
	return nil
}

func newTestCachedGateway(t *testing.T, inner *mockGateway) (*CachedGateway, *mockKVStore) {
	t.Helper()
	ms := &mockKVStore{}
	cg := New(inner, ms, nil, zap.NewNop())
	return cg, ms
}
