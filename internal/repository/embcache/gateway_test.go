package embcache

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/cortexa-labs/neurapipe/internal/db"
	"github.com/cortexa-labs/neurapipe/internal/domain"
)

func TestCachedGateway_AllMisses(t *testing.T) {
	inner := &mockGateway{}
	cg, ms := newTestCachedGateway(t, inner)

	written := make(map[string][]byte)
	ms.setFn = func(_ context.Context, key string, value []byte) error {
		written[key] = value
		return nil
	}

	results, err := cg.SubmitBatch(context.Background(), "model", []string{"aa", "bbbb"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Embedding[0] != 2 || results[1].Embedding[0] != 4 {
		t.Errorf("unexpected embeddings: %v", results)
	}
	if len(inner.calls) != 1 || len(inner.calls[0]) != 2 {
		t.Errorf("expected one inner call with both texts, got %v", inner.calls)
	}
	if len(written) != 2 {
		t.Errorf("expected 2 cache writes, got %d", len(written))
	}
}

func TestCachedGateway_PartialHits(t *testing.T) {
	inner := &mockGateway{}
	cg, ms := newTestCachedGateway(t, inner)

	cachedKey := cg.cacheKey("model", "cached")
	cachedVec := []float32{9.5}
	ms.getFn = func(_ context.Context, key string) ([]byte, error) {
		if key == cachedKey {
			return vectorToCacheBytes(cachedVec), nil
		}
		return nil, db.ErrKeyNotFound
	}

	results, err := cg.SubmitBatch(context.Background(), "model", []string{"fresh", "cached", "new"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Hit comes from the cache; misses go to the inner gateway as one batch
	// and land back at their original positions.
	if !reflect.DeepEqual(results[1].Embedding, cachedVec) {
		t.Errorf("expected cached vector at index 1, got %v", results[1].Embedding)
	}
	if results[0].Embedding[0] != 5 || results[2].Embedding[0] != 3 {
		t.Errorf("misses misplaced: %v", results)
	}
	if len(inner.calls) != 1 {
		t.Fatalf("expected one inner call, got %d", len(inner.calls))
	}
	if !reflect.DeepEqual(inner.calls[0], []string{"fresh", "new"}) {
		t.Errorf("unexpected inner batch: %v", inner.calls[0])
	}
}

func TestCachedGateway_AllHits(t *testing.T) {
	inner := &mockGateway{}
	cg, ms := newTestCachedGateway(t, inner)

	ms.getFn = func(_ context.Context, _ string) ([]byte, error) {
		return vectorToCacheBytes([]float32{1.0}), nil
	}

	results, err := cg.SubmitBatch(context.Background(), "model", []string{"a", "b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(inner.calls) != 0 {
		t.Errorf("inner gateway must not be called on full hit, got %d calls", len(inner.calls))
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
}

func TestCachedGateway_CacheFailureDegrades(t *testing.T) {
	inner := &mockGateway{}
	cg, ms := newTestCachedGateway(t, inner)

	ms.getFn = func(_ context.Context, _ string) ([]byte, error) {
		return nil, errors.New("connection refused")
	}
	ms.setFn = func(_ context.Context, _ string, _ []byte) error {
		return errors.New("connection refused")
	}

	results, err := cg.SubmitBatch(context.Background(), "model", []string{"aa"})
	if err != nil {
		t.Fatalf("cache failure must not fail the batch: %v", err)
	}
	if results[0].Embedding[0] != 2 {
		t.Errorf("unexpected result: %v", results)
	}
	if len(inner.calls) != 1 {
		t.Errorf("expected inner call on cache failure, got %d", len(inner.calls))
	}
}

func TestCachedGateway_CorruptEntryTreatedAsMiss(t *testing.T) {
	inner := &mockGateway{}
	cg, ms := newTestCachedGateway(t, inner)

	ms.getFn = func(_ context.Context, _ string) ([]byte, error) {
		return []byte{1, 2, 3}, nil // not a multiple of 4
	}

	results, err := cg.SubmitBatch(context.Background(), "model", []string{"aa"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results[0].Embedding[0] != 2 {
		t.Errorf("expected fresh inference for corrupt entry, got %v", results)
	}
}

func TestCachedGateway_SparseBypassesCache(t *testing.T) {
	inner := &mockGateway{respond: func(texts []string) ([]domain.InferenceResult, error) {
		results := make([]domain.InferenceResult, len(texts))
		for i := range texts {
			results[i] = domain.InferenceResult{Sparse: map[string]float32{"tok": 1}}
		}
		return results, nil
	}}
	cg, ms := newTestCachedGateway(t, inner)

	var writes int
	ms.setFn = func(_ context.Context, _ string, _ []byte) error {
		writes++
		return nil
	}

	results, err := cg.SubmitBatch(context.Background(), "sparse-model", []string{"a"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !results[0].IsSparse() {
		t.Fatal("expected sparse result")
	}
	if writes != 0 {
		t.Errorf("sparse results must not be cached, got %d writes", writes)
	}
}

func TestCachedGateway_InnerError(t *testing.T) {
	wantErr := errors.New("backend down")
	inner := &mockGateway{respond: func([]string) ([]domain.InferenceResult, error) {
		return nil, wantErr
	}}
	cg, _ := newTestCachedGateway(t, inner)

	_, err := cg.SubmitBatch(context.Background(), "model", []string{"a"})
	if !errors.Is(err, wantErr) {
		t.Errorf("expected wrapped inner error, got %v", err)
	}
}

func TestCachedGateway_InnerShortResponse(t *testing.T) {
	inner := &mockGateway{respond: func(texts []string) ([]domain.InferenceResult, error) {
		return nil, nil
	}}
	cg, _ := newTestCachedGateway(t, inner)

	_, err := cg.SubmitBatch(context.Background(), "model", []string{"a"})
	if !errors.Is(err, domain.ErrIntegrity) {
		t.Errorf("expected ErrIntegrity, got %v", err)
	}
}

func TestVectorRoundTrip(t *testing.T) {
	vec := []float32{0.1, -2.5, 0, 1e10}
	got, err := bytesToVector(vectorToCacheBytes(vec))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(got, vec) {
		t.Errorf("round trip mismatch: %v != %v", got, vec)
	}
}
