package enrich

import (
	"context"
	"errors"
	"sort"
	"testing"

	"go.uber.org/zap"

	"github.com/cortexa-labs/neurapipe/internal/domain"
	dombatch "github.com/cortexa-labs/neurapipe/internal/domain/batch"
	"github.com/cortexa-labs/neurapipe/internal/domain/document"
)

func newTestService(t *testing.T, gw Gateway) *Service {
	t.Helper()
	svc := New(zap.NewNop())
	if err := svc.Register(newTestProcessor(t, gw, singleFieldMap(t))); err != nil {
		t.Fatalf("register: %v", err)
	}
	return svc
}

func TestService_Register(t *testing.T) {
	svc := newTestService(t, &mockGateway{})

	t.Run("duplicate rejected", func(t *testing.T) {
		err := svc.Register(newTestProcessor(t, &mockGateway{}, singleFieldMap(t)))
		if err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("pipelines listed", func(t *testing.T) {
		names := svc.Pipelines()
		sort.Strings(names)
		if len(names) != 1 || names[0] != "test_pipeline" {
			t.Errorf("unexpected pipelines: %v", names)
		}
	})
}

func TestService_EnrichUnknownPipeline(t *testing.T) {
	svc := newTestService(t, &mockGateway{})

	_, err := svc.Enrich(context.Background(), "nope", document.New(map[string]any{}))
	if !errors.Is(err, domain.ErrUnknownPipeline) {
		t.Errorf("expected ErrUnknownPipeline, got %v", err)
	}
}

func TestService_EnrichBulk(t *testing.T) {
	gw := &mockGateway{}
	svc := newTestService(t, gw)

	docs := []*document.Document{
		document.New(map[string]any{"text_field": "one"}),
		document.New(map[string]any{"text_field": 42.0}), // fails validation
		document.New(map[string]any{"text_field": "three"}),
	}

	results, err := svc.EnrichBulk(context.Background(), "test_pipeline", docs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	if results[0].Status() != dombatch.StatusOK || results[2].Status() != dombatch.StatusOK {
		t.Errorf("valid documents must succeed: %v, %v", results[0].Err(), results[2].Err())
	}
	if results[1].Status() != dombatch.StatusError {
		t.Error("invalid document must fail")
	}
	if !errors.Is(results[1].Err(), domain.ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", results[1].Err())
	}

	// Valid documents share one inference call and get their embeddings.
	if gw.callCount() != 1 {
		t.Errorf("expected one gateway call, got %d", gw.callCount())
	}
	for _, i := range []int{0, 2} {
		if _, ok := docs[i].Get("embedding_field"); !ok {
			t.Errorf("doc %d missing embedding", i)
		}
	}
	if _, ok := docs[1].Get("embedding_field"); ok {
		t.Error("failed doc must not receive an embedding")
	}
}

func TestService_EnrichBulkAllInvalid(t *testing.T) {
	gw := &mockGateway{}
	svc := newTestService(t, gw)

	docs := []*document.Document{
		document.New(map[string]any{"text_field": 1.0}),
		document.New(map[string]any{"text_field": 2.0}),
	}

	results, err := svc.EnrichBulk(context.Background(), "test_pipeline", docs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, r := range results {
		if r.Status() != dombatch.StatusError {
			t.Errorf("result %d should fail", i)
		}
	}
	if gw.callCount() != 0 {
		t.Errorf("gateway must not be called when no document is valid, got %d", gw.callCount())
	}
}

func TestService_EnrichBulkGatewayFailure(t *testing.T) {
	wantErr := errors.New("backend unavailable")
	gw := &mockGateway{respond: func([]string) ([]domain.InferenceResult, error) {
		return nil, wantErr
	}}
	svc := newTestService(t, gw)

	docs := []*document.Document{
		document.New(map[string]any{"text_field": "one"}),
		document.New(map[string]any{"text_field": 2.0}),
	}

	results, err := svc.EnrichBulk(context.Background(), "test_pipeline", docs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !errors.Is(results[0].Err(), wantErr) {
		t.Errorf("valid doc should carry gateway error, got %v", results[0].Err())
	}
	if !errors.Is(results[1].Err(), domain.ErrValidation) {
		t.Errorf("invalid doc keeps validation error, got %v", results[1].Err())
	}
}

func TestService_EnrichBulkSizeLimit(t *testing.T) {
	svc := newTestService(t, &mockGateway{}).WithMaxBulkSize(2)

	docs := make([]*document.Document, 3)
	for i := range docs {
		docs[i] = document.New(map[string]any{"text_field": "x"})
	}

	_, err := svc.EnrichBulk(context.Background(), "test_pipeline", docs)
	if !errors.Is(err, domain.ErrBatchTooLarge) {
		t.Errorf("expected ErrBatchTooLarge, got %v", err)
	}
}
