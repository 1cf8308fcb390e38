package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	chirouter "github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/cortexa-labs/neurapipe/internal/domain"
	"github.com/cortexa-labs/neurapipe/internal/domain/fieldmap"
	enrichuc "github.com/cortexa-labs/neurapipe/internal/usecase/enrich"
	healthuc "github.com/cortexa-labs/neurapipe/internal/usecase/health"
	hybriduc "github.com/cortexa-labs/neurapipe/internal/usecase/hybrid"
)

type mockGateway struct {
	err error
}

func (m *mockGateway) SubmitBatch(_ context.Context, _ string, texts []string) ([]domain.InferenceResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	results := make([]domain.InferenceResult, len(texts))
	for i := range texts {
		results[i] = domain.InferenceResult{Embedding: []float32{0.1, 0.2}}
	}
	return results, nil
}

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(context.Context) error { return m.err }

func newTestServer(t *testing.T, gw *mockGateway, cache *mockPinger) http.Handler {
	t.Helper()

	logger := zap.NewNop()

	fm, err := fieldmap.New([]fieldmap.Entry{{Source: "text_field", Target: "embedding_field"}})
	if err != nil {
		t.Fatalf("field map: %v", err)
	}
	processor, err := enrichuc.NewProcessor(enrichuc.ProcessorConfig{
		Name:     "text_embedding",
		ModelID:  "test-model",
		FieldMap: fm,
	}, gw, logger)
	if err != nil {
		t.Fatalf("new processor: %v", err)
	}
	enrichSvc := enrichuc.New(logger)
	if err := enrichSvc.Register(processor); err != nil {
		t.Fatalf("register: %v", err)
	}

	var pinger healthuc.CachePinger
	if cache != nil {
		pinger = cache
	}
	srv := NewServer(enrichSvc, hybriduc.New(logger), healthuc.New(pinger, nil), logger)

	r := chirouter.NewRouter()
	srv.Routes(r)
	return r
}

func doJSON(t *testing.T, handler http.Handler, method, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&body).Encode(payload); err != nil {
			t.Fatalf("encode payload: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func decodeJSON[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(rr.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

var errBackendDown = errors.New("backend down")
