package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/cortexa-labs/neurapipe/internal/domain"
	"github.com/cortexa-labs/neurapipe/internal/metrics"
)

// Gateway is an inference backend over the OpenAI-compatible embeddings API.
// One SubmitBatch call maps to one CreateEmbeddings request carrying the
// whole batch.
type Gateway struct {
	client     *openai.Client
	dimensions int
	user       string
	provider   string
	logger     *zap.Logger
}

// Config holds the inference backend settings.
type Config struct {
	APIKey     string
	BaseURL    string
	Dimensions int
	User       string
	Provider   string
	Logger     *zap.Logger
}

// NewGateway creates an OpenAI-compatible inference gateway.
func NewGateway(cfg *Config) *Gateway {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &Gateway{
		client:     openai.NewClientWithConfig(clientCfg),
		dimensions: cfg.Dimensions,
		user:       cfg.User,
		provider:   cfg.Provider,
		logger:     cfg.Logger,
	}
}

// SubmitBatch implements domain.Gateway. The response is reordered by the
// per-item index field, so output order always matches input order.
func (g *Gateway) SubmitBatch(
	ctx context.Context, modelID string, texts []string,
) ([]domain.InferenceResult, error) {
	req := openai.EmbeddingRequest{
		Input:          texts,
		Model:          openai.EmbeddingModel(modelID),
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
		User:           g.user,
	}
	if g.dimensions > 0 {
		req.Dimensions = g.dimensions
	}

	start := time.Now()

	resp, err := g.client.CreateEmbeddings(ctx, req)

	duration := time.Since(start)

	if err != nil {
		metrics.InferenceRequestsTotal.WithLabelValues(g.provider, modelID, "error").Inc()
		metrics.InferenceErrorsTotal.WithLabelValues(g.provider, modelID, "api_error").Inc()
		return nil, parseAPIError(err)
	}

	if len(resp.Data) != len(texts) {
		metrics.InferenceRequestsTotal.WithLabelValues(g.provider, modelID, "error").Inc()
		metrics.InferenceErrorsTotal.WithLabelValues(g.provider, modelID, "length_mismatch").Inc()
		return nil, fmt.Errorf(
			"backend returned %d embeddings for %d inputs: %w",
			len(resp.Data), len(texts), domain.ErrGateway,
		)
	}

	metrics.InferenceRequestsTotal.WithLabelValues(g.provider, modelID, "success").Inc()
	metrics.InferenceRequestDuration.WithLabelValues(g.provider, modelID).Observe(duration.Seconds())

	if resp.Usage.TotalTokens > 0 {
		metrics.InferenceTokensTotal.WithLabelValues(g.provider, modelID, "prompt").
			Add(float64(resp.Usage.PromptTokens))
		metrics.InferenceTokensTotal.WithLabelValues(g.provider, modelID, "total").
			Add(float64(resp.Usage.TotalTokens))
	}

	results := make([]domain.InferenceResult, len(texts))
	for _, item := range resp.Data {
		if item.Index < 0 || item.Index >= len(results) {
			return nil, fmt.Errorf(
				"backend returned embedding index %d out of range: %w",
				item.Index, domain.ErrGateway,
			)
		}
		results[item.Index] = domain.InferenceResult{Embedding: item.Embedding}
	}

	g.logger.Debug("Inference batch completed",
		zap.String("provider", g.provider),
		zap.String("model", modelID),
		zap.Duration("duration", duration),
		zap.Int("batch_size", len(texts)),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
	)

	return results, nil
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (g *Gateway) HealthCheck(ctx context.Context) error {
	if _, err := g.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

// parseAPIError extracts a human-readable error from the API response.
// All errors are wrapped with domain.ErrGateway for correct 502 mapping.
func parseAPIError(err error) error {
	wrap := domain.ErrGateway

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		detail := extractDetail(reqErr.Body)
		if detail != "" {
			return fmt.Errorf("inference API error %d: %s: %w",
				reqErr.HTTPStatusCode, detail, wrap)
		}
		return fmt.Errorf("inference API error %d: %s: %w",
			reqErr.HTTPStatusCode, string(reqErr.Body), wrap)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("inference API error %d: %s: %w",
			apiErr.HTTPStatusCode, apiErr.Message, wrap)
	}

	return fmt.Errorf("inference request failed: %w", wrap)
}

// extractDetail extracts the "detail" field from a JSON error body
// (OpenAI-proxy error format).
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}
