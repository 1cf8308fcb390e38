package sdk

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cortexa-labs/neurapipe/internal/db"
	dbRedis "github.com/cortexa-labs/neurapipe/internal/db/redis"
	"github.com/cortexa-labs/neurapipe/internal/domain"
	dombatch "github.com/cortexa-labs/neurapipe/internal/domain/batch"
	"github.com/cortexa-labs/neurapipe/internal/domain/document"
	"github.com/cortexa-labs/neurapipe/internal/domain/fieldmap"
	"github.com/cortexa-labs/neurapipe/internal/repository/embcache"
	openaiGw "github.com/cortexa-labs/neurapipe/internal/transport/openai"
	enrichuc "github.com/cortexa-labs/neurapipe/internal/usecase/enrich"
	hybriduc "github.com/cortexa-labs/neurapipe/internal/usecase/hybrid"
)

const defaultReadinessTimeout = 10 * time.Second

// BulkResult is the outcome of enriching one document in a bulk call.
type BulkResult struct {
	Index    int
	Err      error
	Document map[string]any
}

// Client is the neurapipe SDK entry point.
type Client struct {
	store  db.Store
	enrich *enrichuc.Service
	hybrid *hybriduc.Service
}

// New creates a Client and, when a cache is configured, connects to it.
// The provided context is used for the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}
	if cfg.apiKey == "" {
		return nil, errors.New("neurapipe: inference backend required (use WithOpenAI)")
	}
	if len(cfg.pipelines) == 0 {
		return nil, errors.New("neurapipe: at least one pipeline required (use WithPipeline)")
	}

	var store db.Store
	if len(cfg.cacheAddrs) > 0 {
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.cacheAddrs,
			Password: cfg.cachePassword,
		})
		if err != nil {
			return nil, fmt.Errorf("neurapipe: create cache store: %w", err)
		}
		if err := s.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
			s.Close()
			return nil, fmt.Errorf("neurapipe: cache store not ready: %w", err)
		}
		store = s
	}

	var gateway domain.Gateway = openaiGw.NewGateway(&openaiGw.Config{
		APIKey:     cfg.apiKey,
		BaseURL:    cfg.baseURL,
		Dimensions: cfg.dimensions,
		Provider:   "openai",
		Logger:     cfg.logger,
	})
	if store != nil {
		gateway = embcache.New(gateway, store, nil, cfg.logger)
	}

	enrichSvc := enrichuc.New(cfg.logger)
	for name, spec := range cfg.pipelines {
		entries := make([]fieldmap.Entry, len(spec.FieldMap))
		for i, fm := range spec.FieldMap {
			entries[i] = fieldmap.Entry{Source: fm.Source, Target: fm.Target}
		}
		fm, err := fieldmap.New(entries)
		if err != nil {
			closeStore(store)
			return nil, fmt.Errorf("neurapipe: pipeline %q: %w", name, err)
		}

		processor, err := enrichuc.NewProcessor(enrichuc.ProcessorConfig{
			Name:     name,
			ModelID:  spec.Model,
			FieldMap: fm,
			Policy: domain.ValidationPolicy{
				MaxDepth:   spec.MaxDepth,
				AllowEmpty: spec.AllowEmpty,
			},
			BatchSize: spec.BatchSize,
		}, gateway, cfg.logger)
		if err != nil {
			closeStore(store)
			return nil, fmt.Errorf("neurapipe: pipeline %q: %w", name, err)
		}
		if err := enrichSvc.Register(processor); err != nil {
			closeStore(store)
			return nil, fmt.Errorf("neurapipe: %w", err)
		}
	}

	return &Client{
		store:  store,
		enrich: enrichSvc,
		hybrid: hybriduc.New(cfg.logger),
	}, nil
}

// Close releases the cache connection, if any.
func (c *Client) Close() {
	closeStore(c.store)
}

// Enrich runs one document through the named pipeline and returns the
// enriched field map.
func (c *Client) Enrich(ctx context.Context, pipeline string, source map[string]any) (map[string]any, error) {
	doc, err := c.enrich.Enrich(ctx, pipeline, document.New(source))
	if err != nil {
		return nil, fmt.Errorf("neurapipe: %w", err)
	}
	return doc.Source(), nil
}

// EnrichBulk runs multiple documents through the named pipeline with
// per-document outcomes.
func (c *Client) EnrichBulk(
	ctx context.Context, pipeline string, sources []map[string]any,
) ([]BulkResult, error) {
	docs := make([]*document.Document, len(sources))
	for i, source := range sources {
		docs[i] = document.New(source)
	}

	results, err := c.enrich.EnrichBulk(ctx, pipeline, docs)
	if err != nil {
		return nil, fmt.Errorf("neurapipe: %w", err)
	}

	out := make([]BulkResult, len(results))
	for i, res := range results {
		out[i] = BulkResult{Index: res.Index(), Document: docs[i].Source()}
		if res.Status() == dombatch.StatusError {
			out[i].Err = res.Err()
		}
	}
	return out, nil
}

// Normalize converts one raw score with the named strategy ("" = min_max).
func (c *Client) Normalize(strategy string, score, populationMin, populationMax float64) (float64, error) {
	normalized, err := c.hybrid.Normalize(strategy, score, populationMin, populationMax)
	if err != nil {
		return 0, fmt.Errorf("neurapipe: %w", err)
	}
	return normalized, nil
}

// DocScore re-exports the hybrid ranking input type.
type DocScore = hybriduc.DocScore

// RankedDoc re-exports the hybrid ranking output type.
type RankedDoc = hybriduc.RankedDoc

// Rank combines per-source rankings into one. strategy "rrf" fuses by rank;
// otherwise scores are normalized per source and combined.
func (c *Client) Rank(strategy, combiner string, sources [][]DocScore, topK int) ([]RankedDoc, error) {
	ranked, err := c.hybrid.Rank(strategy, combiner, sources, topK)
	if err != nil {
		return nil, fmt.Errorf("neurapipe: %w", err)
	}
	return ranked, nil
}

func closeStore(store db.Store) {
	if store != nil {
		store.Close()
	}
}
