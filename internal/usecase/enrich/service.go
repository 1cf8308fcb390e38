package enrich

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/cortexa-labs/neurapipe/internal/domain"
	dombatch "github.com/cortexa-labs/neurapipe/internal/domain/batch"
	"github.com/cortexa-labs/neurapipe/internal/domain/document"
)

// MaxBulkSize is the maximum number of documents per bulk request.
const MaxBulkSize = 100

// Service routes enrichment requests to named pipeline processors.
type Service struct {
	processors  map[string]*Processor
	maxBulkSize int
	logger      *zap.Logger
}

// New creates an enrichment service.
func New(logger *zap.Logger) *Service {
	return &Service{
		processors:  make(map[string]*Processor),
		maxBulkSize: MaxBulkSize,
		logger:      logger,
	}
}

// WithMaxBulkSize configures the bulk request limit.
func (s *Service) WithMaxBulkSize(size int) *Service {
	if size > 0 {
		s.maxBulkSize = size
	}
	return s
}

// Register adds a pipeline processor. Registration happens at composition
// time; the map is read-only afterwards.
func (s *Service) Register(p *Processor) error {
	if _, exists := s.processors[p.Name()]; exists {
		return fmt.Errorf("pipeline %q already registered", p.Name())
	}
	s.processors[p.Name()] = p
	return nil
}

// Pipelines returns the registered pipeline names.
func (s *Service) Pipelines() []string {
	names := make([]string, 0, len(s.processors))
	for name := range s.processors {
		names = append(names, name)
	}
	return names
}

// Enrich runs one document through the named pipeline.
func (s *Service) Enrich(
	ctx context.Context, pipeline string, doc *document.Document,
) (*document.Document, error) {
	p, err := s.processor(pipeline)
	if err != nil {
		return nil, err
	}
	enriched, err := p.Enrich(ctx, doc)
	if err != nil {
		return nil, err
	}
	return enriched, nil
}

// EnrichBulk runs multiple documents through the named pipeline with
// per-document outcomes. Inference for all valid documents goes through the
// scheduler's direct mode as one logical call; whether a failed document
// aborts the whole bulk is the caller's policy, the service only reports.
func (s *Service) EnrichBulk(
	ctx context.Context, pipeline string, docs []*document.Document,
) ([]dombatch.Result, error) {
	p, err := s.processor(pipeline)
	if err != nil {
		return nil, err
	}
	if len(docs) > s.maxBulkSize {
		return nil, fmt.Errorf("bulk of %d exceeds limit %d: %w",
			len(docs), s.maxBulkSize, domain.ErrBatchTooLarge)
	}

	results := make([]dombatch.Result, len(docs))

	// Validate and extract everything up front; failed documents are
	// excluded from the inference call.
	unitsPerDoc := make([][]TextUnit, len(docs))
	var texts []string
	valid := make([]int, 0, len(docs))
	for i, doc := range docs {
		units, err := p.prepare(doc)
		if err != nil {
			results[i] = dombatch.NewError(i, err)
			continue
		}
		unitsPerDoc[i] = units
		for _, u := range units {
			texts = append(texts, u.Text)
		}
		valid = append(valid, i)
	}
	if len(valid) == 0 {
		return results, nil
	}

	inference, err := p.scheduler.RunDirect(ctx, p.modelID, texts)
	if err != nil {
		for _, i := range valid {
			results[i] = dombatch.NewError(i, fmt.Errorf("pipeline %q: %w", pipeline, err))
		}
		return results, nil
	}

	offset := 0
	for _, i := range valid {
		units := unitsPerDoc[i]
		slice := inference[offset : offset+len(units)]
		offset += len(units)
		if err := Reassemble(docs[i], units, slice); err != nil {
			results[i] = dombatch.NewError(i, fmt.Errorf("pipeline %q: %w", pipeline, err))
			continue
		}
		results[i] = dombatch.NewOK(i)
	}
	return results, nil
}

func (s *Service) processor(name string) (*Processor, error) {
	p, ok := s.processors[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownPipeline, name)
	}
	return p, nil
}
