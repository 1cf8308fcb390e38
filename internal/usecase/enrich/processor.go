package enrich

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/cortexa-labs/neurapipe/internal/domain"
	"github.com/cortexa-labs/neurapipe/internal/domain/document"
	"github.com/cortexa-labs/neurapipe/internal/domain/fieldmap"
	"github.com/cortexa-labs/neurapipe/internal/metrics"
)

// Processor enriches documents for one configured pipeline: it validates the
// selected fields, extracts their text, runs batched inference, and writes
// the results back into the document. FieldMap and Policy are read-only
// configuration shared across concurrent calls; each call owns its document
// exclusively for its duration.
type Processor struct {
	name      string
	modelID   string
	fieldMap  fieldmap.Map
	policy    domain.ValidationPolicy
	batchSize int
	scheduler *Scheduler
	logger    *zap.Logger
}

// ProcessorConfig holds the static configuration of one pipeline.
type ProcessorConfig struct {
	Name      string
	ModelID   string
	FieldMap  fieldmap.Map
	Policy    domain.ValidationPolicy
	BatchSize int
}

// NewProcessor creates a pipeline processor over an inference gateway.
func NewProcessor(cfg ProcessorConfig, gateway Gateway, logger *zap.Logger) (*Processor, error) {
	if cfg.ModelID == "" {
		return nil, fmt.Errorf("model_id is null or empty, cannot process it")
	}
	if cfg.FieldMap.Len() == 0 {
		return nil, fmt.Errorf("pipeline %q has an empty field map", cfg.Name)
	}
	if cfg.Policy.MaxDepth <= 0 {
		cfg.Policy.MaxDepth = domain.DefaultMaxDepth
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	return &Processor{
		name:      cfg.Name,
		modelID:   cfg.ModelID,
		fieldMap:  cfg.FieldMap,
		policy:    cfg.Policy,
		batchSize: cfg.BatchSize,
		scheduler: NewScheduler(gateway, logger),
		logger:    logger,
	}, nil
}

// Name returns the pipeline name.
func (p *Processor) Name() string { return p.name }

// Execute runs one document processing call and delivers the outcome through
// the completion handler: handler(doc, nil) on success, handler(nil, err) on
// any failure, exactly once on every path. The calling goroutine is never
// blocked on the inference round trip.
func (p *Processor) Execute(ctx context.Context, doc *document.Document, handler CompletionHandler) {
	units, err := p.prepare(doc)
	if err != nil {
		metrics.PipelineDocumentsTotal.WithLabelValues(p.name, "error").Inc()
		handler(nil, err)
		return
	}
	if len(units) == 0 {
		metrics.PipelineDocumentsTotal.WithLabelValues(p.name, "success").Inc()
		handler(doc, nil)
		return
	}

	texts := make([]string, len(units))
	for i, u := range units {
		texts[i] = u.Text
	}

	go func() {
		results, err := p.scheduler.Run(ctx, p.modelID, texts, p.batchSize)
		if err != nil {
			metrics.PipelineDocumentsTotal.WithLabelValues(p.name, "error").Inc()
			handler(nil, fmt.Errorf("pipeline %q: %w", p.name, err))
			return
		}
		if err := Reassemble(doc, units, results); err != nil {
			metrics.PipelineDocumentsTotal.WithLabelValues(p.name, "error").Inc()
			handler(nil, fmt.Errorf("pipeline %q: %w", p.name, err))
			return
		}
		metrics.PipelineDocumentsTotal.WithLabelValues(p.name, "success").Inc()
		metrics.PipelineTextUnitsTotal.WithLabelValues(p.name).Add(float64(len(units)))
		handler(doc, nil)
	}()
}

// Enrich awaits Execute over a one-shot channel for synchronous callers.
func (p *Processor) Enrich(ctx context.Context, doc *document.Document) (*document.Document, error) {
	type outcome struct {
		doc *document.Document
		err error
	}
	done := make(chan outcome, 1)
	p.Execute(ctx, doc, func(d *document.Document, err error) {
		done <- outcome{doc: d, err: err}
	})
	out := <-done
	return out.doc, out.err
}

// prepare validates the document and extracts its text units.
func (p *Processor) prepare(doc *document.Document) ([]TextUnit, error) {
	if err := Validate(p.fieldMap, doc, p.policy); err != nil {
		return nil, err
	}
	return Extract(p.fieldMap, doc), nil
}
