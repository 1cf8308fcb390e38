package hybrid

import (
	"fmt"

	"go.uber.org/zap"
)

// RRFMode selects rank-based fusion instead of score normalization.
const RRFMode = "rrf"

// DocScore is one document's raw score from one retrieval source, in that
// source's rank order.
type DocScore struct {
	DocID string
	Score float64
}

// RankedDoc is one document with its combined score.
type RankedDoc struct {
	DocID string
	Score float64
}

// Service normalizes per-source scores and combines them into one ranking.
type Service struct {
	strategies *Registry
	combiners  *CombinerRegistry
	logger     *zap.Logger
}

// New creates a hybrid ranking service with the default registries.
func New(logger *zap.Logger) *Service {
	return &Service{
		strategies: NewRegistry(),
		combiners:  NewCombinerRegistry(),
		logger:     logger,
	}
}

// Strategies exposes the strategy registry for extension at composition time.
func (s *Service) Strategies() *Registry { return s.strategies }

// Combiners exposes the combiner registry for extension at composition time.
func (s *Service) Combiners() *CombinerRegistry { return s.combiners }

// Normalize converts one raw score using the named strategy and the min/max
// of its own population.
func (s *Service) Normalize(strategy string, score, populationMin, populationMax float64) (float64, error) {
	st, err := s.strategies.Resolve(strategy)
	if err != nil {
		return 0, err
	}
	return st.Normalize(score, populationMin, populationMax), nil
}

// NormalizePopulation normalizes a whole score population in order.
func (s *Service) NormalizePopulation(strategy string, scores []float64) ([]float64, error) {
	st, err := s.strategies.Resolve(strategy)
	if err != nil {
		return nil, err
	}
	pop := NewPopulation(scores)
	normalized := make([]float64, len(scores))
	for i, score := range scores {
		normalized[i] = pop.Normalize(st, score)
	}
	return normalized, nil
}

// Rank reconciles per-source rankings into one combined ranking. Each
// source's scores are normalized against that source's population only, then
// each document's normalized scores are combined. The RRFMode strategy
// bypasses normalization and fuses by rank.
func (s *Service) Rank(
	strategy, combiner string, sources [][]DocScore, topK int,
) ([]RankedDoc, error) {
	if len(sources) == 0 {
		return nil, fmt.Errorf("no score sources")
	}
	if strategy == RRFMode {
		return fuseRRF(sources, topK), nil
	}

	st, err := s.strategies.Resolve(strategy)
	if err != nil {
		return nil, err
	}
	cb, err := s.combiners.Resolve(combiner)
	if err != nil {
		return nil, err
	}

	perDoc := make(map[string][]float64)
	order := make([]string, 0)
	for _, source := range sources {
		raw := make([]float64, len(source))
		for i, ds := range source {
			raw[i] = ds.Score
		}
		pop := NewPopulation(raw)
		for _, ds := range source {
			if _, seen := perDoc[ds.DocID]; !seen {
				order = append(order, ds.DocID)
			}
			perDoc[ds.DocID] = append(perDoc[ds.DocID], pop.Normalize(st, ds.Score))
		}
	}

	ranked := make([]RankedDoc, 0, len(order))
	for _, id := range order {
		ranked = append(ranked, RankedDoc{DocID: id, Score: cb.Combine(perDoc[id])})
	}
	sortRanked(ranked)

	if topK > 0 && len(ranked) > topK {
		ranked = ranked[:topK]
	}

	s.logger.Debug("Hybrid ranking completed",
		zap.String("strategy", st.Name()),
		zap.String("combiner", cb.Name()),
		zap.Int("sources", len(sources)),
		zap.Int("documents", len(ranked)),
	)
	return ranked, nil
}
