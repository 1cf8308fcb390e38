// Package hybrid reconciles relevance scores from multiple retrieval sources
// onto a common scale and combines them into a single ranking.
package hybrid

import (
	"fmt"
	"sync"

	"github.com/cortexa-labs/neurapipe/internal/domain"
)

const (
	// minScore is the floor for normalized scores. 0 is reserved for
	// "absent" downstream, so the population minimum is clamped up.
	minScore = 0.001
	// singleResultScore is returned for every member of a degenerate
	// population (all scores equal, including a single document).
	singleResultScore = 1.0
)

// Strategy converts one raw score onto the common scale using the observed
// min/max of its own score population. Implementations are pure functions,
// safe under concurrent use.
type Strategy interface {
	Name() string
	Normalize(score, populationMin, populationMax float64) float64
}

// MinMax is the min-max normalization strategy.
type MinMax struct{}

// Name returns the registry name of the strategy.
func (MinMax) Name() string { return "min_max" }

// Normalize rescales score into (0, 1] using the population min/max.
// A degenerate population returns the sentinel 1.0 instead of evaluating
// 0/0, and an exact 0.0 is clamped up to minScore.
func (MinMax) Normalize(score, populationMin, populationMax float64) float64 {
	if populationMax == populationMin && score == populationMax {
		return singleResultScore
	}
	normalized := (score - populationMin) / (populationMax - populationMin)
	if normalized == 0 {
		return minScore
	}
	return normalized
}

// Registry resolves strategy names to implementations. New strategies can be
// registered without touching callers; selection happens per request.
type Registry struct {
	mu         sync.RWMutex
	strategies map[string]Strategy
	defaultTo  string
}

// NewRegistry creates a registry with min_max registered as the default.
func NewRegistry() *Registry {
	r := &Registry{strategies: make(map[string]Strategy), defaultTo: MinMax{}.Name()}
	r.strategies[MinMax{}.Name()] = MinMax{}
	return r
}

// Register adds a named strategy.
func (r *Registry) Register(s Strategy) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.strategies[s.Name()]; exists {
		return fmt.Errorf("normalization strategy %q already registered", s.Name())
	}
	r.strategies[s.Name()] = s
	return nil
}

// Resolve returns the strategy for name, or the default for an empty name.
func (r *Registry) Resolve(name string) (Strategy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if name == "" {
		name = r.defaultTo
	}
	s, ok := r.strategies[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownStrategy, name)
	}
	return s, nil
}

// Population characterizes one retrieval source's raw scores. Normalization
// of a score uses only the min/max of its own population, never another's.
type Population struct {
	Min float64
	Max float64
}

// NewPopulation computes the min/max over one source's scores.
func NewPopulation(scores []float64) Population {
	if len(scores) == 0 {
		return Population{}
	}
	p := Population{Min: scores[0], Max: scores[0]}
	for _, s := range scores[1:] {
		if s < p.Min {
			p.Min = s
		}
		if s > p.Max {
			p.Max = s
		}
	}
	return p
}

// Normalize applies the strategy to one score of this population.
func (p Population) Normalize(strategy Strategy, score float64) float64 {
	return strategy.Normalize(score, p.Min, p.Max)
}
