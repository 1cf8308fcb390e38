package hybrid

import (
	"fmt"
	"math"
	"sync"
)

// Combiner reduces one document's normalized per-source scores to a single
// combined score. A document absent from a source simply contributes no
// score for it.
type Combiner interface {
	Name() string
	Combine(normalized []float64) float64
}

// ArithmeticMean averages the present normalized scores.
type ArithmeticMean struct{}

// Name returns the registry name of the combiner.
func (ArithmeticMean) Name() string { return "arithmetic_mean" }

// Combine returns the mean of the present scores, 0 for none.
func (ArithmeticMean) Combine(normalized []float64) float64 {
	if len(normalized) == 0 {
		return 0
	}
	var sum float64
	for _, s := range normalized {
		sum += s
	}
	return sum / float64(len(normalized))
}

// GeometricMean combines via the geometric mean of the positive scores.
type GeometricMean struct{}

// Name returns the registry name of the combiner.
func (GeometricMean) Name() string { return "geometric_mean" }

// Combine returns the geometric mean over scores > 0, 0 for none.
func (GeometricMean) Combine(normalized []float64) float64 {
	var logSum float64
	var count int
	for _, s := range normalized {
		if s > 0 {
			logSum += math.Log(s)
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return math.Exp(logSum / float64(count))
}

// CombinerRegistry resolves combiner names to implementations.
type CombinerRegistry struct {
	mu        sync.RWMutex
	combiners map[string]Combiner
	defaultTo string
}

// NewCombinerRegistry creates a registry with arithmetic_mean as the default.
func NewCombinerRegistry() *CombinerRegistry {
	r := &CombinerRegistry{combiners: make(map[string]Combiner), defaultTo: ArithmeticMean{}.Name()}
	r.combiners[ArithmeticMean{}.Name()] = ArithmeticMean{}
	r.combiners[GeometricMean{}.Name()] = GeometricMean{}
	return r
}

// Register adds a named combiner.
func (r *CombinerRegistry) Register(c Combiner) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.combiners[c.Name()]; exists {
		return fmt.Errorf("combiner %q already registered", c.Name())
	}
	r.combiners[c.Name()] = c
	return nil
}

// Resolve returns the combiner for name, or the default for an empty name.
func (r *CombinerRegistry) Resolve(name string) (Combiner, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if name == "" {
		name = r.defaultTo
	}
	c, ok := r.combiners[name]
	if !ok {
		return nil, fmt.Errorf("unknown combiner %q", name)
	}
	return c, nil
}
