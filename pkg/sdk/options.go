package sdk

import (
	"go.uber.org/zap"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

// FieldMapping maps one source field path to its embedding target path.
type FieldMapping struct {
	Source string
	Target string
}

// PipelineSpec describes one enrichment pipeline.
type PipelineSpec struct {
	Model      string
	FieldMap   []FieldMapping
	BatchSize  int
	MaxDepth   int
	AllowEmpty bool
}

type clientConfig struct {
	apiKey     string
	baseURL    string
	dimensions int

	cacheAddrs    []string
	cachePassword string

	pipelines map[string]PipelineSpec

	logger *zap.Logger
}

// WithOpenAI configures the OpenAI-compatible inference backend.
// baseURL may be empty for the default endpoint.
func WithOpenAI(apiKey, baseURL string) Option {
	return optionFunc(func(c *clientConfig) {
		c.apiKey = apiKey
		c.baseURL = baseURL
	})
}

// WithDimensions requests fixed-size embedding vectors from the backend.
func WithDimensions(dimensions int) Option {
	return optionFunc(func(c *clientConfig) {
		c.dimensions = dimensions
	})
}

// WithRedisCache enables the Redis-backed embedding cache.
func WithRedisCache(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cacheAddrs = []string{addr}
		c.cachePassword = password
	})
}

// WithPipeline registers an enrichment pipeline under a name.
func WithPipeline(name string, spec PipelineSpec) Option {
	return optionFunc(func(c *clientConfig) {
		if c.pipelines == nil {
			c.pipelines = make(map[string]PipelineSpec)
		}
		c.pipelines[name] = spec
	})
}

// WithLogger sets the zap logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = logger
	})
}
