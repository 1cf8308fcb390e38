// Package embcache decorates the inference gateway with a Redis-backed
// embedding cache keyed by model and text.
package embcache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/cortexa-labs/neurapipe/internal/db"
	"github.com/cortexa-labs/neurapipe/internal/domain"
)

const cacheKeyPrefix = "neurapipe:emb_cache:"

// store is the consumer interface for the embedding cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// CachedGateway caches dense embeddings in a key-value store. A batch is
// split into cache hits and misses; only the misses reach the inner gateway,
// as one sub-batch, and the merged results keep the original input order.
// Sparse results are passed through uncached.
type CachedGateway struct {
	inner      domain.Gateway
	store      store
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a caching decorator.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), passed explicitly.
func New(
	inner domain.Gateway,
	s store,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *CachedGateway {
	return &CachedGateway{
		inner:      inner,
		store:      s,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// SubmitBatch implements domain.Gateway with read-through caching.
// Cache failures degrade to misses and are never fatal.
func (c *CachedGateway) SubmitBatch(
	ctx context.Context, modelID string, texts []string,
) ([]domain.InferenceResult, error) {
	results := make([]domain.InferenceResult, len(texts))

	var missTexts []string
	var missIdx []int
	for i, text := range texts {
		key := c.cacheKey(modelID, text)
		if vec, ok := c.getFromCache(ctx, key); ok {
			c.incCache("hit")
			results[i] = domain.InferenceResult{Embedding: vec}
			continue
		}
		c.incCache("miss")
		missTexts = append(missTexts, text)
		missIdx = append(missIdx, i)
	}

	if len(missTexts) == 0 {
		return results, nil
	}

	fetched, err := c.inner.SubmitBatch(ctx, modelID, missTexts)
	if err != nil {
		return nil, fmt.Errorf("submit uncached batch: %w", err)
	}
	if len(fetched) != len(missTexts) {
		return nil, fmt.Errorf(
			"inner gateway returned %d results for %d texts: %w",
			len(fetched), len(missTexts), domain.ErrIntegrity,
		)
	}

	for j, result := range fetched {
		results[missIdx[j]] = result
		if !result.IsSparse() {
			c.putToCache(ctx, c.cacheKey(modelID, missTexts[j]), result.Embedding)
		}
	}
	return results, nil
}

func (c *CachedGateway) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

func (c *CachedGateway) cacheKey(modelID, text string) string {
	h := sha256.Sum256([]byte(modelID + "\x00" + text))
	return cacheKeyPrefix + hex.EncodeToString(h[:])
}

func (c *CachedGateway) getFromCache(ctx context.Context, key string) ([]float32, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached embedding", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	if len(data) == 0 {
		return nil, false
	}

	vec, err := bytesToVector(data)
	if err != nil {
		c.logger.Warn("Failed to parse cached embedding", zap.String("key", key), zap.Error(err))
		return nil, false
	}

	return vec, true
}

func (c *CachedGateway) putToCache(ctx context.Context, key string, vec []float32) {
	data := vectorToCacheBytes(vec)
	if err := c.store.Set(ctx, key, data); err != nil {
		c.logger.Warn("Failed to cache embedding", zap.String("key", key), zap.Error(err))
	}
}

func vectorToCacheBytes(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func bytesToVector(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("invalid embedding cache data: len=%d (not multiple of 4)", len(data))
	}
	vec := make([]float32, len(data)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return vec, nil
}
