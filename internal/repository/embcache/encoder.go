// Package embcache caches query vectors in a shared key-value store so that
// replicas reuse each other's encoder calls.
package embcache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/prodsearch/internal/db"
	"github.com/kailas-cloud/prodsearch/internal/domain"
)

// KeyPrefix namespaces every cache key.
const KeyPrefix = "prodsearch:qvec:"

// store is the consumer interface for the vector cache.
type store interface {
	GetMulti(ctx context.Context, keys []string) ([][]byte, error)
	SetMulti(ctx context.Context, items []db.KVItem, ttl time.Duration) error
}

// CachedEncoder serves vectors from a key-value store and encodes only the misses.
// Store failures degrade to encoder calls; they never fail a request.
type CachedEncoder struct {
	inner      domain.Encoder
	store      store
	model      string
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a caching decorator. model is part of every key so that switching
// models never serves stale vectors. cacheTotal takes labels ("layer", "result") and may be nil.
func New(
	inner domain.Encoder, s store, model string, ttl time.Duration,
	cacheTotal *prometheus.CounterVec, logger *zap.Logger,
) *CachedEncoder {
	return &CachedEncoder{
		inner:      inner,
		store:      s,
		model:      model,
		ttl:        ttl,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// Encode returns cached vectors where present and encodes the rest in one inner call.
// Cached texts consume no tokens.
func (c *CachedEncoder) Encode(ctx context.Context, texts []string) (domain.EncodingResult, error) {
	if len(texts) == 0 {
		return domain.EncodingResult{}, nil
	}

	keys := make([]string, len(texts))
	for i, t := range texts {
		keys[i] = c.cacheKey(t)
	}
	vectors := c.lookup(ctx, keys)

	var missIdx []int
	var missTexts []string
	for i, v := range vectors {
		if v == nil {
			missIdx = append(missIdx, i)
			missTexts = append(missTexts, texts[i])
		}
	}
	c.incCache("hit", len(texts)-len(missIdx))
	c.incCache("miss", len(missIdx))
	if len(missIdx) == 0 {
		return domain.EncodingResult{Vectors: vectors}, nil
	}

	res, err := c.inner.Encode(ctx, missTexts)
	if err != nil {
		return domain.EncodingResult{}, fmt.Errorf("encode texts: %w", err)
	}
	if len(res.Vectors) != len(missTexts) {
		return domain.EncodingResult{}, fmt.Errorf("%w: %d vectors for %d texts",
			domain.ErrEncoderError, len(res.Vectors), len(missTexts))
	}

	items := make([]db.KVItem, len(missIdx))
	for j, i := range missIdx {
		vectors[i] = res.Vectors[j]
		items[j] = db.KVItem{Key: keys[i], Value: vectorToBytes(res.Vectors[j])}
	}
	if err := c.store.SetMulti(ctx, items, c.ttl); err != nil {
		c.logger.Warn("Failed to cache query vectors", zap.Int("count", len(items)), zap.Error(err))
	}

	return domain.EncodingResult{
		Vectors:      vectors,
		PromptTokens: res.PromptTokens,
		TotalTokens:  res.TotalTokens,
	}, nil
}

func (c *CachedEncoder) lookup(ctx context.Context, keys []string) [][]float32 {
	out := make([][]float32, len(keys))
	blobs, err := c.store.GetMulti(ctx, keys)
	if err != nil {
		c.logger.Warn("Failed to read cached query vectors", zap.Int("count", len(keys)), zap.Error(err))
		return out
	}
	for i, data := range blobs {
		if len(data) == 0 {
			continue
		}
		vec, err := bytesToVector(data)
		if err != nil {
			c.logger.Warn("Failed to parse cached query vector", zap.String("key", keys[i]), zap.Error(err))
			continue
		}
		out[i] = vec
	}
	return out
}

func (c *CachedEncoder) incCache(result string, n int) {
	if c.cacheTotal != nil && n > 0 {
		c.cacheTotal.WithLabelValues("valkey", result).Add(float64(n))
	}
}

func (c *CachedEncoder) cacheKey(text string) string {
	h := sha256.Sum256([]byte(c.model + "\x00" + text))
	return KeyPrefix + hex.EncodeToString(h[:])
}

func vectorToBytes(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func bytesToVector(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("invalid cached vector: len=%d (not multiple of 4)", len(data))
	}
	vec := make([]float32, len(data)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return vec, nil
}
