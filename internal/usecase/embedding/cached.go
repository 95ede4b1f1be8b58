package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/prodsearch/internal/domain"
)

// DefaultCacheSize is the number of query vectors kept in process.
// At 768 dimensions × 4 bytes, 4096 entries take about 12MB.
const DefaultCacheSize = 4096

// CachedEncoder keeps recent query vectors in an in-process LRU.
// Hits consume no tokens. Safe for concurrent use.
type CachedEncoder struct {
	inner      domain.Encoder
	model      string
	cache      *lru.Cache[string, []float32]
	cacheTotal *prometheus.CounterVec
}

// NewCachedEncoder wraps inner with an LRU of size entries (<= 0 uses DefaultCacheSize).
// cacheTotal takes labels ("layer", "result") and may be nil.
func NewCachedEncoder(inner domain.Encoder, model string, size int, cacheTotal *prometheus.CounterVec) (*CachedEncoder, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, []float32](size)
	if err != nil {
		return nil, fmt.Errorf("create lru: %w", err)
	}
	return &CachedEncoder{inner: inner, model: model, cache: cache, cacheTotal: cacheTotal}, nil
}

// Encode serves cached texts from memory and sends the rest to inner in one call.
func (c *CachedEncoder) Encode(ctx context.Context, texts []string) (domain.EncodingResult, error) {
	if len(texts) == 0 {
		return domain.EncodingResult{}, nil
	}

	vectors := make([][]float32, len(texts))
	var missIdx []int
	var missTexts []string
	for i, t := range texts {
		if vec, ok := c.cache.Get(c.key(t)); ok {
			vectors[i] = vec
			continue
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, t)
	}
	c.count("hit", len(texts)-len(missIdx))
	c.count("miss", len(missIdx))
	if len(missIdx) == 0 {
		return domain.EncodingResult{Vectors: vectors}, nil
	}

	res, err := c.inner.Encode(ctx, missTexts)
	if err != nil {
		return domain.EncodingResult{}, fmt.Errorf("encode: %w", err)
	}
	if len(res.Vectors) != len(missTexts) {
		return domain.EncodingResult{}, fmt.Errorf("%w: %d vectors for %d texts",
			domain.ErrEncoderError, len(res.Vectors), len(missTexts))
	}
	for j, i := range missIdx {
		vectors[i] = res.Vectors[j]
		c.cache.Add(c.key(texts[i]), res.Vectors[j])
	}
	return domain.EncodingResult{
		Vectors:      vectors,
		PromptTokens: res.PromptTokens,
		TotalTokens:  res.TotalTokens,
	}, nil
}

// Len returns the number of cached vectors.
func (c *CachedEncoder) Len() int { return c.cache.Len() }

func (c *CachedEncoder) key(text string) string {
	h := sha256.Sum256([]byte(c.model + "\x00" + text))
	return hex.EncodeToString(h[:])
}

func (c *CachedEncoder) count(result string, n int) {
	if c.cacheTotal != nil && n > 0 {
		c.cacheTotal.WithLabelValues("memory", result).Add(float64(n))
	}
}
