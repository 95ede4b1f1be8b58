package embcache

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/prodsearch/internal/db"
	"github.com/kailas-cloud/prodsearch/internal/domain"
)

type mockEncoder struct {
	vec   []float32
	err   error
	calls [][]string
}

func (m *mockEncoder) Encode(_ context.Context, texts []string) (domain.EncodingResult, error) {
	m.calls = append(m.calls, texts)
	if m.err != nil {
		return domain.EncodingResult{}, m.err
	}
	vecs := make([][]float32, len(texts))
	for i := range vecs {
		vecs[i] = m.vec
	}
	return domain.EncodingResult{Vectors: vecs, PromptTokens: 2 * len(texts), TotalTokens: 2 * len(texts)}, nil
}

// memStore is an in-memory store with injectable failures.
type memStore struct {
	data   map[string][]byte
	getErr error
	setErr error
	ttl    time.Duration
}

func newMemStore() *memStore { return &memStore{data: map[string][]byte{}} }

func (m *memStore) GetMulti(_ context.Context, keys []string) ([][]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	out := make([][]byte, len(keys))
	for i, k := range keys {
		out[i] = m.data[k]
	}
	return out, nil
}

func (m *memStore) SetMulti(_ context.Context, items []db.KVItem, ttl time.Duration) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.ttl = ttl
	for _, it := range items {
		m.data[it.Key] = it.Value
	}
	return nil
}

func newTestEncoder(t *testing.T, inner *mockEncoder) (*CachedEncoder, *memStore) {
	t.Helper()
	s := newMemStore()
	return New(inner, s, "test-model", time.Hour, nil, zap.NewNop()), s
}
