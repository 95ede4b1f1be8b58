package health

import (
	"context"
	"errors"
	"testing"
)

// --- Mocks ---

type mockCorpus struct {
	items, spaces int
}

func (m mockCorpus) CatalogSize() int { return m.items }
func (m mockCorpus) SpaceCount() int  { return m.spaces }

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(_ context.Context) error { return m.err }

type mockEncoderChecker struct {
	err error
}

func (m *mockEncoderChecker) HealthCheck(_ context.Context) error { return m.err }

// --- Tests ---

func TestCheck_AllHealthy(t *testing.T) {
	svc := New(mockCorpus{items: 10, spaces: 3}, &mockPinger{}, &mockEncoderChecker{})
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	for _, name := range []string{CheckCatalog, CheckSpaces, CheckCache, CheckEncoder} {
		if r.Checks[name] != CheckOK {
			t.Errorf("expected %s %q, got %q", name, CheckOK, r.Checks[name])
		}
	}
}

func TestCheck_OptionalComponentsAbsent(t *testing.T) {
	svc := New(mockCorpus{items: 1, spaces: 1}, nil, nil)
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if _, ok := r.Checks[CheckCache]; ok {
		t.Error("cache check should be absent when no cache is configured")
	}
	if _, ok := r.Checks[CheckEncoder]; ok {
		t.Error("encoder check should be absent when no encoder is configured")
	}
}

func TestCheck_Degraded(t *testing.T) {
	tests := []struct {
		name    string
		corpus  mockCorpus
		cache   error
		encoder error
		failed  string
	}{
		{"cache down", mockCorpus{1, 1}, errors.New("conn refused"), nil, CheckCache},
		{"encoder down", mockCorpus{1, 1}, nil, errors.New("timeout"), CheckEncoder},
		{"no spaces", mockCorpus{1, 0}, nil, nil, CheckSpaces},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := New(tc.corpus, &mockPinger{err: tc.cache}, &mockEncoderChecker{err: tc.encoder})
			r := svc.Check(context.Background())

			if r.Status != Degraded {
				t.Errorf("expected %q, got %q", Degraded, r.Status)
			}
			if r.Checks[tc.failed] != CheckError {
				t.Errorf("expected %s %q, got %q", tc.failed, CheckError, r.Checks[tc.failed])
			}
		})
	}
}

func TestCheck_EmptyCatalogIsUnhealthy(t *testing.T) {
	svc := New(mockCorpus{items: 0, spaces: 2}, &mockPinger{err: errors.New("down")}, nil)
	r := svc.Check(context.Background())

	if r.Status != Unhealthy {
		t.Errorf("expected %q, got %q", Unhealthy, r.Status)
	}
	if r.Checks[CheckCatalog] != CheckError {
		t.Errorf("expected catalog %q, got %q", CheckError, r.Checks[CheckCatalog])
	}
}
