package domain

import "context"

type encodingUsageKey struct{}

// EncodingUsage collects encoder token usage for a single request.
// The handler places it in the context, the search service records into it,
// and the handler reads it back for response headers.
type EncodingUsage struct {
	TotalTokens int
	Used        bool // encoder was called, even when a cache hit consumed 0 tokens
}

// NewContextWithUsage returns a context carrying a fresh usage collector.
func NewContextWithUsage(ctx context.Context) (context.Context, *EncodingUsage) {
	u := &EncodingUsage{}
	return context.WithValue(ctx, encodingUsageKey{}, u), u
}

// UsageFromContext extracts the usage collector. Returns nil if not set.
func UsageFromContext(ctx context.Context) *EncodingUsage {
	u, _ := ctx.Value(encodingUsageKey{}).(*EncodingUsage)
	return u
}

// AddTokens records consumed tokens. Safe on a nil receiver.
func (u *EncodingUsage) AddTokens(n int) {
	if u != nil {
		u.TotalTokens += n
		u.Used = true
	}
}
