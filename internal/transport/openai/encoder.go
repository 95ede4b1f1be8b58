// Package openai implements the query encoder over any OpenAI-compatible embeddings API.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/prodsearch/internal/domain"
	"github.com/kailas-cloud/prodsearch/internal/metrics"
)

// Encoder calls an OpenAI-compatible embeddings endpoint (OpenAI, Nebius, vLLM, TEI, Ollama).
type Encoder struct {
	client     *openai.Client
	model      openai.EmbeddingModel
	dimensions int
	user       string
	provider   string
	logger     *zap.Logger
}

// Config holds the encoder provider settings.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	Dimensions int
	User       string
	Provider   string
	Timeout    time.Duration
	Logger     *zap.Logger
}

// NewEncoder creates an OpenAI-compatible encoder.
func NewEncoder(cfg *Config) *Encoder {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Encoder{
		client:     openai.NewClientWithConfig(clientCfg),
		model:      openai.EmbeddingModel(cfg.Model),
		dimensions: cfg.Dimensions,
		user:       cfg.User,
		provider:   cfg.Provider,
		logger:     logger,
	}
}

// Model returns the configured model name.
func (e *Encoder) Model() string { return string(e.model) }

// Encode implements domain.Encoder with one API request for all texts.
// Vectors are returned in input order regardless of the order of the response items.
func (e *Encoder) Encode(ctx context.Context, texts []string) (domain.EncodingResult, error) {
	if len(texts) == 0 {
		return domain.EncodingResult{}, nil
	}

	req := openai.EmbeddingRequest{
		Input:          texts,
		Model:          e.model,
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
		User:           e.user,
	}
	if e.dimensions > 0 {
		req.Dimensions = e.dimensions
	}

	model := string(e.model)
	start := time.Now()
	resp, err := e.client.CreateEmbeddings(ctx, req)
	duration := time.Since(start)

	if err != nil {
		e.fail("api_error")
		return domain.EncodingResult{}, parseAPIError(err)
	}

	vectors := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(texts) || vectors[d.Index] != nil {
			e.fail("bad_response")
			return domain.EncodingResult{}, fmt.Errorf("embedding response index %d out of range: %w",
				d.Index, domain.ErrEncoderError)
		}
		vectors[d.Index] = d.Embedding
	}
	for i, v := range vectors {
		if len(v) == 0 {
			e.fail("empty_response")
			return domain.EncodingResult{}, fmt.Errorf("no embedding for input %d of %d: %w",
				i, len(texts), domain.ErrEncoderError)
		}
	}

	metrics.EncoderRequestsTotal.WithLabelValues(e.provider, model, "success").Inc()
	metrics.EncoderRequestDuration.WithLabelValues(e.provider, model).Observe(duration.Seconds())
	if resp.Usage.TotalTokens > 0 {
		metrics.EncoderTokensTotal.WithLabelValues(e.provider, model, "prompt").Add(float64(resp.Usage.PromptTokens))
		metrics.EncoderTokensTotal.WithLabelValues(e.provider, model, "total").Add(float64(resp.Usage.TotalTokens))
	}

	return domain.EncodingResult{
		Vectors:      vectors,
		PromptTokens: resp.Usage.PromptTokens,
		TotalTokens:  resp.Usage.TotalTokens,
	}, nil
}

func (e *Encoder) fail(kind string) {
	model := string(e.model)
	metrics.EncoderRequestsTotal.WithLabelValues(e.provider, model, "error").Inc()
	metrics.EncoderErrorsTotal.WithLabelValues(e.provider, model, kind).Inc()
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (e *Encoder) HealthCheck(ctx context.Context) error {
	if _, err := e.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

// parseAPIError extracts a readable message from the API response.
// Every error wraps domain.ErrEncoderError so the HTTP layer maps it to 502.
func parseAPIError(err error) error {
	wrap := domain.ErrEncoderError

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if detail := extractDetail(reqErr.Body); detail != "" {
			return fmt.Errorf("embedding API error %d: %s: %w", reqErr.HTTPStatusCode, detail, wrap)
		}
		return fmt.Errorf("embedding API error %d: %s: %w", reqErr.HTTPStatusCode, string(reqErr.Body), wrap)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("embedding API error %d: %s: %w", apiErr.HTTPStatusCode, apiErr.Message, wrap)
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("embedding request: %w: %w", err, wrap)
	}
	return fmt.Errorf("embedding request failed: %v: %w", err, wrap)
}

// extractDetail reads the "detail" field of a JSON error body (Nebius/TEI format).
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}
