// Package gemini adapts the Google Gemini embedding API to domain.Embedder.
package gemini

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"github.com/kailas-cloud/lostfound/internal/domain"
	"github.com/kailas-cloud/lostfound/internal/metrics"
)

// Config holds the Gemini embedding settings.
type Config struct {
	APIKey     string
	BaseURL    string // empty keeps the library default
	Model      string // e.g. "text-embedding-004"
	Dimensions int
}

// Embedder wraps a genai.Client.
type Embedder struct {
	client     *genai.Client
	model      string
	dimensions int32
}

// NewEmbedder creates the Gemini API client. It does not contact the API.
func NewEmbedder(ctx context.Context, cfg *Config) (*Embedder, error) {
	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Embedder{client: client, model: cfg.Model, dimensions: int32(cfg.Dimensions)}, nil //nolint:gosec // validated by config
}

// Embed implements domain.Embedder.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	contents := []*genai.Content{
		{Parts: []*genai.Part{{Text: text}}},
	}
	cfg := &genai.EmbedContentConfig{}
	if e.dimensions > 0 {
		dims := e.dimensions
		cfg.OutputDimensionality = &dims
	}

	resp, err := e.client.Models.EmbedContent(ctx, e.model, contents, cfg)
	if err != nil {
		if ctx.Err() != nil {
			return domain.EmbeddingResult{}, fmt.Errorf("embedding request: %w", ctx.Err())
		}
		e.countError("api_error")
		return domain.EmbeddingResult{}, parseAPIError(err)
	}
	if len(resp.Embeddings) == 0 || resp.Embeddings[0] == nil {
		e.countError("empty_response")
		return domain.EmbeddingResult{}, fmt.Errorf("empty embedding response: %w", domain.ErrEmbeddingProviderError)
	}

	values := resp.Embeddings[0].Values
	if values == nil {
		values = []float32{}
	}
	return domain.EmbeddingResult{Embedding: values}, nil
}

// HealthCheck fetches the model metadata.
func (e *Embedder) HealthCheck(ctx context.Context) error {
	if _, err := e.client.Models.Get(ctx, e.model, nil); err != nil {
		return fmt.Errorf("get model %s: %w", e.model, err)
	}
	return nil
}

func (e *Embedder) countError(kind string) {
	metrics.EmbeddingErrorsTotal.WithLabelValues("gemini", e.model, kind).Inc()
}

func parseAPIError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("gemini API error %d: %s: %w", apiErr.Code, apiErr.Message, domain.ErrEmbeddingProviderError)
	}
	return fmt.Errorf("gemini request failed: %w", domain.ErrEmbeddingProviderError)
}
