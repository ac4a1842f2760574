package domain

import "context"

// Embedder is the shared text vectorization contract between layers.
// Implementations are deterministic for a given model version and accept the empty string.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// HealthChecker verifies embedding provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// EmbeddingResult carries the embedding vector and token usage through the decorator chain.
// An empty Embedding is a valid result meaning "no semantic capability".
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}
