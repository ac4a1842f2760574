package embedding

import (
	"context"

	"github.com/kailas-cloud/lostfound/internal/domain"
)

// NoopEmbedder returns an empty vector for every text. Items created with it are never
// ranked, so search returns nothing: it is the "semantic search disabled" mode.
type NoopEmbedder struct{}

// Embed implements domain.Embedder.
func (NoopEmbedder) Embed(context.Context, string) (domain.EmbeddingResult, error) {
	return domain.EmbeddingResult{Embedding: []float32{}}, nil
}
