package search

import (
	"context"

	"github.com/kailas-cloud/lostfound/internal/domain"
	"github.com/kailas-cloud/lostfound/internal/domain/item"
)

// CandidateLister reads the items with the given status along with their raw embeddings.
type CandidateLister interface {
	ListCandidates(ctx context.Context, status item.Status) ([]item.Stored, error)
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
