package item

import (
	"context"
	"io"

	"github.com/kailas-cloud/lostfound/internal/domain"
	domitem "github.com/kailas-cloud/lostfound/internal/domain/item"
)

// Repository defines the storage contract for items.
type Repository interface {
	Create(ctx context.Context, it *domitem.Item) error
	Get(ctx context.Context, id int64) (domitem.Item, error)
	List(ctx context.Context, f domitem.Filter) ([]domitem.Item, error)
	UpdateStatus(ctx context.Context, id int64, status domitem.Status) (domitem.Item, error)
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int, error)
}

// PhotoStore keeps uploaded photos.
type PhotoStore interface {
	Save(ctx context.Context, filename string, r io.Reader) (string, error)
	Delete(ctx context.Context, ref string) error
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
