package item

import (
	"fmt"
	"strconv"
	"time"

	domitem "github.com/kailas-cloud/lostfound/internal/domain/item"
	"github.com/kailas-cloud/lostfound/internal/domain/vector"
)

// Hash field names of a stored item.
const (
	fieldType        = "type"
	fieldTitle       = "title"
	fieldDescription = "description"
	fieldLocation    = "location"
	fieldDate        = "date"
	fieldContact     = "contact"
	fieldPhoto       = "photo"
	fieldStatus      = "status"
	fieldOwner       = "owner"
	fieldCreatedAt   = "created_at"
	fieldEmbedding   = "embedding"
)

// buildHashFields flattens an item for HSET. The vector is stored as JSON text.
func buildHashFields(it *domitem.Item) (map[string]string, error) {
	emb, err := vector.Encode(it.Embedding())
	if err != nil {
		return nil, err //nolint:wrapcheck // already carries "encode vector"
	}
	return map[string]string{
		fieldType:        string(it.Type()),
		fieldTitle:       it.Title(),
		fieldDescription: it.Description(),
		fieldLocation:    it.Location(),
		fieldDate:        it.Date(),
		fieldContact:     it.Contact(),
		fieldPhoto:       it.PhotoRef(),
		fieldStatus:      string(it.Status()),
		fieldOwner:       it.Owner(),
		fieldCreatedAt:   it.CreatedAt().Format(time.RFC3339Nano),
		fieldEmbedding:   emb,
	}, nil
}

// parseHashFields rebuilds a stored item. The raw vector text is kept as is; the
// item's own vector is decoded leniently and left nil when the text is malformed.
func parseHashFields(id int64, m map[string]string) (domitem.Stored, error) {
	createdAt, err := time.Parse(time.RFC3339Nano, m[fieldCreatedAt])
	if err != nil {
		return domitem.Stored{}, fmt.Errorf("item %d: parse created_at: %w", id, err)
	}
	raw := m[fieldEmbedding]
	emb, err := vector.Decode(raw)
	if err != nil {
		emb = nil
	}

	status := domitem.Status(m[fieldStatus])
	if status == "" {
		status = domitem.Open
	}
	itemType := domitem.Type(m[fieldType])
	if itemType == "" {
		itemType = domitem.Found
	}

	it := domitem.Reconstruct(id, itemType, m[fieldTitle], m[fieldDescription], m[fieldLocation],
		m[fieldDate], m[fieldContact], m[fieldPhoto], status, m[fieldOwner], createdAt, emb)
	return domitem.Stored{Item: it, RawEmbedding: raw}, nil
}

func formatID(id int64) string { return strconv.FormatInt(id, 10) }
