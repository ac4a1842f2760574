package result

import "github.com/kailas-cloud/lostfound/internal/domain/item"

// Scored is a single search hit: an item paired with its similarity to the query.
// It lives only for the duration of one search request.
type Scored struct {
	item  item.Item
	score float64
}

// New creates a search hit.
func New(it item.Item, score float64) Scored {
	return Scored{item: it, score: score}
}

// Item returns the matched item.
func (s *Scored) Item() item.Item { return s.item }

// Score returns the similarity score.
func (s *Scored) Score() float64 { return s.score }

// WithScore returns a copy with a replaced score.
func (s *Scored) WithScore(score float64) Scored {
	return Scored{item: s.item, score: score}
}
