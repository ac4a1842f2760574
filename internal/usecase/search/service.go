package search

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/lostfound/internal/domain/item"
	"github.com/kailas-cloud/lostfound/internal/domain/search/result"
	"github.com/kailas-cloud/lostfound/internal/domain/vector"
	logpkg "github.com/kailas-cloud/lostfound/internal/logger"
	"github.com/kailas-cloud/lostfound/internal/metrics"
)

// Service ranks open items against a free-text query.
type Service struct {
	items CandidateLister
	embed Embedder
	topK  int
}

// New creates a search service returning DefaultTopK hits.
func New(items CandidateLister, embed Embedder) *Service {
	return &Service{items: items, embed: embed, topK: DefaultTopK}
}

// WithTopK overrides the number of hits returned.
func (s *Service) WithTopK(k int) *Service {
	if k > 0 {
		s.topK = k
	}
	return s
}

// Search embeds the query once and ranks every open item by similarity.
// A blank query returns no hits without touching the embedder or the store.
func (s *Service) Search(ctx context.Context, query string) ([]result.Scored, error) {
	if strings.TrimSpace(query) == "" {
		metrics.SearchRequestsTotal.WithLabelValues("empty_query").Inc()
		return []result.Scored{}, nil
	}

	emb, err := s.embed.Embed(ctx, query)
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("vectorize query: %w", err)
	}

	stored, err := s.items.ListCandidates(ctx, item.Open)
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("list open items: %w", err)
	}

	log := logpkg.FromContext(ctx)
	candidates := make([]Candidate, len(stored))
	malformed := 0
	for i, st := range stored {
		vec, err := vector.Decode(st.RawEmbedding)
		if err != nil {
			malformed++
			log.Warn("Stored embedding is malformed, skipping item",
				zap.Int64("item_id", st.Item.ID()),
				zap.Error(err),
			)
			vec = nil
		}
		candidates[i] = Candidate{Item: st.Item, Vector: vec}
	}

	hits, stats := Rank(emb.Embedding, candidates, s.topK)

	metrics.SearchRequestsTotal.WithLabelValues("ok").Inc()
	metrics.SearchCandidatesTotal.WithLabelValues("scored").Add(float64(stats.Scored))
	metrics.SearchCandidatesTotal.WithLabelValues("malformed").Add(float64(malformed))
	metrics.SearchCandidatesTotal.WithLabelValues("empty").Add(float64(stats.SkippedEmpty - malformed))
	metrics.SearchCandidatesTotal.WithLabelValues("dimension_mismatch").Add(float64(stats.SkippedDim))
	metrics.SearchResults.Observe(float64(len(hits)))

	log.Debug("Search ranked",
		zap.Int("candidates", len(candidates)),
		zap.Int("scored", stats.Scored),
		zap.Int("skipped_empty", stats.SkippedEmpty),
		zap.Int("skipped_dimension", stats.SkippedDim),
		zap.Int("malformed", malformed),
		zap.Int("hits", len(hits)),
	)

	return hits, nil
}
