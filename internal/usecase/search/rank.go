package search

import (
	"sort"

	"github.com/kailas-cloud/lostfound/internal/domain/item"
	"github.com/kailas-cloud/lostfound/internal/domain/search/result"
	"github.com/kailas-cloud/lostfound/internal/domain/vector"
)

const (
	// DefaultTopK is the number of hits a search returns.
	DefaultTopK = 10
	// scoreDigits is the presentation precision of returned scores.
	scoreDigits = 3
)

// Candidate is an item with its decoded stored vector.
type Candidate struct {
	Item   item.Item
	Vector []float32
}

// RankStats counts what happened to candidates during one ranking pass.
type RankStats struct {
	Scored       int
	SkippedEmpty int
	SkippedDim   int
}

// Rank scores candidates against query by cosine similarity and returns the best k,
// most similar first. Candidates without a vector, or with a vector of another
// dimensionality, are left out. Ties keep candidate order. Scores are rounded to
// three decimals after sorting and truncation.
func Rank(query []float32, candidates []Candidate, k int) ([]result.Scored, RankStats) {
	if k <= 0 {
		k = DefaultTopK
	}

	var stats RankStats
	scored := make([]result.Scored, 0, len(candidates))
	for _, c := range candidates {
		if len(c.Vector) == 0 {
			stats.SkippedEmpty++
			continue
		}
		var s float64
		if len(query) > 0 {
			if len(c.Vector) != len(query) {
				stats.SkippedDim++
				continue
			}
			s = vector.Cosine(query, c.Vector)
		}
		stats.Scored++
		scored = append(scored, result.New(c.Item, s))
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score() > scored[j].Score()
	})

	if len(scored) > k {
		scored = scored[:k]
	}
	for i := range scored {
		scored[i] = scored[i].WithScore(vector.Round(scored[i].Score(), scoreDigits))
	}
	return scored, stats
}
