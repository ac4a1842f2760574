package embedding

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"unicode"

	"github.com/kailas-cloud/lostfound/internal/domain"
	"github.com/kailas-cloud/lostfound/internal/domain/vector"
)

// HashingVersion identifies the feature layout. Vectors from different versions are not comparable.
const HashingVersion = "hashing-v1"

// DefaultHashingDimensions is the vector size used when config leaves it unset.
const DefaultHashingDimensions = 384

const (
	wordWeight    = 1.0
	trigramWeight = 0.5
)

var stopwords = []string{
	"a", "an", "and", "are", "as", "at", "be", "by", "for", "from", "has", "have",
	"i", "in", "is", "it", "its", "my", "near", "of", "on", "or", "that", "the",
	"this", "to", "was", "were", "with",
}

// HashingEmbedder is an in-process embedder based on signed feature hashing of word
// unigrams and character trigrams. It needs no network and is fully deterministic.
type HashingEmbedder struct {
	dimensions int
	stop       map[string]struct{}
}

// NewHashingEmbedder builds the feature tables.
func NewHashingEmbedder(dimensions int) (*HashingEmbedder, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("hashing embedder: dimensions must be positive, got %d", dimensions)
	}
	stop := make(map[string]struct{}, len(stopwords))
	for _, w := range stopwords {
		stop[w] = struct{}{}
	}
	return &HashingEmbedder{dimensions: dimensions, stop: stop}, nil
}

// Embed implements domain.Embedder. Text without usable tokens yields the zero vector.
func (e *HashingEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	vec := make([]float64, e.dimensions)
	tokens := e.tokenize(text)
	for _, tok := range tokens {
		e.add(vec, "w:"+tok, wordWeight)
		padded := "#" + tok + "#"
		runes := []rune(padded)
		for i := 0; i+3 <= len(runes); i++ {
			e.add(vec, "t:"+string(runes[i:i+3]), trigramWeight)
		}
	}

	out := make([]float32, e.dimensions)
	for i, v := range vec {
		out[i] = float32(v)
	}
	if norm := vector.Norm(out); norm > 0 {
		for i := range out {
			out[i] = float32(float64(out[i]) / norm)
		}
	}
	return domain.EmbeddingResult{
		Embedding:    out,
		PromptTokens: len(tokens),
		TotalTokens:  len(tokens),
	}, nil
}

func (e *HashingEmbedder) tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := fields[:0]
	for _, f := range fields {
		if _, ok := e.stop[f]; ok {
			continue
		}
		out = append(out, f)
	}
	return out
}

// add hashes a feature into a bucket with a hash-derived sign.
func (e *HashingEmbedder) add(vec []float64, feature string, weight float64) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(feature))
	sum := h.Sum64()
	idx := int(sum % uint64(e.dimensions))
	if sum>>63 == 1 {
		weight = -weight
	}
	vec[idx] += weight
}
