// Package vector holds the embedding vector value helpers: the text codec used to store
// vectors in string columns/fields and the similarity math used by ranking.
package vector

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// Encode serializes v as a JSON array. Each float32 is written with the shortest
// representation that parses back to the same float32, so Decode(Encode(v)) is exact.
func Encode(v []float32) (string, error) {
	if v == nil {
		v = []float32{}
	}
	for i, f := range v {
		if math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) {
			return "", fmt.Errorf("encode vector: non-finite value at %d", i)
		}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode vector: %w", err)
	}
	return string(data), nil
}

// Decode parses a stored vector. Absent values ("" or "null") yield an empty vector.
func Decode(s string) ([]float32, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "null" {
		return []float32{}, nil
	}
	var v []float32
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, fmt.Errorf("decode vector: %w", err)
	}
	if v == nil {
		v = []float32{}
	}
	return v, nil
}

// Norm returns the Euclidean length of v.
func Norm(v []float32) float64 {
	var sum float64
	for _, f := range v {
		sum += float64(f) * float64(f)
	}
	return math.Sqrt(sum)
}

// Cosine returns the cosine similarity of a and b in [-1, 1].
// Zero-magnitude input yields 0. Lengths must match; the caller checks.
func Cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	s := dot / (math.Sqrt(na) * math.Sqrt(nb))
	// rounding can push |s| a hair past 1
	return math.Max(-1, math.Min(1, s))
}

// Round rounds f to the given number of decimal digits.
func Round(f float64, digits int) float64 {
	p := math.Pow(10, float64(digits))
	return math.Round(f*p) / p
}
