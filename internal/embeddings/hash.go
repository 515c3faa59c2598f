// ABOUTME: Offline bag-of-words hashing embedder.
// ABOUTME: Deterministic and credential-free; shared words produce overlapping vectors.
package embeddings

import (
	"context"
	"hash/fnv"
	"strings"
)

var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "the": {}, "for": {}, "with": {}, "of": {},
	"or": {}, "to": {}, "in": {}, "on": {}, "at": {}, "is": {}, "it": {},
}

// HashProvider maps words into buckets with FNV-1a and L2-normalizes the counts.
type HashProvider struct {
	dimension int
}

// NewHashProvider creates a hashing provider of the given dimension.
func NewHashProvider(dimension int) *HashProvider {
	if dimension <= 0 {
		dimension = 768
	}
	return &HashProvider{dimension: dimension}
}

// Name implements Provider.
func (h *HashProvider) Name() string { return "hash" }

// Dimension implements Provider.
func (h *HashProvider) Dimension() int { return h.dimension }

// Embed implements Provider. Text without content words yields a zero vector.
func (h *HashProvider) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, h.dimension)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.Trim(w, ".,!?;:'\"()-")
		if w == "" {
			continue
		}
		if _, ok := stopWords[w]; ok {
			continue
		}
		f := fnv.New32a()
		_, _ = f.Write([]byte(w))
		vec[f.Sum32()%uint32(h.dimension)]++
	}
	Normalize(vec)
	return vec, nil
}
