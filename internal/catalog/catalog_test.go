// ABOUTME: Tests for catalog parsing, validation, and embedding.
// ABOUTME: Uses an in-memory embedder so order and fallback tagging are checkable.
package catalog

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389-research/vibematch/internal/embeddings"
	"github.com/2389-research/vibematch/internal/models"
)

const sampleJSON = `[
  {"name": "Boho Dress", "desc": "Flowy, earthy tones for festival vibes", "vibes": ["boho", "cozy"]},
  {"name": "Urban Bomber", "desc": "Sleek black bomber jacket for city nights", "vibes": ["urban", "edgy"]}
]`

// lengthEmbedder encodes the text length so tests can map vectors back to products.
type lengthEmbedder struct {
	mu       sync.Mutex
	fallback map[string]bool
}

func (e *lengthEmbedder) Embed(_ context.Context, text string) embeddings.Vector {
	e.mu.Lock()
	defer e.mu.Unlock()
	return embeddings.Vector{Values: []float32{float32(len(text)), 1}, Fallback: e.fallback[text]}
}

func (e *lengthEmbedder) Dimension() int { return 2 }

func TestParseJSON(t *testing.T) {
	products, err := Parse([]byte(sampleJSON), ".json")
	require.NoError(t, err)
	require.Len(t, products, 2)

	assert.Equal(t, "Boho Dress", products[0].Name)
	assert.Equal(t, []string{"boho", "cozy"}, products[0].Vibes)
	assert.Equal(t, "Urban Bomber", products[1].Name)
}

func TestParseYAML(t *testing.T) {
	data := `
- name: Cozy Knit
  desc: Chunky knit sweater for quiet evenings
  vibes: [cozy, calm]
- name: Power Blazer
  desc: Tailored blazer with sharp lines
`
	products, err := Parse([]byte(data), ".yml")
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "Power Blazer", products[1].Name)
	assert.NotNil(t, products[1].Vibes)
	assert.Empty(t, products[1].Vibes)
}

func TestParseValidation(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr error
		msg     string
	}{
		{"empty list", `[]`, ErrEmptyCatalog, ""},
		{"missing desc", `[{"name": "A", "vibes": []}]`, ErrInvalidProduct, "no desc"},
		{"blank desc", `[{"name": "A", "desc": "   "}]`, ErrInvalidProduct, "no desc"},
		{"missing name", `[{"desc": "something"}]`, ErrInvalidProduct, "record 0"},
		{"second record bad", `[{"name": "A", "desc": "d"}, {"name": ""}]`, ErrInvalidProduct, "record 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data), ".json")
			require.ErrorIs(t, err, tt.wantErr)
			if tt.msg != "" {
				assert.Contains(t, err.Error(), tt.msg)
			}
		})
	}
}

func TestParseMalformed(t *testing.T) {
	_, err := Parse([]byte(`{"name": "not a list"}`), ".json")
	assert.Error(t, err)

	_, err = Parse([]byte(`[]`), ".csv")
	assert.ErrorContains(t, err, "unsupported")
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleJSON), 0644))

	products, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, products, 2)

	_, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestLoadBundledCatalog(t *testing.T) {
	products, err := Load(filepath.Join("..", "..", "data", "products.json"))
	require.NoError(t, err)
	assert.NotEmpty(t, products)
	for _, p := range products {
		assert.NotEmpty(t, strings.TrimSpace(p.Desc), p.Name)
	}
}

func TestEmbedPreservesOrder(t *testing.T) {
	products := []models.Product{
		{Name: "a", Desc: "x"},
		{Name: "b", Desc: "xxx"},
		{Name: "c", Desc: "xxxxxxx"},
		{Name: "d", Desc: "xx"},
	}
	emb := &lengthEmbedder{fallback: map[string]bool{"xxx": true}}

	for _, workers := range []int{0, 1, 4} {
		out, stats, err := Embed(context.Background(), emb, products, workers)
		require.NoError(t, err)
		require.Len(t, out, 4)
		for i, p := range out {
			assert.Equal(t, products[i].Name, p.Name)
			assert.Equal(t, float32(len(products[i].Desc)), p.Embedding[0])
		}
		assert.True(t, out[1].Fallback)
		assert.Equal(t, Stats{Live: 3, Fallback: 1}, stats)
	}

	// Input slice is untouched.
	assert.Nil(t, products[0].Embedding)
}

func TestEmbedCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := Embed(ctx, &lengthEmbedder{}, []models.Product{{Name: "a", Desc: "x"}}, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

// cancellingEmbedder cancels its context mid-call and answers with a placeholder,
// the way FallbackEmbedder does when its retry delay is interrupted.
type cancellingEmbedder struct {
	cancel context.CancelFunc
}

func (c *cancellingEmbedder) Embed(_ context.Context, _ string) embeddings.Vector {
	c.cancel()
	return embeddings.Vector{Values: []float32{0.5, 0.5}, Fallback: true}
}

func (c *cancellingEmbedder) Dimension() int { return 2 }

func TestEmbedCancelledDuringCall(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	products, stats, err := Embed(ctx, &cancellingEmbedder{cancel: cancel}, []models.Product{{Name: "a", Desc: "x"}}, 1)
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, products)
	assert.Zero(t, stats)
}
