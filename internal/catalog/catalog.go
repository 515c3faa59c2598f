// ABOUTME: Product catalog loading with schema validation at the load boundary.
// ABOUTME: Reads JSON or YAML records and embeds each description once per run.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/2389-research/vibematch/internal/embeddings"
	"github.com/2389-research/vibematch/internal/models"
)

var (
	// ErrEmptyCatalog means the catalog file holds no records.
	ErrEmptyCatalog = errors.New("catalog has no products")
	// ErrInvalidProduct means a record is missing a required field.
	ErrInvalidProduct = errors.New("invalid product record")
)

// record is the on-disk shape of one product.
type record struct {
	Name  *string  `json:"name" yaml:"name"`
	Desc  *string  `json:"desc" yaml:"desc"`
	Vibes []string `json:"vibes" yaml:"vibes"`
}

// Load reads and validates the catalog at path. The format follows the extension.
func Load(path string) ([]models.Product, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return Parse(data, filepath.Ext(path))
}

// Parse decodes catalog bytes. ext is ".json", ".yaml", or ".yml".
func Parse(data []byte, ext string) ([]models.Product, error) {
	var records []record
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("failed to parse catalog yaml: %w", err)
		}
	case ".json", "":
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("failed to parse catalog json: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported catalog format %q", ext)
	}
	return validate(records)
}

func validate(records []record) ([]models.Product, error) {
	if len(records) == 0 {
		return nil, ErrEmptyCatalog
	}

	products := make([]models.Product, 0, len(records))
	for i, r := range records {
		if r.Name == nil || strings.TrimSpace(*r.Name) == "" {
			return nil, fmt.Errorf("%w: record %d has no name", ErrInvalidProduct, i)
		}
		if r.Desc == nil || strings.TrimSpace(*r.Desc) == "" {
			return nil, fmt.Errorf("%w: record %d (%s) has no desc", ErrInvalidProduct, i, *r.Name)
		}
		vibes := r.Vibes
		if vibes == nil {
			vibes = []string{}
		}
		products = append(products, models.Product{
			Name:  strings.TrimSpace(*r.Name),
			Desc:  strings.TrimSpace(*r.Desc),
			Vibes: vibes,
		})
	}
	return products, nil
}

// Stats counts how catalog vectors were produced.
type Stats struct {
	Live     int
	Fallback int
}

// Embed returns a copy of products with every description embedded, in catalog order.
// workers > 1 embeds concurrently; results are identical either way.
func Embed(ctx context.Context, embedder embeddings.Embedder, products []models.Product, workers int) ([]models.Product, Stats, error) {
	out := make([]models.Product, len(products))
	copy(out, products)

	if workers < 1 {
		workers = 1
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range out {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			v := embedder.Embed(ctx, out[i].Desc)
			// A placeholder returned because the run was cancelled is not a result.
			if err := ctx.Err(); err != nil {
				return err
			}
			out[i].Embedding = v.Values
			out[i].Fallback = v.Fallback
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, Stats{}, fmt.Errorf("catalog embedding interrupted: %w", err)
	}

	var stats Stats
	for _, p := range out {
		if p.Fallback {
			stats.Fallback++
		} else {
			stats.Live++
		}
	}
	return out, stats, nil
}
