// ABOUTME: Shared command plumbing for building the embedder and embedding the catalog.
// ABOUTME: Missing credentials degrade to mock vectors; other provider errors are fatal.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/2389-research/vibematch/internal/catalog"
	"github.com/2389-research/vibematch/internal/config"
	"github.com/2389-research/vibematch/internal/embeddings"
	"github.com/2389-research/vibematch/internal/matcher"
	"github.com/2389-research/vibematch/internal/models"
)

// Per-command overrides of the match section of the config.
var (
	catalogFlag  string
	topKFlag     int
	minScoreFlag float64
)

func addMatchFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&catalogFlag, "catalog", "", "Catalog file (.json or .yaml); overrides catalog.path")
	cmd.Flags().IntVar(&topKFlag, "top-k", config.DefaultTopK, "Maximum number of products per query; overrides match.top_k")
	cmd.Flags().Float64Var(&minScoreFlag, "min-score", config.DefaultMinScore, "Best score required to return any match; overrides match.min_score")
}

// matchOptions merges explicitly set flags over the config.
func matchOptions(cmd *cobra.Command, cfg *config.Config) matcher.Options {
	opts := matcher.Options{TopK: cfg.Match.TopK, MinScore: cfg.Match.MinScore}
	if cmd.Flags().Changed("top-k") {
		opts.TopK = topKFlag
	}
	if cmd.Flags().Changed("min-score") {
		opts.MinScore = minScoreFlag
	}
	return opts
}

func catalogPath(cfg *config.Config) (string, error) {
	if catalogFlag != "" {
		return config.ExpandPath(catalogFlag)
	}
	return cfg.GetCatalogPath()
}

// newEmbedder wraps the configured provider in a FallbackEmbedder.
func newEmbedder(cfg *config.Config, logger *slog.Logger) (*embeddings.FallbackEmbedder, error) {
	provider, err := embeddings.NewProvider(cfg.Embedding)
	if err != nil {
		if !errors.Is(err, embeddings.ErrMissingCredentials) {
			return nil, err
		}
		logger.Warn("embedding credentials missing", "provider", cfg.Embedding.Provider, "error", err)
		provider = nil
	}
	return embeddings.NewFallbackEmbedder(provider,
		embeddings.WithDimension(cfg.Embedding.Dimension),
		embeddings.WithDelay(cfg.Embedding.FallbackDelay),
		embeddings.WithLogger(logger),
	), nil
}

// loadEmbeddedCatalog loads the catalog and embeds every product description.
func loadEmbeddedCatalog(ctx context.Context, w io.Writer, path string, embedder embeddings.Embedder, workers int) ([]models.Product, error) {
	products, err := catalog.Load(path)
	if err != nil {
		return nil, err
	}

	_, _ = fmt.Fprintf(w, "Embedding %d products from %s...\n", len(products), path)
	embedded, stats, err := catalog.Embed(ctx, embedder, products, workers)
	if err != nil {
		return nil, err
	}
	if stats.Fallback > 0 {
		_, _ = fmt.Fprintln(w, warnStyle.Render(fmt.Sprintf("%d of %d product vectors are random placeholders.", stats.Fallback, len(embedded))))
	}
	return embedded, nil
}
