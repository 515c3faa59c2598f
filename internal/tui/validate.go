// ABOUTME: Embedding provider validation for the setup wizard.
// ABOUTME: Builds the chosen provider and embeds a short probe text.
package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/2389-research/vibematch/internal/config"
	"github.com/2389-research/vibematch/internal/embeddings"
)

const probeText = "casual weekend outfit"

// ValidateProvider checks that cfg yields a working provider by embedding a probe text.
// The context allows cancellation when the user quits during validation.
func ValidateProvider(ctx context.Context, cfg config.EmbeddingConfig) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	provider, err := embeddings.NewProvider(cfg)
	if err != nil {
		return err
	}

	vec, err := provider.Embed(ctx, probeText)
	if err != nil {
		return fmt.Errorf("probe embedding failed: %w", err)
	}
	if len(vec) == 0 {
		return embeddings.ErrEmptyEmbedding
	}
	if want := provider.Dimension(); want > 0 && len(vec) != want {
		return fmt.Errorf("provider returned %d dimensions, expected %d", len(vec), want)
	}
	return nil
}
