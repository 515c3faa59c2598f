// ABOUTME: Vibe matcher ranking catalog products by cosine similarity to a query.
// ABOUTME: Returns the top-K products or an empty result when the best score misses the threshold.
package matcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/2389-research/vibematch/internal/embeddings"
	"github.com/2389-research/vibematch/internal/models"
)

var (
	// ErrDimensionMismatch means a product vector and the query vector differ in length.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	// ErrInvalidTopK means TopK was below 1.
	ErrInvalidTopK = errors.New("top_k must be at least 1")
)

// Options configures a single match call.
type Options struct {
	TopK     int
	MinScore float64
}

// DefaultOptions returns top-3 with a 0.7 minimum score.
func DefaultOptions() Options {
	return Options{TopK: 3, MinScore: 0.7}
}

// Result is the ranked outcome of one query. No matches means no product cleared MinScore.
type Result struct {
	Query         string
	Matches       []models.MatchResult
	BestScore     float64
	QueryFallback bool
}

// NoMatch reports whether the query fell through to the no-match path.
func (r *Result) NoMatch() bool {
	return len(r.Matches) == 0
}

// Fallback reports whether any score in the result came from a placeholder vector.
func (r *Result) Fallback() bool {
	if r.QueryFallback {
		return true
	}
	for _, m := range r.Matches {
		if m.Fallback {
			return true
		}
	}
	return false
}

// Matcher embeds queries and ranks them against an embedded catalog.
type Matcher struct {
	embedder embeddings.Embedder
	logger   *slog.Logger
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithLogger sets the logger used for no-match diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(m *Matcher) {
		m.logger = l
	}
}

// New creates a matcher around embedder.
func New(embedder embeddings.Embedder, opts ...Option) *Matcher {
	m := &Matcher{embedder: embedder}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	return m
}

// Match embeds query and ranks catalog against it.
func (m *Matcher) Match(ctx context.Context, query string, catalog []models.Product, opts Options) (*Result, error) {
	if opts.TopK < 1 {
		return nil, fmt.Errorf("%w, got %d", ErrInvalidTopK, opts.TopK)
	}

	qv := m.embedder.Embed(ctx, query)
	res, err := Rank(qv, catalog, opts)
	if err != nil {
		return nil, err
	}
	res.Query = query

	if res.NoMatch() {
		m.logger.Debug("no product cleared the minimum score",
			"query", query,
			"best_score", res.BestScore,
			"min_score", opts.MinScore,
		)
	}
	return res, nil
}

// Rank scores every product against qv, sorts descending with catalog order breaking ties,
// and applies the MinScore gate and TopK cut.
func Rank(qv embeddings.Vector, catalog []models.Product, opts Options) (*Result, error) {
	if opts.TopK < 1 {
		return nil, fmt.Errorf("%w, got %d", ErrInvalidTopK, opts.TopK)
	}

	scored := make([]models.MatchResult, 0, len(catalog))
	for i, p := range catalog {
		if len(p.Embedding) != len(qv.Values) {
			return nil, fmt.Errorf("%w: product %d (%s) has %d dimensions, query has %d",
				ErrDimensionMismatch, i, p.Name, len(p.Embedding), len(qv.Values))
		}
		scored = append(scored, models.MatchResult{
			Product:  p,
			Index:    i,
			SimScore: embeddings.CosineSimilarity(qv.Values, p.Embedding),
			Fallback: qv.Fallback || p.Fallback,
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].SimScore > scored[j].SimScore
	})

	res := &Result{QueryFallback: qv.Fallback}
	if len(scored) == 0 {
		return res, nil
	}
	res.BestScore = scored[0].SimScore
	if res.BestScore < opts.MinScore {
		return res, nil
	}

	limit := opts.TopK
	if limit > len(scored) {
		limit = len(scored)
	}
	res.Matches = scored[:limit]
	return res, nil
}
