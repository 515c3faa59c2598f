// ABOUTME: Evaluation driver running a fixed query list through the matcher.
// ABOUTME: Records per-query latency and per-match log records graded Good or Acceptable.
package eval

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/2389-research/vibematch/internal/matcher"
	"github.com/2389-research/vibematch/internal/models"
)

// DefaultQueries is the standard evaluation set. The last query has no thematic match.
var DefaultQueries = []string{
	"energetic urban chic",
	"professional and sharp look",
	"something quiet and cozy for home",
	"extremely wild purple glitter party outfit with wings and horns",
}

// NoMatchSuggestion is shown when a query falls through to the no-match path.
const NoMatchSuggestion = "Try a more general query like 'casual' or 'formal'."

// ErrNoQueries means the query list was empty.
var ErrNoQueries = errors.New("no queries to evaluate")

// Outcome is the result of one evaluated query.
type Outcome struct {
	QueryID int // 1-based
	Query   string
	Result  *matcher.Result
	Latency time.Duration
}

// Runner evaluates queries against one embedded catalog.
type Runner struct {
	matcher   *matcher.Matcher
	catalog   []models.Product
	opts      matcher.Options
	threshold float64
	provider  string
	model     string
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithProvider records which embedding provider and model produced the vectors.
func WithProvider(provider, model string) RunnerOption {
	return func(r *Runner) {
		r.provider = provider
		r.model = model
	}
}

// WithThreshold sets the score at or above which a match is graded Good.
func WithThreshold(threshold float64) RunnerOption {
	return func(r *Runner) {
		r.threshold = threshold
	}
}

// NewRunner creates a runner. The Good threshold defaults to opts.MinScore.
func NewRunner(m *matcher.Matcher, catalog []models.Product, opts matcher.Options, ropts ...RunnerOption) *Runner {
	r := &Runner{
		matcher:   m,
		catalog:   catalog,
		opts:      opts,
		threshold: opts.MinScore,
	}
	for _, o := range ropts {
		o(r)
	}
	return r
}

// Run evaluates each query in order. observe, if non-nil, sees every outcome as it completes.
func (r *Runner) Run(ctx context.Context, queries []string, observe func(Outcome)) (*models.EvalRun, error) {
	if len(queries) == 0 {
		return nil, ErrNoQueries
	}

	run := models.NewEvalRun(r.provider, r.model)
	run.QueryCount = len(queries)
	for _, p := range r.catalog {
		if p.Fallback {
			run.Live = false
			break
		}
	}

	for i, query := range queries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		start := time.Now()
		res, err := r.matcher.Match(ctx, query, r.catalog, r.opts)
		latency := time.Since(start)
		if err != nil {
			return nil, fmt.Errorf("query %d (%q): %w", i+1, query, err)
		}

		run.Latencies = append(run.Latencies, models.LatencyRecord{
			Query:   query,
			Latency: latency.Seconds(),
		})
		if res.QueryFallback {
			run.Live = false
		}
		for _, m := range res.Matches {
			run.Logs = append(run.Logs, models.LogRecord{
				QueryID:  i + 1,
				Query:    query,
				Product:  m.Product.Name,
				SimScore: m.SimScore,
				Status:   models.ClassifyScore(m.SimScore, r.threshold),
				Fallback: m.Fallback,
			})
		}

		if observe != nil {
			observe(Outcome{QueryID: i + 1, Query: query, Result: res, Latency: latency})
		}
	}
	return run, nil
}

// LoadQueries reads one query per line, skipping blank lines and # comments.
func LoadQueries(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open queries: %w", err)
	}
	defer func() { _ = f.Close() }()

	var queries []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		queries = append(queries, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read queries: %w", err)
	}
	if len(queries) == 0 {
		return nil, ErrNoQueries
	}
	return queries, nil
}
