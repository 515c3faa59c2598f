// ABOUTME: Core data models for products, match results, and evaluation runs.
// ABOUTME: Provides status classification and run summary helpers for vibematch.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Product is a catalog item. Identity is its position in the catalog.
type Product struct {
	Name      string    `json:"name" yaml:"name"`
	Desc      string    `json:"desc" yaml:"desc"`
	Vibes     []string  `json:"vibes" yaml:"vibes"`
	Embedding []float32 `json:"-" yaml:"-"`
	// Fallback is true when Embedding is a random placeholder, not a provider vector.
	Fallback bool `json:"-" yaml:"-"`
}

// MatchResult pairs a catalog product with its similarity to a query.
type MatchResult struct {
	Product  Product
	Index    int // position in the catalog
	SimScore float64
	Fallback bool // query or product vector was a placeholder
}

// Status grades a match score against the similarity threshold.
type Status string

const (
	StatusGood       Status = "Good"
	StatusAcceptable Status = "Acceptable"
)

// ClassifyScore returns Good when score reaches threshold, Acceptable otherwise.
func ClassifyScore(score, threshold float64) Status {
	if score >= threshold {
		return StatusGood
	}
	return StatusAcceptable
}

// LatencyRecord is the wall time of one matcher call.
type LatencyRecord struct {
	Query   string  `json:"query"`
	Latency float64 `json:"latency"` // seconds
}

// LogRecord is one returned match from an evaluation run.
type LogRecord struct {
	QueryID  int     `json:"query_id"`
	Query    string  `json:"query"`
	Product  string  `json:"product"`
	SimScore float64 `json:"sim_score"`
	Status   Status  `json:"status"`
	Fallback bool    `json:"fallback"`
}

// EvalRun is a complete evaluation pass over a query list.
type EvalRun struct {
	ID         uuid.UUID
	StartedAt  time.Time
	Provider   string
	Model      string
	Live       bool // false when any vector in the run was a placeholder
	QueryCount int
	Latencies  []LatencyRecord
	Logs       []LogRecord
}

// NewEvalRun creates an evaluation run with generated UUID and timestamp.
func NewEvalRun(provider, model string) *EvalRun {
	return &EvalRun{
		ID:        uuid.New(),
		StartedAt: time.Now(),
		Provider:  provider,
		Model:     model,
		Live:      true,
	}
}

// MeanLatency returns the average query latency in seconds.
func (r *EvalRun) MeanLatency() float64 {
	if len(r.Latencies) == 0 {
		return 0
	}
	var total float64
	for _, l := range r.Latencies {
		total += l.Latency
	}
	return total / float64(len(r.Latencies))
}

// GoodCount returns how many logged matches were graded Good.
func (r *EvalRun) GoodCount() int {
	n := 0
	for _, l := range r.Logs {
		if l.Status == StatusGood {
			n++
		}
	}
	return n
}

// MatchedQueries returns how many distinct queries produced at least one match.
func (r *EvalRun) MatchedQueries() int {
	seen := make(map[int]struct{})
	for _, l := range r.Logs {
		seen[l.QueryID] = struct{}{}
	}
	return len(seen)
}
