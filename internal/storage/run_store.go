// ABOUTME: Interface definition for evaluation run history storage.
// ABOUTME: Selects a SQLite or PostgreSQL backend from the configured DSN.
package storage

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/2389-research/vibematch/internal/models"
)

// ErrRunNotFound is returned when no run has the requested ID.
var ErrRunNotFound = errors.New("run not found")

// RunSummary is the list view of a stored evaluation run.
type RunSummary struct {
	ID             uuid.UUID
	StartedAt      time.Time
	Provider       string
	Model          string
	Live           bool
	QueryCount     int
	MatchedQueries int
	GoodCount      int
	MeanLatency    float64
}

// RunStore defines operations for evaluation run persistence.
type RunStore interface {
	// SaveRun persists a run with its latency and log records.
	SaveRun(ctx context.Context, run *models.EvalRun) error

	// ListRuns returns run summaries, newest first. limit <= 0 returns all runs.
	ListRuns(ctx context.Context, limit int) ([]RunSummary, error)

	// GetRun loads one run with its records in their original order.
	GetRun(ctx context.Context, id uuid.UUID) (*models.EvalRun, error)

	// Close releases any resources held by the store.
	Close() error
}

// NewRunStore opens the history store for dsn. postgres:// and postgresql://
// DSNs use PostgreSQL; anything else is a SQLite file path.
func NewRunStore(dsn string) (RunStore, error) {
	if IsPostgresDSN(dsn) {
		return NewPostgresRunStore(dsn)
	}
	return NewSQLiteRunStore(dsn)
}

// IsPostgresDSN reports whether dsn names a PostgreSQL database.
func IsPostgresDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}
