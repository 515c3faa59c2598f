// ABOUTME: Tests for the SQL run history stores.
// ABOUTME: Runs against SQLite in a temp dir, and PostgreSQL when VIBEMATCH_TEST_POSTGRES_DSN is set.
package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389-research/vibematch/internal/models"
)

func newTestRun(startedAt time.Time) *models.EvalRun {
	run := models.NewEvalRun("hash", "fnv-bow")
	run.StartedAt = startedAt
	run.QueryCount = 2
	run.Latencies = []models.LatencyRecord{
		{Query: "energetic urban chic", Latency: 0.12},
		{Query: "wild glitter", Latency: 0.08},
	}
	run.Logs = []models.LogRecord{
		{QueryID: 1, Query: "energetic urban chic", Product: "Urban Bomber Jacket", SimScore: 0.83, Status: models.StatusGood},
		{QueryID: 1, Query: "energetic urban chic", Product: "Neon Running Sneakers", SimScore: 0.71, Status: models.StatusGood},
		{QueryID: 1, Query: "energetic urban chic", Product: "Pinstripe Trousers", SimScore: 0.42, Status: models.StatusAcceptable, Fallback: true},
	}
	return run
}

func openSQLite(t *testing.T) RunStore {
	t.Helper()
	store, err := NewRunStore(filepath.Join(t.TempDir(), "nested", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func storeBackends(t *testing.T) map[string]func(t *testing.T) RunStore {
	backends := map[string]func(t *testing.T) RunStore{"sqlite": openSQLite}
	if dsn := os.Getenv("VIBEMATCH_TEST_POSTGRES_DSN"); dsn != "" {
		backends["postgres"] = func(t *testing.T) RunStore {
			store, err := NewRunStore(dsn)
			require.NoError(t, err)
			t.Cleanup(func() { _ = store.Close() })
			return store
		}
	}
	return backends
}

func TestSaveAndGetRun(t *testing.T) {
	for name, open := range storeBackends(t) {
		t.Run(name, func(t *testing.T) {
			store := open(t)
			ctx := context.Background()
			run := newTestRun(time.Now())

			require.NoError(t, store.SaveRun(ctx, run))

			got, err := store.GetRun(ctx, run.ID)
			require.NoError(t, err)
			assert.Equal(t, run.ID, got.ID)
			assert.Equal(t, run.StartedAt.UnixNano(), got.StartedAt.UnixNano())
			assert.Equal(t, "hash", got.Provider)
			assert.Equal(t, "fnv-bow", got.Model)
			assert.True(t, got.Live)
			assert.Equal(t, 2, got.QueryCount)
			assert.Equal(t, run.Latencies, got.Latencies)
			assert.Equal(t, run.Logs, got.Logs)
		})
	}
}

func TestGetRunNotFound(t *testing.T) {
	for name, open := range storeBackends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := open(t).GetRun(context.Background(), uuid.New())
			assert.ErrorIs(t, err, ErrRunNotFound)
		})
	}
}

func TestListRunsNewestFirst(t *testing.T) {
	store := openSQLite(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	older := newTestRun(base)
	newer := newTestRun(base.Add(time.Hour))
	newer.Live = false
	newer.Logs = nil
	require.NoError(t, store.SaveRun(ctx, older))
	require.NoError(t, store.SaveRun(ctx, newer))

	runs, err := store.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, newer.ID, runs[0].ID)
	assert.False(t, runs[0].Live)
	assert.Equal(t, 0, runs[0].MatchedQueries)

	assert.Equal(t, older.ID, runs[1].ID)
	assert.Equal(t, 1, runs[1].MatchedQueries)
	assert.Equal(t, 2, runs[1].GoodCount)
	assert.InDelta(t, 0.10, runs[1].MeanLatency, 1e-9)

	limited, err := store.ListRuns(ctx, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, newer.ID, limited[0].ID)
}

func TestSaveRunDuplicateIDFails(t *testing.T) {
	store := openSQLite(t)
	ctx := context.Background()
	run := newTestRun(time.Now())

	require.NoError(t, store.SaveRun(ctx, run))
	require.Error(t, store.SaveRun(ctx, run))

	// The failed insert must not leave partial records behind.
	got, err := store.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Len(t, got.Logs, 3)
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	first, err := NewSQLiteRunStore(path)
	require.NoError(t, err)
	run := newTestRun(time.Now())
	require.NoError(t, first.SaveRun(context.Background(), run))
	require.NoError(t, first.Close())

	second, err := NewSQLiteRunStore(path)
	require.NoError(t, err)
	defer func() { _ = second.Close() }()

	runs, err := second.ListRuns(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, run.ID, runs[0].ID)
}

func TestIsPostgresDSN(t *testing.T) {
	assert.True(t, IsPostgresDSN("postgres://u@localhost/db"))
	assert.True(t, IsPostgresDSN("postgresql://u@localhost/db"))
	assert.False(t, IsPostgresDSN("/var/lib/vibematch/history.db"))
	assert.False(t, IsPostgresDSN(""))
}

func TestRebind(t *testing.T) {
	pg := &sqlRunStore{dialect: dialectPostgres}
	assert.Equal(t, "SELECT * FROM runs WHERE id = $1 AND live = $2", pg.rebind("SELECT * FROM runs WHERE id = ? AND live = ?"))

	lite := &sqlRunStore{dialect: dialectSQLite}
	assert.Equal(t, "id = ?", lite.rebind("id = ?"))
}
