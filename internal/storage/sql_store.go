// ABOUTME: database/sql implementation of RunStore shared by SQLite and PostgreSQL.
// ABOUTME: Applies embedded migrations once and rebinds placeholders per dialect.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/2389-research/vibematch/internal/models"
)

type dialect int

const (
	dialectSQLite dialect = iota
	dialectPostgres
)

// sqlRunStore persists runs through database/sql.
type sqlRunStore struct {
	db      *sql.DB
	dialect dialect
}

// rebind rewrites ? placeholders to $N for PostgreSQL.
func (s *sqlRunStore) rebind(query string) string {
	if s.dialect != dialectPostgres {
		return query
	}
	var sb strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// migrate applies every .sql file in dir not yet recorded in schema_migrations, in name order.
func migrate(ctx context.Context, db *sql.DB, fsys fs.FS, dir string, d dialect) error {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (name TEXT PRIMARY KEY)`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	names, err := fs.Glob(fsys, path.Join(dir, "*.sql"))
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(names)

	s := &sqlRunStore{dialect: d}
	for _, name := range names {
		base := path.Base(name)
		var applied int
		if err := db.QueryRowContext(ctx, s.rebind(`SELECT COUNT(*) FROM schema_migrations WHERE name = ?`), base).Scan(&applied); err != nil {
			return fmt.Errorf("check migration %s: %w", base, err)
		}
		if applied > 0 {
			continue
		}

		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", base, err)
		}
		if _, err := db.ExecContext(ctx, string(data)); err != nil {
			return fmt.Errorf("exec migration %s: %w", base, err)
		}
		if _, err := db.ExecContext(ctx, s.rebind(`INSERT INTO schema_migrations (name) VALUES (?)`), base); err != nil {
			return fmt.Errorf("record migration %s: %w", base, err)
		}
	}
	return nil
}

func (s *sqlRunStore) SaveRun(ctx context.Context, run *models.EvalRun) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, s.rebind(`
		INSERT INTO runs (
			id, started_at, provider, model, live,
			query_count, matched_count, good_count, mean_latency
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		run.ID.String(), run.StartedAt.UnixNano(), run.Provider, run.Model, run.Live,
		run.QueryCount, run.MatchedQueries(), run.GoodCount(), run.MeanLatency(),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	latencyStmt := s.rebind(`INSERT INTO run_latencies (run_id, seq, query, latency) VALUES (?, ?, ?, ?)`)
	for i, l := range run.Latencies {
		if _, err := tx.ExecContext(ctx, latencyStmt, run.ID.String(), i, l.Query, l.Latency); err != nil {
			return fmt.Errorf("insert latency: %w", err)
		}
	}

	logStmt := s.rebind(`
		INSERT INTO run_logs (run_id, seq, query_id, query, product, sim_score, status, fallback)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	for i, l := range run.Logs {
		if _, err := tx.ExecContext(ctx, logStmt,
			run.ID.String(), i, l.QueryID, l.Query, l.Product, l.SimScore, string(l.Status), l.Fallback,
		); err != nil {
			return fmt.Errorf("insert log: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}
	return nil
}

const summaryColumns = `id, started_at, provider, model, live, query_count, matched_count, good_count, mean_latency`

func scanSummary(sc interface{ Scan(...any) error }) (RunSummary, error) {
	var r RunSummary
	var startedAt int64
	err := sc.Scan(&r.ID, &startedAt, &r.Provider, &r.Model, &r.Live,
		&r.QueryCount, &r.MatchedQueries, &r.GoodCount, &r.MeanLatency)
	r.StartedAt = time.Unix(0, startedAt)
	return r, err
}

func (s *sqlRunStore) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	query := `SELECT ` + summaryColumns + ` FROM runs ORDER BY started_at DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []RunSummary
	for rows.Next() {
		r, err := scanSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func (s *sqlRunStore) GetRun(ctx context.Context, id uuid.UUID) (*models.EvalRun, error) {
	sum, err := scanSummary(s.db.QueryRowContext(ctx,
		s.rebind(`SELECT `+summaryColumns+` FROM runs WHERE id = ?`), id.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query run: %w", err)
	}

	run := &models.EvalRun{
		ID:         sum.ID,
		StartedAt:  sum.StartedAt,
		Provider:   sum.Provider,
		Model:      sum.Model,
		Live:       sum.Live,
		QueryCount: sum.QueryCount,
	}

	rows, err := s.db.QueryContext(ctx,
		s.rebind(`SELECT query, latency FROM run_latencies WHERE run_id = ? ORDER BY seq`), id.String())
	if err != nil {
		return nil, fmt.Errorf("query latencies: %w", err)
	}
	for rows.Next() {
		var l models.LatencyRecord
		if err := rows.Scan(&l.Query, &l.Latency); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan latency: %w", err)
		}
		run.Latencies = append(run.Latencies, l)
	}
	_ = rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.db.QueryContext(ctx, s.rebind(`
		SELECT query_id, query, product, sim_score, status, fallback
		FROM run_logs WHERE run_id = ? ORDER BY seq`), id.String())
	if err != nil {
		return nil, fmt.Errorf("query logs: %w", err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var l models.LogRecord
		var status string
		if err := rows.Scan(&l.QueryID, &l.Query, &l.Product, &l.SimScore, &status, &l.Fallback); err != nil {
			return nil, fmt.Errorf("scan log: %w", err)
		}
		l.Status = models.Status(status)
		run.Logs = append(run.Logs, l)
	}
	return run, rows.Err()
}

func (s *sqlRunStore) Close() error {
	return s.db.Close()
}
