// ABOUTME: PostgreSQL-backed run history via the pgx database/sql driver.
// ABOUTME: Pings the server and applies embedded migrations on open.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/2389-research/vibematch/internal/storage/migrations"
)

// NewPostgresRunStore connects to the PostgreSQL database named by dsn.
func NewPostgresRunStore(dsn string) (RunStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := migrate(ctx, db, migrations.Postgres, "postgres", dialectPostgres); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &sqlRunStore{db: db, dialect: dialectPostgres}, nil
}
