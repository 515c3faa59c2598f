// ABOUTME: SQLite-backed run history using the pure-Go modernc driver.
// ABOUTME: Creates the database directory and applies embedded migrations on open.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/2389-research/vibematch/internal/storage/migrations"
)

// NewSQLiteRunStore opens (or creates) a SQLite history database at path.
func NewSQLiteRunStore(path string) (RunStore, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer keeps SQLite from returning SQLITE_BUSY inside transactions.
	db.SetMaxOpenConns(1)

	if err := migrate(context.Background(), db, migrations.SQLite, "sqlite", dialectSQLite); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &sqlRunStore{db: db, dialect: dialectSQLite}, nil
}
