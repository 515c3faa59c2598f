// ABOUTME: Embedded schema migrations for the run history stores.
// ABOUTME: One directory of ordered .sql files per database engine.
package migrations

import "embed"

//go:embed sqlite/*.sql
var SQLite embed.FS

//go:embed postgres/*.sql
var Postgres embed.FS
