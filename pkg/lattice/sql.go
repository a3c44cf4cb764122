package lattice

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// sqliteBusyTimeoutMS is how long SQLite waits on a locked database before
// returning SQLITE_BUSY.
const sqliteBusyTimeoutMS = 10000

// openSqlite opens path and applies the pragmas the Lattice relies on,
// grounded on the teacher's internal/store.openSqlite.
func openSqlite(ctx context.Context, path string) (*sql.DB, error) {
	if path == "" {
		return nil, wrap(InvalidArgument, "open", fmt.Errorf("path is empty"))
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, wrap(StorageFailure, "open", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()

		return nil, wrap(StorageFailure, "open", fmt.Errorf("ping: %w", err))
	}

	if err := applyPragmas(ctx, db); err != nil {
		_ = db.Close()

		return nil, err
	}

	if err := ensureSchema(ctx, db); err != nil {
		_ = db.Close()

		return nil, err
	}

	return db, nil
}

func applyPragmas(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, fmt.Sprintf(`
		PRAGMA busy_timeout = %d;
		PRAGMA journal_mode = WAL;
		PRAGMA synchronous = NORMAL;
		PRAGMA foreign_keys = ON;
	`, sqliteBusyTimeoutMS))
	if err != nil {
		return wrap(StorageFailure, "open", fmt.Errorf("apply pragmas: %w", err))
	}

	return nil
}

// ensureSchema creates the token/edge tables and required indexes (spec §6)
// if they do not already exist.
func ensureSchema(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS tokens (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			bytes TEXT NOT NULL UNIQUE,
			strength INTEGER NOT NULL DEFAULT 0,
			degree INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS edges (
			from_bytes TEXT NOT NULL,
			to_bytes TEXT NOT NULL,
			weight INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (from_bytes, to_bytes),
			FOREIGN KEY (from_bytes) REFERENCES tokens(bytes),
			FOREIGN KEY (to_bytes) REFERENCES tokens(bytes)
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_tokens_bytes ON tokens(bytes)`,
		`CREATE INDEX IF NOT EXISTS idx_edges_from_to ON edges(from_bytes, to_bytes)`,
		`CREATE INDEX IF NOT EXISTS idx_edges_to ON edges(to_bytes)`,
	}

	for i, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return wrap(StorageFailure, "open", fmt.Errorf("schema statement %d: %w", i+1, err))
		}
	}

	return nil
}
