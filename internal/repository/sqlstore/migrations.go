package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Versioned schema per dialect. Times are unix nanoseconds, vectors JSON text.
var sqliteMigrations = map[int][]string{
	1: {
		`CREATE TABLE IF NOT EXISTS lostfound_schema_version (num INTEGER NOT NULL)`,
		`CREATE TABLE IF NOT EXISTS items (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			type TEXT NOT NULL DEFAULT 'found',
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			location TEXT NOT NULL DEFAULT '',
			date TEXT NOT NULL DEFAULT '',
			contact TEXT NOT NULL DEFAULT '',
			photo TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'open',
			owner TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			embedding TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_items_status ON items (status)`,
		`CREATE INDEX IF NOT EXISTS idx_items_created ON items (created_at)`,
		`CREATE TABLE IF NOT EXISTS users (
			email TEXT PRIMARY KEY,
			password_hash TEXT NOT NULL,
			created_at INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS sessions (
			token TEXT PRIMARY KEY,
			email TEXT NOT NULL,
			expires_at INTEGER NOT NULL
		)`,
	},
}

var postgresMigrations = map[int][]string{
	1: {
		`CREATE TABLE IF NOT EXISTS lostfound_schema_version (num INTEGER NOT NULL)`,
		`CREATE TABLE IF NOT EXISTS items (
			id BIGSERIAL PRIMARY KEY,
			type TEXT NOT NULL DEFAULT 'found',
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			location TEXT NOT NULL DEFAULT '',
			date TEXT NOT NULL DEFAULT '',
			contact TEXT NOT NULL DEFAULT '',
			photo TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'open',
			owner TEXT NOT NULL,
			created_at BIGINT NOT NULL,
			embedding TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_items_status ON items (status)`,
		`CREATE INDEX IF NOT EXISTS idx_items_created ON items (created_at)`,
		`CREATE TABLE IF NOT EXISTS users (
			email TEXT PRIMARY KEY,
			password_hash TEXT NOT NULL,
			created_at BIGINT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS sessions (
			token TEXT PRIMARY KEY,
			email TEXT NOT NULL,
			expires_at BIGINT NOT NULL
		)`,
	},
}

// migrate applies every version above the recorded one in a single transaction.
func (s *Store) migrate(ctx context.Context) error {
	migrations := sqliteMigrations
	if s.dialect == DialectPostgres {
		migrations = postgresMigrations
	}
	maxVersion := len(migrations)

	current := s.schemaVersion(ctx)
	if current >= maxVersion {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for v := current + 1; v <= maxVersion; v++ {
		for _, op := range migrations[v] {
			if _, err := tx.ExecContext(ctx, op); err != nil {
				return fmt.Errorf("migration %d failed: %w", v, err)
			}
		}
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM lostfound_schema_version"); err != nil {
		return fmt.Errorf("reset schema version: %w", err)
	}
	if _, err := tx.ExecContext(ctx, s.rebind("INSERT INTO lostfound_schema_version (num) VALUES (?)"), maxVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration: %w", err)
	}
	return nil
}

// schemaVersion returns 0 when the version table does not exist yet.
func (s *Store) schemaVersion(ctx context.Context) int {
	var version sql.NullInt64
	err := s.db.QueryRowContext(ctx, "SELECT num FROM lostfound_schema_version LIMIT 1").Scan(&version)
	if errors.Is(err, sql.ErrNoRows) || err != nil || !version.Valid {
		return 0
	}
	return int(version.Int64)
}
