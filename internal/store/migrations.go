package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/semver/v3"
)

const (
	// CurrentSchemaVersion tracks the database schema version
	CurrentSchemaVersion = "1.0.0"
)

// Migration represents a database schema migration
type Migration struct {
	Version string
	Up      string
	Down    string
}

// AllMigrations contains all database migrations in order
var AllMigrations = []Migration{
	{
		Version: "1.0.0",
		Up:      migrationV1Up,
		Down:    migrationV1Down,
	},
}

const migrationV1Up = `
-- Schema version tracking
CREATE TABLE IF NOT EXISTS schema_version (
    version TEXT PRIMARY KEY,
    applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

-- Vector records; collection is "curated" or "raw"
CREATE TABLE IF NOT EXISTS records (
    collection TEXT NOT NULL,
    id TEXT NOT NULL,
    file_path TEXT NOT NULL DEFAULT '',
    name TEXT,
    kind TEXT,
    language TEXT,
    start_line INTEGER,
    end_line INTEGER,
    content TEXT NOT NULL,
    fingerprint TEXT,
    metadata TEXT,
    vector BLOB NOT NULL,
    dimension INTEGER NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (collection, id)
);

CREATE INDEX IF NOT EXISTS idx_records_file ON records(collection, file_path);
CREATE INDEX IF NOT EXISTS idx_records_fingerprint ON records(collection, fingerprint);
`

const migrationV1Down = `
DROP INDEX IF EXISTS idx_records_fingerprint;
DROP INDEX IF EXISTS idx_records_file;
DROP TABLE IF EXISTS records;
DROP TABLE IF EXISTS schema_version;
`

// ApplyMigrations applies all pending migrations to the database
func ApplyMigrations(ctx context.Context, db *sql.DB) error {
	// Ensure the version table exists before querying it
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_version (
			version TEXT PRIMARY KEY,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`); err != nil {
		return fmt.Errorf("create schema_version table: %w", err)
	}

	applied, err := appliedVersions(ctx, db)
	if err != nil {
		return err
	}

	for _, migration := range AllMigrations {
		if applied[migration.Version] {
			continue
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %s: %w", migration.Version, err)
		}

		if _, err := tx.ExecContext(ctx, migration.Up); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply migration %s: %w", migration.Version, err)
		}

		if _, err := tx.ExecContext(ctx,
			"INSERT INTO schema_version (version) VALUES (?)", migration.Version); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %s: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", migration.Version, err)
		}
	}

	return nil
}

// appliedVersions returns the set of already-applied migration versions,
// validating each is parseable semver.
func appliedVersions(ctx context.Context, db *sql.DB) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, "SELECT version FROM schema_version")
	if err != nil {
		return nil, fmt.Errorf("query schema versions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	applied := make(map[string]bool)
	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		if _, err := semver.NewVersion(version); err != nil {
			return nil, fmt.Errorf("invalid schema version %q: %w", version, err)
		}
		applied[version] = true
	}
	return applied, rows.Err()
}
