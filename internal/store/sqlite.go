package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/semindex/semindex/pkg/types"
)

// SQLiteIndex implements Index using SQLite. Both logical collections live
// in one records table keyed by (collection, id).
type SQLiteIndex struct {
	db *sql.DB
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode so readers can proceed during a sync
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// SQLite benefits from a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// NewSQLiteIndex opens (or creates) the index database at dbPath and applies
// migrations.
func NewSQLiteIndex(dbPath string) (*SQLiteIndex, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteIndex{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteIndex) Close() error {
	return s.db.Close()
}

// Upsert inserts or replaces records by (collection, id) in one transaction.
func (s *SQLiteIndex) Upsert(ctx context.Context, records []*Record) error {
	if len(records) == 0 {
		return nil
	}
	for _, record := range records {
		if err := record.Validate(); err != nil {
			return fmt.Errorf("invalid record %q: %w", record.ID, err)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO records (collection, id, file_path, name, kind, language,
			start_line, end_line, content, fingerprint, metadata, vector, dimension,
			created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(collection, id) DO UPDATE SET
			file_path = excluded.file_path,
			name = excluded.name,
			kind = excluded.kind,
			language = excluded.language,
			start_line = excluded.start_line,
			end_line = excluded.end_line,
			content = excluded.content,
			fingerprint = excluded.fingerprint,
			metadata = excluded.metadata,
			vector = excluded.vector,
			dimension = excluded.dimension,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	now := time.Now()
	for _, record := range records {
		metadata, err := marshalMetadata(record.Metadata)
		if err != nil {
			return fmt.Errorf("marshal metadata for %q: %w", record.ID, err)
		}
		if _, err := stmt.ExecContext(ctx,
			string(record.Collection), record.ID, record.FilePath, record.Name,
			record.Kind, record.Language, record.StartLine, record.EndLine,
			record.Content, record.Fingerprint, metadata,
			serializeVector(record.Vector), len(record.Vector), now, now,
		); err != nil {
			return fmt.Errorf("upsert record %q: %w", record.ID, err)
		}
	}

	return tx.Commit()
}

// DeleteByFile removes every record of the collection sourced from filePath.
func (s *SQLiteIndex) DeleteByFile(ctx context.Context, collection types.Collection, filePath string) (int, error) {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM records WHERE collection = ? AND file_path = ?",
		string(collection), filePath)
	if err != nil {
		return 0, fmt.Errorf("delete records for %s: %w", filePath, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}

// Get fetches one record by identity.
func (s *SQLiteIndex) Get(ctx context.Context, collection types.Collection, id string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT collection, id, file_path, name, kind, language, start_line,
			end_line, content, fingerprint, metadata, vector, created_at, updated_at
		FROM records WHERE collection = ? AND id = ?`,
		string(collection), id)
	return scanRecord(row)
}

// Count reports the number of records in a collection.
func (s *SQLiteIndex) Count(ctx context.Context, collection types.Collection) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM records WHERE collection = ?",
		string(collection)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", collection, err)
	}
	return count, nil
}

// Reset drops every record of one collection.
func (s *SQLiteIndex) Reset(ctx context.Context, collection types.Collection) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM records WHERE collection = ?", string(collection))
	if err != nil {
		return fmt.Errorf("reset %s: %w", collection, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var (
		record       Record
		collection   string
		metadataJSON sql.NullString
		vectorBlob   []byte
	)
	err := row.Scan(&collection, &record.ID, &record.FilePath, &record.Name,
		&record.Kind, &record.Language, &record.StartLine, &record.EndLine,
		&record.Content, &record.Fingerprint, &metadataJSON, &vectorBlob,
		&record.CreatedAt, &record.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	record.Collection = types.Collection(collection)
	record.Vector = deserializeVector(vectorBlob)
	if metadataJSON.Valid && metadataJSON.String != "" {
		if err := json.Unmarshal([]byte(metadataJSON.String), &record.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal metadata: %w", err)
		}
	}
	return &record, nil
}

func marshalMetadata(metadata map[string]string) (string, error) {
	if len(metadata) == 0 {
		return "", nil
	}
	data, err := json.Marshal(metadata)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
