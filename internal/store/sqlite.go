// Package store provides data persistence implementations.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // driver

	apperrors "forex-journal/internal/errors"
)

// SQLiteStore implements BlobStore using SQLite.
type SQLiteStore struct {
	db    *sql.DB
	retry retryConfig
}

// NewSQLiteStore creates a new SQLite-backed blob store, creating the
// database directory if needed.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One writer; reads are whole-blob so a small pool is enough.
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	store := NewSQLiteStoreWithDB(db)
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// NewSQLiteStoreWithDB wraps an existing connection. The schema is assumed
// to exist.
func NewSQLiteStoreWithDB(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{
		db:    db,
		retry: defaultRetryConfig(),
	}
}

// initSchema creates all required tables.
func (s *SQLiteStore) initSchema() error {
	schema := `
	-- Key-value blobs; the journal keeps its whole trade list in one row
	CREATE TABLE IF NOT EXISTS kv_blobs (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Get retrieves the blob stored under key.
func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT value FROM kv_blobs WHERE key = ?
	`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, apperrors.ErrBlobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get blob %s: %w: %v", key, apperrors.ErrDatabaseError, err)
	}
	return value, nil
}

// Put writes the blob under key if its updated_at still equals expected.
// The CLI and the API server may hold the same database open, so the
// version check happens in the statement itself; a write that finds the
// database locked by another process is retried with backoff.
func (s *SQLiteStore) Put(ctx context.Context, key string, value []byte, expected time.Time) (time.Time, error) {
	version := nextVersion(expected)

	var res sql.Result
	err := retryBusy(ctx, s.retry, func() error {
		var err error
		if expected.IsZero() {
			res, err = s.db.ExecContext(ctx, `
				INSERT INTO kv_blobs (key, value, updated_at)
				VALUES (?, ?, ?)
				ON CONFLICT(key) DO NOTHING
			`, key, value, version)
		} else {
			res, err = s.db.ExecContext(ctx, `
				UPDATE kv_blobs SET value = ?, updated_at = ?
				WHERE key = ? AND updated_at = ?
			`, value, version, key, expected)
		}
		return err
	})
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to put blob %s: %w: %v", key, apperrors.ErrDatabaseError, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to put blob %s: %w: %v", key, apperrors.ErrDatabaseError, err)
	}
	if n == 0 {
		return time.Time{}, fmt.Errorf("blob %s: %w", key, apperrors.ErrBlobConflict)
	}
	return version, nil
}

// UpdatedAt returns the version of key as currently stored. It always reads
// the database, since another process may have written since.
func (s *SQLiteStore) UpdatedAt(ctx context.Context, key string) (time.Time, error) {
	var updatedAt time.Time
	err := s.db.QueryRowContext(ctx, `
		SELECT updated_at FROM kv_blobs WHERE key = ?
	`, key).Scan(&updatedAt)
	if err == sql.ErrNoRows {
		return time.Time{}, apperrors.ErrBlobNotFound
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get blob timestamp %s: %w: %v", key, apperrors.ErrDatabaseError, err)
	}
	return updatedAt.UTC(), nil
}
