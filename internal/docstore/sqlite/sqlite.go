// Package sqlite provides a SQLite-backed implementation of the docstore.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/mmynk/wishlists/internal/auth"
	"github.com/mmynk/wishlists/internal/docstore"
)

// Ensure SQLiteStore implements docstore.Store and auth.UserStorage
var (
	_ docstore.Store   = (*SQLiteStore)(nil)
	_ auth.UserStorage = (*SQLiteStore)(nil)
)

// SQLiteStore implements docstore.Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	// Create parent directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection serializes writers; SQLite would otherwise return SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ListAll returns every document in the collection in insertion order.
func (s *SQLiteStore) ListAll(ctx context.Context, collection string) ([]docstore.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, body FROM documents WHERE collection = ? ORDER BY seq",
		collection,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var records []docstore.Record
	for rows.Next() {
		var id, body string
		if err := rows.Scan(&id, &body); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		fields, err := decodeBody(body)
		if err != nil {
			return nil, fmt.Errorf("document %s: %w", id, err)
		}
		records = append(records, docstore.Record{ID: id, Fields: fields})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate documents: %w", err)
	}

	return records, nil
}

// GetOne retrieves a document by ID. Returns nil, nil when it does not exist.
func (s *SQLiteStore) GetOne(ctx context.Context, collection, id string) (*docstore.Record, error) {
	var body string
	err := s.db.QueryRowContext(ctx,
		"SELECT body FROM documents WHERE collection = ? AND id = ?",
		collection, id,
	).Scan(&body)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	fields, err := decodeBody(body)
	if err != nil {
		return nil, fmt.Errorf("document %s: %w", id, err)
	}
	return &docstore.Record{ID: id, Fields: fields}, nil
}

// CreateWithGeneratedID inserts a new document under a fresh UUID.
func (s *SQLiteStore) CreateWithGeneratedID(ctx context.Context, collection string, fields docstore.Fields) (string, error) {
	body, err := encodeBody(fields)
	if err != nil {
		return "", err
	}

	id := uuid.New().String()
	now := time.Now().Unix()
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO documents (collection, id, body, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
		collection, id, body, now, now,
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert document: %w", err)
	}

	return id, nil
}

// UpdateFields merges fields into an existing document.
func (s *SQLiteStore) UpdateFields(ctx context.Context, collection, id string, fields docstore.Fields) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var body string
	err = tx.QueryRowContext(ctx,
		"SELECT body FROM documents WHERE collection = ? AND id = ?",
		collection, id,
	).Scan(&body)
	if err == sql.ErrNoRows {
		return fmt.Errorf("%w: %s/%s", docstore.ErrNotFound, collection, id)
	}
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	current, err := decodeBody(body)
	if err != nil {
		return fmt.Errorf("document %s: %w", id, err)
	}
	merged, err := encodeBody(docstore.Merge(current, fields))
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE documents SET body = ?, updated_at = ? WHERE collection = ? AND id = ?",
		merged, time.Now().Unix(), collection, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update document: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// DeleteOne removes a document. Missing documents are ignored.
func (s *SQLiteStore) DeleteOne(ctx context.Context, collection, id string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM documents WHERE collection = ? AND id = ?",
		collection, id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}

func encodeBody(fields docstore.Fields) (string, error) {
	if fields == nil {
		fields = docstore.Fields{}
	}
	raw, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("failed to encode document: %w", err)
	}
	return string(raw), nil
}

func decodeBody(body string) (docstore.Fields, error) {
	fields := docstore.Fields{}
	if err := json.Unmarshal([]byte(body), &fields); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	return fields, nil
}
