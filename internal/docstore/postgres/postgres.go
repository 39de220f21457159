// Package postgres provides a PostgreSQL-backed docstore.Store.
// Document bodies are JSONB; the schema is managed with golang-migrate from
// migrations embedded in the binary.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/mmynk/wishlists/internal/auth"
	"github.com/mmynk/wishlists/internal/docstore"
	"github.com/mmynk/wishlists/internal/models"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

var (
	_ docstore.Store   = (*Store)(nil)
	_ auth.UserStorage = (*Store)(nil)
)

// uniqueViolation is the SQLSTATE for unique_violation.
const uniqueViolation = "23505"

// Store implements docstore.Store on PostgreSQL.
type Store struct {
	db *sql.DB
}

// New connects to databaseURL, configures the pool and applies pending migrations.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := migrateUp(db); err != nil {
		db.Close()
		return nil, err
	}

	slog.Info("Postgres document store ready")
	return &Store{db: db}, nil
}

func migrateUp(db *sql.DB) error {
	source, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to open migration source: %w", err)
	}

	driver, err := migratepg.WithInstance(db, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// Close closes the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// ListAll returns the collection in insertion order.
func (s *Store) ListAll(ctx context.Context, collection string) ([]docstore.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, body FROM documents WHERE collection = $1 ORDER BY seq`,
		collection,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var records []docstore.Record
	for rows.Next() {
		var (
			id   string
			body []byte
		)
		if err := rows.Scan(&id, &body); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		fields := docstore.Fields{}
		if err := json.Unmarshal(body, &fields); err != nil {
			return nil, fmt.Errorf("failed to decode document %s: %w", id, err)
		}
		records = append(records, docstore.Record{ID: id, Fields: fields})
	}

	return records, rows.Err()
}

// GetOne returns the document or nil, nil when absent.
func (s *Store) GetOne(ctx context.Context, collection, id string) (*docstore.Record, error) {
	var body []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT body FROM documents WHERE collection = $1 AND id = $2`,
		collection, id,
	).Scan(&body)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	fields := docstore.Fields{}
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("failed to decode document %s: %w", id, err)
	}
	return &docstore.Record{ID: id, Fields: fields}, nil
}

// CreateWithGeneratedID inserts fields under a new UUID.
func (s *Store) CreateWithGeneratedID(ctx context.Context, collection string, fields docstore.Fields) (string, error) {
	if fields == nil {
		fields = docstore.Fields{}
	}
	body, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("failed to encode document: %w", err)
	}

	id := uuid.New().String()
	now := time.Now().Unix()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO documents (collection, id, body, created_at, updated_at)
		VALUES ($1, $2, $3::jsonb, $4, $5)`,
		collection, id, string(body), now, now,
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert document: %w", err)
	}
	return id, nil
}

// UpdateFields merges fields into the document with jsonb concatenation,
// which replaces each top-level key whole.
func (s *Store) UpdateFields(ctx context.Context, collection, id string, fields docstore.Fields) error {
	body, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("failed to encode fields: %w", err)
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE documents SET body = body || $3::jsonb, updated_at = $4
		WHERE collection = $1 AND id = $2`,
		collection, id, string(body), time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to update document: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s/%s", docstore.ErrNotFound, collection, id)
	}
	return nil
}

// DeleteOne removes the document if present.
func (s *Store) DeleteOne(ctx context.Context, collection, id string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM documents WHERE collection = $1 AND id = $2`,
		collection, id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}

// CreateUser inserts a user. Emails are stored lower-cased.
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, email, display_name, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		user.ID, user.Email, user.DisplayName, user.PasswordHash, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return auth.ErrEmailExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUserByEmail returns nil, nil when no user has the email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getUser(ctx, `WHERE email = $1`, strings.ToLower(strings.TrimSpace(email)))
}

// GetUserByID returns nil, nil when the user does not exist.
func (s *Store) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return s.getUser(ctx, `WHERE id = $1`, id)
}

func (s *Store) getUser(ctx context.Context, where, arg string) (*models.User, error) {
	user := &models.User{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, display_name, password_hash, created_at, updated_at FROM users `+where,
		arg,
	).Scan(&user.ID, &user.Email, &user.DisplayName, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}
