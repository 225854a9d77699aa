package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	// Registered drivers: "pgx" and "postgres".
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"

	"github.com/onoo-labs/marketing-assistant/internal/project/domain"
)

const createDocumentsTable = `
	CREATE TABLE IF NOT EXISTS project_documents (
		key        TEXT PRIMARY KEY,
		data       TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)
`

// SQLRepository stores the document as one row of project_documents.
type SQLRepository struct {
	db  *sql.DB
	key string
}

// NewSQLRepository creates a repository for the row identified by key.
func NewSQLRepository(db *sql.DB, key string) *SQLRepository {
	return &SQLRepository{db: db, key: key}
}

// Migrate creates the documents table when missing.
func (r *SQLRepository) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createDocumentsTable); err != nil {
		return fmt.Errorf("failed to create project_documents: %w", err)
	}
	return nil
}

// Get returns the stored document or domain.ErrProjectNotFound.
func (r *SQLRepository) Get(ctx context.Context) ([]byte, error) {
	var data string
	err := r.db.QueryRowContext(ctx,
		`SELECT data FROM project_documents WHERE key = $1`, r.key,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrProjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return []byte(data), nil
}

// Put upserts the document.
func (r *SQLRepository) Put(ctx context.Context, doc []byte) error {
	query := `
		INSERT INTO project_documents (key, data, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET
			data = EXCLUDED.data,
			updated_at = EXCLUDED.updated_at
	`
	if _, err := r.db.ExecContext(ctx, query, r.key, string(doc), now().UTC()); err != nil {
		return fmt.Errorf("failed to save project: %w", err)
	}
	return nil
}

func (r *SQLRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
