package archive

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"egrul/internal/registry/models"
	"egrul/pkg/requestcontext"
)

// Schema creates the document table.
const Schema = `
CREATE TABLE IF NOT EXISTS registry_documents (
	token      TEXT PRIMARY KEY,
	content    BYTEA NOT NULL,
	fetched_at TIMESTAMPTZ NOT NULL
)`

const (
	findDocument = `
SELECT content, fetched_at FROM registry_documents
WHERE token = $1 AND fetched_at > $2`

	upsertDocument = `
INSERT INTO registry_documents (token, content, fetched_at)
VALUES ($1, $2, $3)
ON CONFLICT (token) DO UPDATE
SET content = EXCLUDED.content, fetched_at = EXCLUDED.fetched_at`
)

// PostgresArchive persists documents in PostgreSQL.
type PostgresArchive struct {
	pool *pgxpool.Pool
	ttl  time.Duration
}

// NewPostgresArchive constructs a PostgreSQL-backed archive. Rows older than
// ttl are ignored on read; a zero ttl never expires rows.
func NewPostgresArchive(pool *pgxpool.Pool, ttl time.Duration) *PostgresArchive {
	return &PostgresArchive{pool: pool, ttl: ttl}
}

func (a *PostgresArchive) Name() string { return "postgres" }

// Migrate creates the table if it does not exist.
func (a *PostgresArchive) Migrate(ctx context.Context) error {
	if _, err := a.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("migrate registry_documents: %w", err)
	}
	return nil
}

func (a *PostgresArchive) Find(ctx context.Context, token string) (*models.Document, error) {
	cutoff := time.Time{}
	if a.ttl > 0 {
		cutoff = requestcontext.Now(ctx).Add(-a.ttl)
	}
	var (
		content   []byte
		fetchedAt time.Time
	)
	err := a.pool.QueryRow(ctx, findDocument, token, cutoff).Scan(&content, &fetchedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find document: %w", err)
	}
	return models.NewDocument(token, content, fetchedAt), nil
}

func (a *PostgresArchive) Save(ctx context.Context, doc *models.Document) error {
	if doc == nil || !doc.Loaded || doc.Token == "" {
		return nil
	}
	fetchedAt := doc.FetchedAt
	if fetchedAt.IsZero() {
		fetchedAt = requestcontext.Now(ctx)
	}
	if _, err := a.pool.Exec(ctx, upsertDocument, doc.Token, doc.Content, fetchedAt); err != nil {
		return fmt.Errorf("save document: %w", err)
	}
	return nil
}
