// Package semantic provides a pgvector-backed similarity index over creature
// flavor texts. Descriptions are embedded through a [embeddings.Provider] and
// stored in PostgreSQL; Search returns the creatures whose descriptions sit
// closest to a free-text query by cosine distance.
//
// The index is an optional side store. The question-answering pipeline never
// consults it; it exists for exploratory queries ("which creature stores
// electricity?") over whatever records have been indexed.
package semantic

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	pgxvec "github.com/pgvector/pgvector-go/pgx"

	"github.com/pokedexlab/dexter/internal/dex"
	"github.com/pokedexlab/dexter/pkg/provider/embeddings"
)

// DefaultDimensions is used when the configuration does not set a vector
// dimension. It matches OpenAI text-embedding-3-small.
const DefaultDimensions = 1536

// Result is one Search hit.
type Result struct {
	// Creature is the display name of the matched creature.
	Creature string

	// Content is the indexed description text.
	Content string

	// Distance is the cosine distance to the query; smaller is closer.
	Distance float64
}

// Index stores embedded flavor texts in PostgreSQL. Safe for concurrent use.
type Index struct {
	pool     *pgxpool.Pool
	provider embeddings.Provider
}

// NewIndex connects to the database at dsn, registers pgvector types on
// every connection, and ensures the extension and table exist. dimensions
// must match the provider's embedding output; zero or less falls back to
// [DefaultDimensions].
func NewIndex(ctx context.Context, dsn string, provider embeddings.Provider, dimensions int) (*Index, error) {
	if dimensions <= 0 {
		dimensions = DefaultDimensions
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("semantic: parse dsn: %w", err)
	}
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("semantic: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("semantic: ping: %w", err)
	}
	if err := migrate(ctx, pool, dimensions); err != nil {
		pool.Close()
		return nil, fmt.Errorf("semantic: migrate: %w", err)
	}

	return &Index{pool: pool, provider: provider}, nil
}

// migrate installs the pgvector extension and the flavor_texts table.
func migrate(ctx context.Context, pool *pgxpool.Pool, dimensions int) error {
	if _, err := pool.Exec(ctx, `CREATE EXTENSION IF NOT EXISTS vector`); err != nil {
		return fmt.Errorf("create extension: %w", err)
	}

	ddl := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS flavor_texts (
    creature    TEXT         PRIMARY KEY,
    content     TEXT         NOT NULL,
    embedding   vector(%d)   NOT NULL,
    model       TEXT         NOT NULL DEFAULT '',
    indexed_at  TIMESTAMPTZ  NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_flavor_texts_embedding
    ON flavor_texts USING hnsw (embedding vector_cosine_ops);`, dimensions)
	if _, err := pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("create table: %w", err)
	}
	return nil
}

// IndexRecord embeds the record's description and upserts it under the
// creature's name. Records whose description degraded to a sentinel text are
// skipped without error; there is nothing meaningful to index.
func (ix *Index) IndexRecord(ctx context.Context, rec dex.Record) error {
	if rec.Description == "" ||
		rec.Description == dex.DescriptionUnavailable ||
		rec.Description == dex.DescriptionNotFound {
		return nil
	}

	vec, err := ix.provider.Embed(ctx, rec.Description)
	if err != nil {
		return fmt.Errorf("semantic: embed %q: %w", rec.Name, err)
	}

	const q = `
		INSERT INTO flavor_texts (creature, content, embedding, model, indexed_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (creature) DO UPDATE SET
		    content    = EXCLUDED.content,
		    embedding  = EXCLUDED.embedding,
		    model      = EXCLUDED.model,
		    indexed_at = EXCLUDED.indexed_at`
	_, err = ix.pool.Exec(ctx, q, rec.Name, rec.Description, pgvector.NewVector(vec), ix.provider.ModelID())
	if err != nil {
		return fmt.Errorf("semantic: index %q: %w", rec.Name, err)
	}
	return nil
}

// Search embeds the query and returns the topK closest descriptions by
// ascending cosine distance.
func (ix *Index) Search(ctx context.Context, query string, topK int) ([]Result, error) {
	if topK <= 0 {
		topK = 5
	}

	vec, err := ix.provider.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("semantic: embed query: %w", err)
	}

	const q = `
		SELECT creature, content, embedding <=> $1 AS distance
		FROM   flavor_texts
		ORDER  BY distance
		LIMIT  $2`
	rows, err := ix.pool.Query(ctx, q, pgvector.NewVector(vec), topK)
	if err != nil {
		return nil, fmt.Errorf("semantic: search: %w", err)
	}

	results, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Result, error) {
		var r Result
		err := row.Scan(&r.Creature, &r.Content, &r.Distance)
		return r, err
	})
	if err != nil {
		return nil, fmt.Errorf("semantic: scan rows: %w", err)
	}
	if results == nil {
		results = []Result{}
	}
	return results, nil
}

// Ping probes database connectivity. Used by readiness checks.
func (ix *Index) Ping(ctx context.Context) error {
	return ix.pool.Ping(ctx)
}

// Close releases the underlying connection pool.
func (ix *Index) Close() {
	ix.pool.Close()
}
