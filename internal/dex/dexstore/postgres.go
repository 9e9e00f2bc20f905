package dexstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pokedexlab/dexter/internal/dex"
)

// Compile-time assertion that PostgresStore satisfies the Store interface.
var _ Store = (*PostgresStore)(nil)

// ddlCreatures creates the cache table. Stat columns keep the snapshot's
// Portuguese naming so a table populated straight from the JSON snapshot
// (COPY or a one-off import script) needs no column mapping.
const ddlCreatures = `
CREATE TABLE IF NOT EXISTS creatures (
    nome            TEXT    PRIMARY KEY,
    tipos           JSONB   NOT NULL DEFAULT '[]',
    habilidades     JSONB   NOT NULL DEFAULT '[]',
    altura          DOUBLE PRECISION NOT NULL DEFAULT 0,
    peso            DOUBLE PRECISION NOT NULL DEFAULT 0,
    hp              INT,
    ataque          INT,
    defesa          INT,
    ataque_especial INT,
    defesa_especial INT,
    velocidade      INT,
    descricao       TEXT    NOT NULL DEFAULT '',
    evolucao        JSONB   NOT NULL DEFAULT '[]'
);

CREATE INDEX IF NOT EXISTS idx_creatures_nome_lower
    ON creatures (lower(nome));
`

// PostgresStore is the PostgreSQL implementation of [Store], for deployments
// that already run the database for the semantic index. All operations are
// safe for concurrent use.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to the database at dsn, ensures the creatures
// table exists, and returns a ready store.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("dexstore: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("dexstore: ping: %w", err)
	}
	if _, err := pool.Exec(ctx, ddlCreatures); err != nil {
		pool.Close()
		return nil, fmt.Errorf("dexstore: migrate: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Lookup implements [Store.Lookup].
func (s *PostgresStore) Lookup(ctx context.Context, name string) (dex.Record, error) {
	const q = `
		SELECT nome, tipos, habilidades, altura, peso,
		       hp, ataque, defesa, ataque_especial, defesa_especial, velocidade,
		       descricao, evolucao
		FROM   creatures
		WHERE  lower(nome) = $1`

	var (
		e         cacheEntry
		tiposJSON []byte
		habsJSON  []byte
		evoJSON   []byte
	)
	err := s.pool.QueryRow(ctx, q, strings.ToLower(strings.TrimSpace(name))).Scan(
		&e.Nome, &tiposJSON, &habsJSON, &e.Altura, &e.Peso,
		&e.Stats.HP, &e.Stats.Ataque, &e.Stats.Defesa,
		&e.Stats.AtaqueEspecial, &e.Stats.DefesaEspecial, &e.Stats.Velocidade,
		&e.Descricao, &evoJSON,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return dex.Record{}, ErrNotFound
	}
	if err != nil {
		return dex.Record{}, fmt.Errorf("dexstore: lookup %q: %w", name, err)
	}

	if err := decodeJSONColumns(&e, tiposJSON, habsJSON, evoJSON); err != nil {
		return dex.Record{}, fmt.Errorf("dexstore: lookup %q: %w", name, err)
	}
	return e.toRecord(), nil
}

// Names implements [Store.Names].
func (s *PostgresStore) Names(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT lower(nome) FROM creatures ORDER BY nome`)
	if err != nil {
		return nil, fmt.Errorf("dexstore: list names: %w", err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("dexstore: scan names: %w", err)
	}
	return names, nil
}

// Upsert inserts or replaces a snapshot entry, used by import tooling and
// tests to populate the table from the JSON snapshot shape.
func (s *PostgresStore) Upsert(ctx context.Context, raw json.RawMessage) error {
	var e cacheEntry
	if err := json.Unmarshal(raw, &e); err != nil {
		return fmt.Errorf("dexstore: decode entry: %w", err)
	}
	if e.Nome == "" {
		return fmt.Errorf("dexstore: entry has no name")
	}

	tipos, err := json.Marshal(e.Tipos)
	if err != nil {
		return fmt.Errorf("dexstore: encode tipos: %w", err)
	}
	habs, err := json.Marshal(e.Habilidades)
	if err != nil {
		return fmt.Errorf("dexstore: encode habilidades: %w", err)
	}
	evo, err := json.Marshal(e.Evolucao)
	if err != nil {
		return fmt.Errorf("dexstore: encode evolucao: %w", err)
	}

	const q = `
		INSERT INTO creatures
		    (nome, tipos, habilidades, altura, peso,
		     hp, ataque, defesa, ataque_especial, defesa_especial, velocidade,
		     descricao, evolucao)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (nome) DO UPDATE SET
		    tipos           = EXCLUDED.tipos,
		    habilidades     = EXCLUDED.habilidades,
		    altura          = EXCLUDED.altura,
		    peso            = EXCLUDED.peso,
		    hp              = EXCLUDED.hp,
		    ataque          = EXCLUDED.ataque,
		    defesa          = EXCLUDED.defesa,
		    ataque_especial = EXCLUDED.ataque_especial,
		    defesa_especial = EXCLUDED.defesa_especial,
		    velocidade      = EXCLUDED.velocidade,
		    descricao       = EXCLUDED.descricao,
		    evolucao        = EXCLUDED.evolucao`

	_, err = s.pool.Exec(ctx, q,
		e.Nome, tipos, habs, e.Altura, e.Peso,
		e.Stats.HP, e.Stats.Ataque, e.Stats.Defesa,
		e.Stats.AtaqueEspecial, e.Stats.DefesaEspecial, e.Stats.Velocidade,
		e.Descricao, evo,
	)
	if err != nil {
		return fmt.Errorf("dexstore: upsert %q: %w", e.Nome, err)
	}
	return nil
}

// Ping reports database reachability, for readiness checks.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the underlying connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// decodeJSONColumns fills the slice fields of e from their JSONB columns.
func decodeJSONColumns(e *cacheEntry, tipos, habs, evo []byte) error {
	if err := json.Unmarshal(tipos, &e.Tipos); err != nil {
		return fmt.Errorf("decode tipos: %w", err)
	}
	if err := json.Unmarshal(habs, &e.Habilidades); err != nil {
		return fmt.Errorf("decode habilidades: %w", err)
	}
	if err := json.Unmarshal(evo, &e.Evolucao); err != nil {
		return fmt.Errorf("decode evolucao: %w", err)
	}
	return nil
}
