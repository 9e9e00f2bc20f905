// Package dexstore provides the local creature-data cache consulted when the
// remote API cannot serve a lookup.
//
// The cache is pre-loaded at process start from a structured snapshot whose
// schema uses Portuguese field names for stats; stores remap those fields
// into the canonical stat keys of [dex.Record] so resolution never sees the
// source-specific shape. Two backends exist:
//
//   - JSON file snapshot ([LoadFile], [FileStore]) — the default.
//   - PostgreSQL table ([NewPostgresStore]) — for deployments that already
//     run the database for the semantic index.
//
// All store implementations are safe for concurrent use.
package dexstore

import (
	"context"
	"errors"

	"github.com/pokedexlab/dexter/internal/dex"
)

// ErrNotFound is returned by Lookup when no cached record matches the name.
var ErrNotFound = errors.New("creature not found in local cache")

// Store is a read-only view over the local creature cache.
type Store interface {
	// Lookup returns the canonical record for the exactly matching name
	// (compared case-insensitively). Returns [ErrNotFound] when the name is
	// absent.
	Lookup(ctx context.Context, name string) (dex.Record, error)

	// Names returns every cached creature name, lower-cased, in stable
	// order. Used to build the known-names index once at startup.
	Names(ctx context.Context) ([]string, error)
}

// cacheEntry is the on-disk snapshot schema (one creature). Stat field names
// follow the snapshot's Portuguese convention and are remapped by toRecord.
type cacheEntry struct {
	Nome        string      `json:"nome"`
	Tipos       []string    `json:"tipos"`
	Habilidades []string    `json:"habilidades"`
	Altura      float64     `json:"altura"`
	Peso        float64     `json:"peso"`
	Stats       cacheStats  `json:"stats"`
	Descricao   string      `json:"descricao"`
	Evolucao    []string    `json:"evolucao"`
}

// cacheStats carries the snapshot's stat block. Pointer fields keep "absent"
// distinguishable from zero.
type cacheStats struct {
	HP             *int `json:"hp"`
	Ataque         *int `json:"ataque"`
	Defesa         *int `json:"defesa"`
	AtaqueEspecial *int `json:"ataque_especial"`
	DefesaEspecial *int `json:"defesa_especial"`
	Velocidade     *int `json:"velocidade"`
}

// toRecord remaps a snapshot entry into the canonical record shape,
// substituting sentinels for missing description and evolution data.
func (e cacheEntry) toRecord() dex.Record {
	stats := dex.NewStats()
	stats[dex.StatHP] = e.Stats.HP
	stats[dex.StatAttack] = e.Stats.Ataque
	stats[dex.StatDefense] = e.Stats.Defesa
	stats[dex.StatSpecialAttack] = e.Stats.AtaqueEspecial
	stats[dex.StatSpecialDefense] = e.Stats.DefesaEspecial
	stats[dex.StatSpeed] = e.Stats.Velocidade

	description := e.Descricao
	if description == "" {
		description = dex.DescriptionUnavailable
	}
	evolutions := e.Evolucao
	if len(evolutions) == 0 {
		evolutions = []string{dex.NoEvolution}
	}

	return dex.Record{
		Name:        e.Nome,
		Types:       e.Tipos,
		Abilities:   e.Habilidades,
		HeightM:     e.Altura,
		WeightKg:    e.Peso,
		Stats:       stats,
		Description: description,
		Evolutions:  evolutions,
		Source:      dex.SourceLocalCache,
	}
}
