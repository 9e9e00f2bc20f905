// Package resolver turns a typed creature name into a complete [dex.Record].
//
// Resolution is remote-first: the name is cleaned, spell-corrected against
// the locally known roster, and looked up against the remote API. When the
// remote lookup fails for any reason the local cache serves as fallback.
// There are no retries and no circuit breaking; the remote attempt either
// succeeds within its timeout or the cache answers.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/pokedexlab/dexter/internal/dex"
	"github.com/pokedexlab/dexter/internal/dex/dexstore"
	"github.com/pokedexlab/dexter/internal/dex/pokeapi"
	"github.com/pokedexlab/dexter/internal/names"
	"github.com/pokedexlab/dexter/internal/observe"
)

// ErrNotFound is returned when neither the remote API nor the local cache
// knows the requested creature.
var ErrNotFound = errors.New("resolver: creature not found")

// Option is a functional option for [Resolver].
type Option func(*Resolver)

// WithCorrector replaces the default spell corrector.
func WithCorrector(c *names.Corrector) Option {
	return func(r *Resolver) { r.corrector = c }
}

// WithMetrics replaces the default metrics instance. Tests use this with a
// manual-reader-backed instance.
func WithMetrics(m *observe.Metrics) Option {
	return func(r *Resolver) { r.metrics = m }
}

// WithLogger replaces the default logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) { r.log = l }
}

// Resolver resolves typed creature names against the remote API with a local
// cache fallback. Safe for concurrent use.
type Resolver struct {
	api       *pokeapi.Client
	cache     dexstore.Store
	corrector *names.Corrector
	metrics   *observe.Metrics
	log       *slog.Logger
}

// New constructs a Resolver over the given API client and cache.
func New(api *pokeapi.Client, cache dexstore.Store, opts ...Option) *Resolver {
	r := &Resolver{
		api:       api,
		cache:     cache,
		corrector: names.NewCorrector(),
		metrics:   observe.DefaultMetrics(),
		log:       slog.Default(),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Correct cleans and spell-corrects typed against the cached roster, without
// resolving. The orchestrator uses it to normalise candidate names before
// presenting disambiguation choices.
func (r *Resolver) Correct(ctx context.Context, typed string) string {
	cleaned := names.Clean(typed)
	known, err := r.cache.Names(ctx)
	if err != nil {
		r.log.Warn("listing cached names failed, skipping correction", "error", err)
		return cleaned
	}
	return r.corrector.Correct(cleaned, known)
}

// Resolve fetches the record for the typed name. The returned record's
// Source field reports whether it came from the remote API or the cache.
// Returns an error wrapping [ErrNotFound] when no source knows the creature.
func (r *Resolver) Resolve(ctx context.Context, typed string) (rec dex.Record, err error) {
	ctx, span := observe.StartSpan(ctx, "dex.resolve",
		trace.WithAttributes(attribute.String("creature.typed", typed)))
	start := time.Now()
	defer func() {
		r.metrics.ResolveDuration.Record(ctx, time.Since(start).Seconds())
		observe.RecordError(span, err)
		span.End()
	}()

	corrected := r.Correct(ctx, typed)
	if corrected == "" {
		return dex.Record{}, fmt.Errorf("resolver: empty name: %w", ErrNotFound)
	}
	span.SetAttributes(attribute.String("creature.name", corrected))

	rec, err = r.fromRemote(ctx, corrected)
	if err == nil {
		r.metrics.RecordResolution(ctx, "remote", "ok")
		return rec, nil
	}
	r.metrics.RecordRemoteMiss(ctx, missReason(err))
	r.log.Warn("remote lookup failed, falling back to cache",
		"name", corrected, "error", err)

	rec, err = r.cache.Lookup(ctx, corrected)
	if err != nil {
		if errors.Is(err, dexstore.ErrNotFound) {
			r.metrics.RecordResolution(ctx, "cache", "miss")
			return dex.Record{}, fmt.Errorf("resolver: %q: %w", corrected, ErrNotFound)
		}
		r.metrics.RecordResolution(ctx, "cache", "error")
		return dex.Record{}, fmt.Errorf("resolver: cache lookup %q: %w", corrected, err)
	}
	r.metrics.RecordResolution(ctx, "cache", "ok")
	return rec, nil
}

// fromRemote assembles a record from the remote API. Only the primary lookup
// is load-bearing; species and evolution-chain failures degrade the record to
// its sentinel texts instead of failing the resolution.
func (r *Resolver) fromRemote(ctx context.Context, corrected string) (dex.Record, error) {
	slug := names.APISlug(corrected)

	p, err := r.api.Pokemon(ctx, slug)
	if err != nil {
		return dex.Record{}, err
	}

	rec := dex.Record{
		Name:     names.Title(corrected),
		HeightM:  float64(p.Height) / 10,
		WeightKg: float64(p.Weight) / 10,
		Stats:    dex.NewStats(),
		Source:   dex.SourcePokeAPI,
	}
	for _, t := range p.Types {
		rec.Types = append(rec.Types, names.Title(t.Type.Name))
	}
	for _, a := range p.Abilities {
		rec.Abilities = append(rec.Abilities, names.Title(a.Ability.Name))
	}
	for _, s := range p.Stats {
		if _, ok := rec.Stats[s.Stat.Name]; ok {
			rec.Stats[s.Stat.Name] = dex.IntPtr(s.BaseStat)
		}
	}

	rec.Description, rec.Evolutions = r.speciesDetails(ctx, slug, corrected)
	return rec, nil
}

// speciesDetails fetches flavor text and the evolution line, best effort.
func (r *Resolver) speciesDetails(ctx context.Context, slug, corrected string) (string, []string) {
	sp, err := r.api.Species(ctx, slug)
	if err != nil {
		r.log.Debug("species lookup failed", "name", corrected, "error", err)
		return dex.DescriptionUnavailable, []string{dex.NoEvolution}
	}

	desc, ok := sp.EnglishFlavorText()
	if !ok {
		desc = dex.DescriptionNotFound
	}

	evolutions := []string{dex.NoEvolution}
	if sp.EvolutionChain != nil && sp.EvolutionChain.URL != "" {
		chain, err := r.api.Chain(ctx, sp.EvolutionChain.URL)
		if err != nil {
			r.log.Debug("evolution chain lookup failed", "name", corrected, "error", err)
		} else if evs := chain.EvolutionNames(corrected); len(evs) > 0 {
			evolutions = evs
		}
	}
	return desc, evolutions
}

// missReason maps a remote failure onto a low-cardinality metric attribute.
func missReason(err error) string {
	var se *pokeapi.StatusError
	switch {
	case errors.As(err, &se):
		return "status_" + strconv.Itoa(se.Code)
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "unreachable"
	}
}
