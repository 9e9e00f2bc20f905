// Package dex defines the canonical creature record shared by every data
// source in dexter.
//
// Both the remote PokeAPI client and the local cache store produce the same
// [Record] shape, so everything downstream of resolution (response synthesis,
// comparison, the semantic index) is source-agnostic. Records are built fresh
// per query and never mutated after construction.
package dex

// Stat keys of the canonical stats map. Every [Record] carries all six keys;
// a nil value means the source had no data for that stat.
const (
	StatHP             = "hp"
	StatAttack         = "attack"
	StatDefense        = "defense"
	StatSpecialAttack  = "special-attack"
	StatSpecialDefense = "special-defense"
	StatSpeed          = "speed"
)

// StatKeys lists the canonical stat keys in display order.
var StatKeys = []string{
	StatHP, StatAttack, StatDefense,
	StatSpecialAttack, StatSpecialDefense, StatSpeed,
}

// Sentinel field values substituted when a source lacks real data.
const (
	// DescriptionUnavailable replaces a missing or unfetchable description.
	DescriptionUnavailable = "Descrição não disponível."

	// DescriptionNotFound replaces a species payload that carried no English
	// flavor text entry.
	DescriptionNotFound = "Descrição não encontrada."

	// NoEvolution is the single evolutions entry for creatures that do not
	// evolve or whose chain could not be fetched.
	NoEvolution = "Não evolui"
)

// Source identifies which data source produced a [Record].
type Source string

const (
	// SourcePokeAPI marks records resolved from the remote API.
	SourcePokeAPI Source = "PokéAPI"

	// SourceLocalCache marks records resolved from the local cache store.
	SourceLocalCache Source = "Cache Local"
)

// IsValid reports whether s is a recognised record source.
func (s Source) IsValid() bool {
	return s == SourcePokeAPI || s == SourceLocalCache
}

// Record is the unified creature-data shape produced by either data source.
//
// Invariants: Name is never empty; Stats contains every key in [StatKeys]
// (nil values stand for missing data, so synthesis never branches on key
// absence); Evolutions is never empty (it degrades to [NoEvolution]).
type Record struct {
	// Name is the display-capitalized creature name.
	Name string

	// Types lists the creature's types, display-capitalized, in source order.
	Types []string

	// Abilities lists ability names, display-capitalized, in source order.
	Abilities []string

	// HeightM is the height in metres.
	HeightM float64

	// WeightKg is the weight in kilograms.
	WeightKg float64

	// Stats maps each canonical stat key to its base value. Values are nil
	// when the source lacks the stat.
	Stats map[string]*int

	// Description is the English flavor text, or a sentinel.
	Description string

	// Evolutions lists evolution-stage names in chain pre-order, excluding
	// the creature itself, or the [NoEvolution] sentinel.
	Evolutions []string

	// Source records which backend produced this record.
	Source Source
}

// NewStats returns a stats map with every canonical key present and nil.
func NewStats() map[string]*int {
	m := make(map[string]*int, len(StatKeys))
	for _, k := range StatKeys {
		m[k] = nil
	}
	return m
}

// Stat returns the value for the canonical stat key, or 0 when the value is
// missing. Comparison and stat-focused replies treat missing data as zero,
// matching the display contract.
func (r *Record) Stat(key string) int {
	if v, ok := r.Stats[key]; ok && v != nil {
		return *v
	}
	return 0
}

// StatKnown reports whether the record carries a real value for key.
func (r *Record) StatKnown(key string) bool {
	v, ok := r.Stats[key]
	return ok && v != nil
}

// IntPtr returns a pointer to v. Convenience for building stats maps.
func IntPtr(v int) *int {
	return &v
}
