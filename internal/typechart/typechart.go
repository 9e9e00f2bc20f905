// Package typechart holds the static type-effectiveness chart used to answer
// weakness questions.
//
// The chart is a hand-curated simplification of the game's type interactions:
// it maps each type to the set of types it is weak against, with no damage
// multipliers and no resistance handling. Completeness against the real
// interaction table is a documented limitation, not a bug.
package typechart

import (
	"slices"
	"strings"
)

// chart maps a type name to the types that counter it. Read-only after
// package initialisation; no write path exists.
var chart = map[string][]string{
	"Fire":     {"Water", "Rock", "Ground"},
	"Water":    {"Electric", "Grass"},
	"Electric": {"Ground"},
	"Grass":    {"Fire", "Ice", "Poison", "Flying", "Bug"},
	"Ice":      {"Fire", "Fighting", "Rock", "Steel"},
	"Fighting": {"Flying", "Psychic", "Fairy"},
	"Poison":   {"Ground", "Psychic"},
	"Ground":   {"Water", "Grass", "Ice"},
	"Flying":   {"Electric", "Ice", "Rock"},
	"Psychic":  {"Bug", "Ghost", "Dark"},
	"Bug":      {"Fire", "Flying", "Rock"},
	"Rock":     {"Water", "Grass", "Fighting", "Ground", "Steel"},
	"Ghost":    {"Ghost", "Dark"},
	"Dragon":   {"Ice", "Dragon", "Fairy"},
	"Dark":     {"Fighting", "Bug", "Fairy"},
	"Steel":    {"Fire", "Fighting", "Ground"},
	"Fairy":    {"Poison", "Steel"},
}

// Weaknesses returns the union of counter-types for the given types, sorted
// and duplicate-free. Unknown types contribute nothing. The result depends
// only on the set of input types, not their order.
func Weaknesses(types []string) []string {
	seen := make(map[string]struct{})
	for _, t := range types {
		for _, counter := range chart[canonical(t)] {
			seen[counter] = struct{}{}
		}
	}

	result := make([]string, 0, len(seen))
	for w := range seen {
		result = append(result, w)
	}
	slices.Sort(result)
	return result
}

// Known reports whether t is present in the chart.
func Known(t string) bool {
	_, ok := chart[canonical(t)]
	return ok
}

// canonical normalises a type name to the chart's Title-case key form, so
// lookups accept "fire", "FIRE", and "Fire" alike.
func canonical(t string) string {
	t = strings.TrimSpace(t)
	if t == "" {
		return t
	}
	return strings.ToUpper(t[:1]) + strings.ToLower(t[1:])
}
