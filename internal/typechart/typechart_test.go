package typechart_test

import (
	"slices"
	"testing"

	"github.com/pokedexlab/dexter/internal/typechart"
)

func TestWeaknesses_UnionSortedDeduped(t *testing.T) {
	t.Parallel()

	// Fire → {Water, Rock, Ground}; Flying → {Electric, Ice, Rock}.
	// Rock appears in both and must be emitted once.
	got := typechart.Weaknesses([]string{"Fire", "Flying"})
	want := []string{"Electric", "Ground", "Ice", "Rock", "Water"}
	if !slices.Equal(got, want) {
		t.Errorf("Weaknesses(Fire, Flying) = %v, want %v", got, want)
	}
}

func TestWeaknesses_OrderIndependent(t *testing.T) {
	t.Parallel()

	a := typechart.Weaknesses([]string{"Fire", "Flying"})
	b := typechart.Weaknesses([]string{"Flying", "Fire"})
	if !slices.Equal(a, b) {
		t.Errorf("Weaknesses is order-dependent: %v vs %v", a, b)
	}
}

func TestWeaknesses_EmptyInput(t *testing.T) {
	t.Parallel()

	if got := typechart.Weaknesses(nil); len(got) != 0 {
		t.Errorf("Weaknesses(nil) = %v, want empty", got)
	}
	if got := typechart.Weaknesses([]string{}); len(got) != 0 {
		t.Errorf("Weaknesses([]) = %v, want empty", got)
	}
}

func TestWeaknesses_UnknownTypesIgnored(t *testing.T) {
	t.Parallel()

	// "Normal" is not in the simplified chart and must contribute nothing.
	got := typechart.Weaknesses([]string{"Normal"})
	if len(got) != 0 {
		t.Errorf("Weaknesses(Normal) = %v, want empty", got)
	}

	withKnown := typechart.Weaknesses([]string{"Normal", "Electric"})
	want := []string{"Ground"}
	if !slices.Equal(withKnown, want) {
		t.Errorf("Weaknesses(Normal, Electric) = %v, want %v", withKnown, want)
	}
}

func TestWeaknesses_CaseInsensitiveLookup(t *testing.T) {
	t.Parallel()

	upper := typechart.Weaknesses([]string{"FIRE"})
	lower := typechart.Weaknesses([]string{"fire"})
	title := typechart.Weaknesses([]string{"Fire"})
	if !slices.Equal(upper, title) || !slices.Equal(lower, title) {
		t.Errorf("case-sensitive lookup: %v / %v / %v", upper, lower, title)
	}
}

func TestKnown(t *testing.T) {
	t.Parallel()

	if !typechart.Known("water") {
		t.Error("Known(water) = false, want true")
	}
	if typechart.Known("Normal") {
		t.Error("Known(Normal) = true, want false in the simplified chart")
	}
}
