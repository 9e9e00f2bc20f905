package dexstore_test

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/pokedexlab/dexter/internal/dex"
	"github.com/pokedexlab/dexter/internal/dex/dexstore"
)

const snapshot = `[
  {
    "nome": "Pikachu",
    "tipos": ["Electric"],
    "habilidades": ["Static"],
    "altura": 0.4,
    "peso": 6.0,
    "stats": {
      "hp": 35,
      "ataque": 55,
      "defesa": 40,
      "ataque_especial": 50,
      "defesa_especial": 50,
      "velocidade": 90
    },
    "descricao": "Um rato elétrico.",
    "evolucao": ["Raichu"]
  },
  {
    "nome": "Ditto",
    "tipos": ["Normal"],
    "habilidades": ["Limber"],
    "altura": 0.3,
    "peso": 4.0,
    "stats": {
      "hp": 48,
      "ataque": 48
    }
  }
]`

func loadSnapshot(t *testing.T) *dexstore.FileStore {
	t.Helper()
	s, err := dexstore.LoadFromReader(strings.NewReader(snapshot))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	return s
}

func TestFileStore_LookupRemapsStatKeys(t *testing.T) {
	t.Parallel()

	s := loadSnapshot(t)
	rec, err := s.Lookup(context.Background(), "pikachu")
	if err != nil {
		t.Fatalf("Lookup(pikachu): %v", err)
	}

	if rec.Source != dex.SourceLocalCache {
		t.Errorf("Source = %q, want %q", rec.Source, dex.SourceLocalCache)
	}
	if rec.Name != "Pikachu" {
		t.Errorf("Name = %q, want Pikachu", rec.Name)
	}

	// Portuguese snapshot stat names must surface under canonical keys.
	wantStats := map[string]int{
		dex.StatHP:             35,
		dex.StatAttack:         55,
		dex.StatDefense:        40,
		dex.StatSpecialAttack:  50,
		dex.StatSpecialDefense: 50,
		dex.StatSpeed:          90,
	}
	for key, want := range wantStats {
		if !rec.StatKnown(key) {
			t.Errorf("stat %q missing", key)
			continue
		}
		if got := rec.Stat(key); got != want {
			t.Errorf("stat %q = %d, want %d", key, got, want)
		}
	}
}

func TestFileStore_LookupCaseInsensitive(t *testing.T) {
	t.Parallel()

	s := loadSnapshot(t)
	if _, err := s.Lookup(context.Background(), "  PIKACHU "); err != nil {
		t.Errorf("Lookup(PIKACHU): %v, want success", err)
	}
}

func TestFileStore_LookupMiss(t *testing.T) {
	t.Parallel()

	s := loadSnapshot(t)
	_, err := s.Lookup(context.Background(), "missingno")
	if !errors.Is(err, dexstore.ErrNotFound) {
		t.Errorf("Lookup(missingno) err = %v, want ErrNotFound", err)
	}
}

func TestFileStore_MissingFieldsDegradeToSentinels(t *testing.T) {
	t.Parallel()

	s := loadSnapshot(t)
	rec, err := s.Lookup(context.Background(), "ditto")
	if err != nil {
		t.Fatalf("Lookup(ditto): %v", err)
	}

	if rec.Description != dex.DescriptionUnavailable {
		t.Errorf("Description = %q, want sentinel %q", rec.Description, dex.DescriptionUnavailable)
	}
	if len(rec.Evolutions) != 1 || rec.Evolutions[0] != dex.NoEvolution {
		t.Errorf("Evolutions = %v, want [%q]", rec.Evolutions, dex.NoEvolution)
	}

	// Stats keys must all be present even when the snapshot omits values.
	for _, key := range dex.StatKeys {
		if _, ok := rec.Stats[key]; !ok {
			t.Errorf("stat key %q absent from map", key)
		}
	}
	if rec.StatKnown(dex.StatSpeed) {
		t.Error("speed should be unknown for ditto in this snapshot")
	}
	if rec.Stat(dex.StatSpeed) != 0 {
		t.Errorf("missing stat should read as 0, got %d", rec.Stat(dex.StatSpeed))
	}
}

func TestFileStore_Names(t *testing.T) {
	t.Parallel()

	s := loadSnapshot(t)
	names, err := s.Names(context.Background())
	if err != nil {
		t.Fatalf("Names: %v", err)
	}
	want := []string{"pikachu", "ditto"}
	if !slices.Equal(names, want) {
		t.Errorf("Names = %v, want %v", names, want)
	}
}

func TestLoadFromReader_RejectsNamelessEntry(t *testing.T) {
	t.Parallel()

	_, err := dexstore.LoadFromReader(strings.NewReader(`[{"tipos": ["Fire"]}]`))
	if err == nil {
		t.Fatal("LoadFromReader accepted an entry without a name")
	}
}
