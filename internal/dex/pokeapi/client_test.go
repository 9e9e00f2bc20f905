package pokeapi_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/pokedexlab/dexter/internal/dex/pokeapi"
)

const pokemonBody = `{
	"name": "pikachu",
	"height": 4,
	"weight": 60,
	"types": [{"type": {"name": "electric"}}],
	"abilities": [{"ability": {"name": "static"}}, {"ability": {"name": "lightning-rod"}}],
	"stats": [
		{"base_stat": 35, "stat": {"name": "hp"}},
		{"base_stat": 55, "stat": {"name": "attack"}},
		{"base_stat": 90, "stat": {"name": "speed"}}
	]
}`

const speciesBody = `{
	"flavor_text_entries": [
		{"flavor_text": "Quando vários se juntam,\na eletricidade aumenta.", "language": {"name": "pt"}},
		{"flavor_text": "When several of\fthese POKéMON gather,\ntheir electricity builds.", "language": {"name": "en"}}
	],
	"evolution_chain": {"url": "http://example.invalid/evolution-chain/10/"}
}`

const chainBody = `{
	"chain": {
		"species": {"name": "pichu"},
		"evolves_to": [
			{
				"species": {"name": "pikachu"},
				"evolves_to": [
					{"species": {"name": "raichu"}, "evolves_to": []}
				]
			}
		]
	}
}`

func TestClient_Pokemon(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/pokemon/pikachu" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(pokemonBody))
	}))
	defer srv.Close()

	c := pokeapi.New(srv.URL)
	p, err := c.Pokemon(context.Background(), "pikachu")
	if err != nil {
		t.Fatalf("Pokemon: %v", err)
	}
	if p.Name != "pikachu" || p.Height != 4 || p.Weight != 60 {
		t.Errorf("unexpected payload: %+v", p)
	}
	if len(p.Types) != 1 || p.Types[0].Type.Name != "electric" {
		t.Errorf("unexpected types: %+v", p.Types)
	}
	if len(p.Abilities) != 2 || p.Abilities[1].Ability.Name != "lightning-rod" {
		t.Errorf("unexpected abilities: %+v", p.Abilities)
	}
	if len(p.Stats) != 3 || p.Stats[2].Stat.Name != "speed" || p.Stats[2].BaseStat != 90 {
		t.Errorf("unexpected stats: %+v", p.Stats)
	}
}

func TestClient_PokemonNotFound(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	c := pokeapi.New(srv.URL)
	if _, err := c.Pokemon(context.Background(), "missingno"); err == nil {
		t.Fatal("expected error for 404 response")
	}
}

func TestClient_Timeout(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := pokeapi.New(srv.URL, pokeapi.WithTimeout(20*time.Millisecond))
	if _, err := c.Pokemon(context.Background(), "pikachu"); err == nil {
		t.Fatal("expected timeout error")
	}
}

func TestSpecies_EnglishFlavorText(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(speciesBody))
	}))
	defer srv.Close()

	c := pokeapi.New(srv.URL)
	s, err := c.Species(context.Background(), "pikachu")
	if err != nil {
		t.Fatalf("Species: %v", err)
	}

	text, ok := s.EnglishFlavorText()
	if !ok {
		t.Fatal("expected an English flavor text entry")
	}
	want := "When several of these POKéMON gather, their electricity builds."
	if text != want {
		t.Errorf("flavor text = %q, want %q", text, want)
	}
	if s.EvolutionChain == nil || s.EvolutionChain.URL == "" {
		t.Error("expected an evolution chain reference")
	}
}

func TestSpecies_NoEnglishFlavorText(t *testing.T) {
	t.Parallel()

	var s pokeapi.Species
	if _, ok := s.EnglishFlavorText(); ok {
		t.Error("expected ok=false for an empty species payload")
	}
}

func TestChain_EvolutionNames(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(chainBody))
	}))
	defer srv.Close()

	c := pokeapi.New(srv.URL)
	ec, err := c.Chain(context.Background(), srv.URL+"/evolution-chain/10/")
	if err != nil {
		t.Fatalf("Chain: %v", err)
	}

	got := ec.EvolutionNames("pikachu")
	want := []string{"Pichu", "Raichu"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("EvolutionNames(pikachu) = %v, want %v", got, want)
	}

	got = ec.EvolutionNames("")
	want = []string{"Pichu", "Pikachu", "Raichu"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("EvolutionNames() = %v, want %v", got, want)
	}
}
