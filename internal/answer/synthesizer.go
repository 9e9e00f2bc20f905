// Package answer renders resolved creature records into Portuguese reply
// text, one template per question intent.
package answer

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/pokedexlab/dexter/internal/convo"
	"github.com/pokedexlab/dexter/internal/dex"
	"github.com/pokedexlab/dexter/internal/intent"
	"github.com/pokedexlab/dexter/internal/typechart"
)

// CompareHint is returned when a comparison cannot mine two distinct
// creature names from the conversation.
const CompareHint = "Por favor, pergunte algo como 'Quem é mais forte: Charizard ou Blastoise?'"

// noWeakness replaces an empty weakness list.
const noWeakness = "Nenhum tipo em especial"

// unknownLocation answers location questions about creatures outside the
// curated habitat table.
const unknownLocation = "Localização desconhecida na primeira geração"

// habitats is a small curated habitat table. Everything else degrades to
// [unknownLocation].
var habitats = map[string]string{
	"Pikachu":   "Floresta de Viridian",
	"Charizard": "Montanha da Liga Pokémon",
	"Blastoise": "Lagos do Vale Celeste",
}

// nameLike matches capitalised words in conversation text. Deliberately
// loose: any capitalised word counts as a candidate creature name, and
// resolution sorts out the rest.
var nameLike = regexp.MustCompile(`[A-Z][a-z]+`)

// Resolver is the subset of creature resolution the synthesizer needs for
// comparisons, which re-resolve both sides independently.
type Resolver interface {
	Resolve(ctx context.Context, name string) (dex.Record, error)
}

// Option is a functional option for [Synthesizer].
type Option func(*Synthesizer)

// WithLogger replaces the default logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Synthesizer) { s.log = l }
}

// Synthesizer renders replies. Safe for concurrent use.
type Synthesizer struct {
	resolver Resolver
	log      *slog.Logger
}

// New constructs a Synthesizer. The resolver is only consulted for
// comparison questions.
func New(resolver Resolver, opts ...Option) *Synthesizer {
	s := &Synthesizer{
		resolver: resolver,
		log:      slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Synthesize renders the reply for kind over the resolved record. The memory
// is only consulted for comparison questions, which mine it for the two
// creatures being compared.
func (s *Synthesizer) Synthesize(ctx context.Context, kind intent.Kind, rec dex.Record, mem *convo.Memory) string {
	switch kind {
	case intent.Attack:
		return fmt.Sprintf("⚔️ %s tem %d de ataque base!", rec.Name, rec.Stat(dex.StatAttack))
	case intent.Defense:
		return fmt.Sprintf("🛡️ %s tem %d de defesa base!", rec.Name, rec.Stat(dex.StatDefense))
	case intent.Type:
		return fmt.Sprintf("🌿 %s é do tipo: %s", rec.Name, strings.Join(rec.Types, ", "))
	case intent.Ability:
		return fmt.Sprintf("✨ Habilidades de %s: %s", rec.Name, strings.Join(rec.Abilities, ", "))
	case intent.Evolution:
		return fmt.Sprintf("🔮 %s evolui para: %s", rec.Name, strings.Join(rec.Evolutions, ", "))
	case intent.Weakness:
		weak := strings.Join(typechart.Weaknesses(rec.Types), ", ")
		if weak == "" {
			weak = noWeakness
		}
		return fmt.Sprintf("⚠️ %s é fraco contra: %s", rec.Name, weak)
	case intent.Location:
		loc, ok := habitats[rec.Name]
		if !ok {
			loc = unknownLocation
		}
		return fmt.Sprintf("🗺️ %s pode ser encontrado em: %s", rec.Name, loc)
	case intent.Compare:
		return s.compare(ctx, mem)
	default:
		return summary(rec)
	}
}

// compare mines the conversation for the two creatures under discussion and
// renders a per-stat comparison. Falls back to a usage hint when fewer than
// two distinct names can be mined or either side fails to resolve.
func (s *Synthesizer) compare(ctx context.Context, mem *convo.Memory) string {
	if mem == nil {
		return CompareHint
	}

	first, second, ok := mineNames(mem.Context())
	if !ok {
		return CompareHint
	}

	recA, err := s.resolver.Resolve(ctx, first)
	if err != nil {
		s.log.Debug("comparison side failed to resolve", "name", first, "error", err)
		return CompareHint
	}
	recB, err := s.resolver.Resolve(ctx, second)
	if err != nil {
		s.log.Debug("comparison side failed to resolve", "name", second, "error", err)
		return CompareHint
	}

	var analysis []string
	for _, stat := range []string{dex.StatAttack, dex.StatDefense, dex.StatHP, dex.StatSpeed} {
		a, b := recA.Stat(stat), recB.Stat(stat)
		switch {
		case a > b:
			analysis = append(analysis, fmt.Sprintf("%s tem mais %s (%d vs %d)", recA.Name, stat, a, b))
		case b > a:
			analysis = append(analysis, fmt.Sprintf("%s tem mais %s (%d vs %d)", recB.Name, stat, b, a))
		default:
			analysis = append(analysis, fmt.Sprintf("Empate em %s (%d)", stat, a))
		}
	}
	if len(analysis) > 3 {
		analysis = analysis[:3]
	}

	return fmt.Sprintf("⚖️ Comparação entre %s e %s:\n"+
		"🔥 Ataque: %d vs %d\n"+
		"🛡️ Defesa: %d vs %d\n"+
		"❤️ HP: %d vs %d\n"+
		"⚡ Velocidade: %d vs %d\n"+
		"\n🔍 Análise:\n%s",
		recA.Name, recB.Name,
		recA.Stat(dex.StatAttack), recB.Stat(dex.StatAttack),
		recA.Stat(dex.StatDefense), recB.Stat(dex.StatDefense),
		recA.Stat(dex.StatHP), recB.Stat(dex.StatHP),
		recA.Stat(dex.StatSpeed), recB.Stat(dex.StatSpeed),
		strings.Join(analysis, "\n"))
}

// mineNames extracts the first two distinct capitalised words from text.
func mineNames(text string) (first, second string, ok bool) {
	for _, w := range nameLike.FindAllString(text, -1) {
		switch {
		case first == "":
			first = w
		case w != first:
			return first, w, true
		}
	}
	return "", "", false
}

// summary is the full record dump used for general questions.
func summary(rec dex.Record) string {
	return fmt.Sprintf("📘 %s (%s)\n"+
		"🌿 Tipos: %s\n"+
		"✨ Habilidades: %s\n"+
		"📖 Descrição: %s\n"+
		"📏 Altura: %.1fm | Peso: %.1fkg\n"+
		"⚔️ Stats:\n"+
		"  - HP: %d\n"+
		"  - Ataque: %d\n"+
		"  - Defesa: %d\n"+
		"  - Velocidade: %d\n"+
		"🔮 Evolução: %s",
		rec.Name, rec.Source,
		strings.Join(rec.Types, ", "),
		strings.Join(rec.Abilities, ", "),
		rec.Description,
		rec.HeightM, rec.WeightKg,
		rec.Stat(dex.StatHP),
		rec.Stat(dex.StatAttack),
		rec.Stat(dex.StatDefense),
		rec.Stat(dex.StatSpeed),
		strings.Join(rec.Evolutions, ", "))
}
