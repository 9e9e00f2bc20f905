// Package intent classifies user utterances into one of the answer
// categories dexter knows how to render.
//
// Classification is an ordered table of compiled keyword patterns
// (Portuguese, word-boundary matched, case-insensitive); the first matching
// rule wins and the order is fixed. There is no overlap resolution beyond
// first-match — "qual o ataque e a defesa" classifies as Attack because the
// attack rule is tested first.
package intent

import (
	"regexp"
	"strings"
)

// Kind is an answer category.
type Kind string

const (
	Attack    Kind = "ataque"
	Defense   Kind = "defesa"
	Type      Kind = "tipo"
	Ability   Kind = "habilidade"
	Evolution Kind = "evolucao"
	Weakness  Kind = "fraqueza"
	Location  Kind = "localizacao"
	Compare   Kind = "comparar"
	General   Kind = "geral"
)

// IsValid reports whether k is a recognised intent kind.
func (k Kind) IsValid() bool {
	switch k {
	case Attack, Defense, Type, Ability, Evolution, Weakness, Location, Compare, General:
		return true
	}
	return false
}

// rule pairs a compiled pattern with the kind it selects.
type rule struct {
	kind    Kind
	pattern *regexp.Regexp
}

// rules is the fixed classification order. Do not reorder: first match wins.
var rules = []rule{
	{Attack, regexp.MustCompile(`\b(ataque|poder|força|dano)\b`)},
	{Defense, regexp.MustCompile(`\b(defesa|proteção|resistência)\b`)},
	{Type, regexp.MustCompile(`\b(tipos?|elemento)\b`)},
	{Ability, regexp.MustCompile(`\b(habilidades?|poderes?)\b`)},
	{Evolution, regexp.MustCompile(`\b(evolução|evolui)\b`)},
	{Weakness, regexp.MustCompile(`\b(fraquezas?|vulnerabilidades?|contra|fracos?)\b`)},
	{Location, regexp.MustCompile(`\b(local|encontrar|onde acha|habitat)\b`)},
	{Compare, regexp.MustCompile(`\b(comparar|vs|versus|mais forte|quem ganha)\b`)},
}

// Classify returns the intent kind for utterance, or [General] when no rule
// matches. Matching is case-insensitive.
func Classify(utterance string) Kind {
	lower := strings.ToLower(utterance)
	for _, r := range rules {
		if r.pattern.MatchString(lower) {
			return r.kind
		}
	}
	return General
}
