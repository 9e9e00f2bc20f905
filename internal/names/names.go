// Package names normalises creature names: punctuation stripping, fuzzy
// correction against the known-names index, and API slug encoding.
//
// Correction proceeds in two stages, mirroring how spoken-entity alignment
// works elsewhere in the wild:
//
//  1. Phonetic candidate filtering: Double Metaphone codes are computed for
//     the input and for each known name. Names sharing a code with the input
//     become phonetic candidates and are accepted at a lower similarity
//     threshold.
//
//  2. Jaro-Winkler ranking: among candidates the highest-scoring name wins,
//     provided it clears the applicable threshold. Non-phonetic names are
//     still considered under a stricter fuzzy threshold.
//
// Every function in this package degrades gracefully: the worst case is the
// lower-cased input passed through unchanged, never an error. A garbled name
// therefore fails later as a resolution miss rather than a formatting error.
package names

import (
	"strings"
	"unicode"

	"github.com/antzucaro/matchr"
)

const (
	defaultPhoneticThreshold = 0.70
	defaultFuzzyThreshold    = 0.85
)

// apiOverrides maps lower-cased display names the public API encodes
// irregularly to their exact slugs. Applied before the generic slug rules.
var apiOverrides = map[string]string{
	"nidoran(f)": "nidoran-f",
	"nidoran(m)": "nidoran-m",
	"mr. mime":   "mr-mime",
	"farfetch'd": "farfetchd",
}

// Clean removes punctuation characters from raw and trims surrounding
// whitespace. Letter case is preserved.
func Clean(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if unicode.IsPunct(r) {
			continue
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}

// Title capitalises the first letter of each whitespace-separated word and
// lower-cases the rest, producing the display form of a name.
func Title(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = capitalize(w)
	}
	return strings.Join(words, " ")
}

// capitalize upper-cases the first rune of w and lower-cases the remainder.
func capitalize(w string) string {
	if w == "" {
		return w
	}
	runes := []rune(strings.ToLower(w))
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

// APISlug converts a display name into the slug used to address the remote
// API: lower-cased, irregular names rewritten via the override table, spaces
// hyphenated, and remaining punctuation stripped.
func APISlug(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	if override, ok := apiOverrides[slug]; ok {
		return override
	}

	slug = strings.ReplaceAll(slug, " ", "-")
	var b strings.Builder
	b.Grow(len(slug))
	for _, r := range slug {
		if r != '-' && unicode.IsPunct(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// CorrectorOption is a functional option for configuring a [Corrector].
type CorrectorOption func(*Corrector)

// WithPhoneticThreshold sets the minimum Jaro-Winkler score required for a
// phonetically-matched name to be accepted. Default: 0.70.
func WithPhoneticThreshold(threshold float64) CorrectorOption {
	return func(c *Corrector) {
		c.phoneticThreshold = threshold
	}
}

// WithFuzzyThreshold sets the minimum Jaro-Winkler score required for names
// with no phonetic overlap. Default: 0.85.
func WithFuzzyThreshold(threshold float64) CorrectorOption {
	return func(c *Corrector) {
		c.fuzzyThreshold = threshold
	}
}

// Corrector fuzzy-matches typed names against the known-names index.
// It is read-only after construction and safe for concurrent use.
type Corrector struct {
	phoneticThreshold float64
	fuzzyThreshold    float64
}

// NewCorrector returns a [Corrector] configured with the supplied options.
func NewCorrector(opts ...CorrectorOption) *Corrector {
	c := &Corrector{
		phoneticThreshold: defaultPhoneticThreshold,
		fuzzyThreshold:    defaultFuzzyThreshold,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Correct returns the best single match for typed among known, comparing
// case-insensitively and ranking by Jaro-Winkler similarity. When no
// candidate clears its threshold, the lower-cased input is returned
// unchanged. Exact (case-insensitive) members of known are fixed points.
func (c *Corrector) Correct(typed string, known []string) string {
	lower := strings.ToLower(strings.TrimSpace(typed))
	if lower == "" || len(known) == 0 {
		return lower
	}

	inputPrimary, inputSecondary := matchr.DoubleMetaphone(lower)

	var (
		best         string
		bestScore    float64
		bestPhonetic bool
	)

	for _, name := range known {
		nameLower := strings.ToLower(name)
		if nameLower == lower {
			return nameLower
		}

		score := matchr.JaroWinkler(lower, nameLower, false)
		phonetic := codesOverlap(inputPrimary, inputSecondary, nameLower)

		switch {
		case phonetic && score >= c.phoneticThreshold:
			if !bestPhonetic || score > bestScore {
				best, bestScore, bestPhonetic = nameLower, score, true
			}
		case !phonetic && !bestPhonetic && score >= c.fuzzyThreshold:
			if score > bestScore {
				best, bestScore = nameLower, score
			}
		}
	}

	if best == "" {
		return lower
	}
	return best
}

// codesOverlap reports whether either Double Metaphone code of the input
// matches either code of name. Empty codes never match.
func codesOverlap(inputPrimary, inputSecondary, name string) bool {
	p, s := matchr.DoubleMetaphone(name)
	for _, in := range []string{inputPrimary, inputSecondary} {
		if in == "" {
			continue
		}
		if in == p || (s != "" && in == s) {
			return true
		}
	}
	return false
}
