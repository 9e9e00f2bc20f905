// Package orchestrator runs a question through the full answering pipeline:
// intent classification, creature-name extraction, disambiguation,
// resolution, reply synthesis, and the memory update.
//
// Disambiguation spans two turns. When a question names two creatures the
// orchestrator replies with a numbered choice and parks the question on the
// session; the next message from the same session is read as the choice. A
// message that is not a valid choice abandons the parked question and is
// processed as a fresh one.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/pokedexlab/dexter/internal/answer"
	"github.com/pokedexlab/dexter/internal/convo"
	"github.com/pokedexlab/dexter/internal/dex"
	"github.com/pokedexlab/dexter/internal/intent"
	"github.com/pokedexlab/dexter/internal/names"
	"github.com/pokedexlab/dexter/internal/observe"
)

// Reply texts for the turns that never reach synthesis.
const (
	msgNoCreature = "❓ Não identifiquei um Pokémon na sua pergunta. Poderia ser mais específico?"
	msgNotFound   = "❌ Não encontrei dados sobre %s"
	msgWhichOne   = "Você quis dizer %s ou %s? (1/2)"
)

// Reply is the outcome of one conversational turn.
type Reply struct {
	// Text is the message to send back to the client.
	Text string

	// NeedsChoice is true when Text asks the client to pick one of
	// Candidates. The next message on the session is read as that choice.
	NeedsChoice bool

	// Candidates holds the creature names offered for disambiguation, in
	// the order they are numbered in Text.
	Candidates []string
}

// Resolver resolves a typed creature name into a record.
type Resolver interface {
	Resolve(ctx context.Context, name string) (dex.Record, error)
}

// Roster lists the locally known creature names, lower-cased.
type Roster interface {
	Names(ctx context.Context) ([]string, error)
}

// Option is a functional option for [Orchestrator].
type Option func(*Orchestrator)

// WithMetrics replaces the default metrics instance.
func WithMetrics(m *observe.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithLogger replaces the default logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.log = l }
}

// Orchestrator answers questions. Safe for concurrent use; per-session state
// lives on the [convo.Session] passed to [Orchestrator.Answer].
type Orchestrator struct {
	resolver Resolver
	roster   Roster
	synth    *answer.Synthesizer
	metrics  *observe.Metrics
	log      *slog.Logger
}

// New constructs an Orchestrator.
func New(resolver Resolver, roster Roster, synth *answer.Synthesizer, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		resolver: resolver,
		roster:   roster,
		synth:    synth,
		metrics:  observe.DefaultMetrics(),
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Answer processes one message on the session and returns the reply.
//
// The session memory is only updated when a creature was resolved and a real
// answer produced; clarification prompts and failure replies leave the
// memory untouched.
func (o *Orchestrator) Answer(ctx context.Context, sess *convo.Session, message string) (Reply, error) {
	start := time.Now()
	defer func() {
		o.metrics.AnswerDuration.Record(ctx, time.Since(start).Seconds())
	}()

	question := message
	var candidates []string

	if sess.HasPending() {
		parked, cands := sess.TakePending()
		if pick, ok := parseChoice(message, len(cands)); ok {
			question = parked
			candidates = []string{cands[pick-1]}
		}
	}

	kind := intent.Classify(question)
	o.metrics.RecordQuestion(ctx, string(kind))

	if candidates == nil {
		extracted, err := o.extract(ctx, question)
		if err != nil {
			return Reply{}, fmt.Errorf("orchestrator: extract names: %w", err)
		}
		candidates = extracted
	}

	if len(candidates) == 0 {
		if last := sess.Memory().LastEntity(); last != "" {
			candidates = []string{last}
		}
	}
	if len(candidates) == 0 {
		return Reply{Text: msgNoCreature}, nil
	}

	if first, second, ok := distinctPair(candidates); ok {
		sess.SetPending(question, []string{first, second})
		return Reply{
			Text:        fmt.Sprintf(msgWhichOne, first, second),
			NeedsChoice: true,
			Candidates:  []string{first, second},
		}, nil
	}

	rec, resolved := o.resolveFirst(ctx, candidates)
	if !resolved {
		return Reply{Text: fmt.Sprintf(msgNotFound, strings.Join(candidates, ", "))}, nil
	}
	sess.Memory().SetLastEntity(rec.Name)

	text := o.synth.Synthesize(ctx, kind, rec, sess.Memory())
	sess.Memory().Add(question, text)
	return Reply{Text: text}, nil
}

// extract returns the display-form names of roster creatures mentioned in
// the question, in order of appearance, duplicates preserved.
func (o *Orchestrator) extract(ctx context.Context, question string) ([]string, error) {
	roster, err := o.roster.Names(ctx)
	if err != nil {
		return nil, err
	}
	known := make(map[string]bool, len(roster))
	for _, n := range roster {
		known[strings.ToLower(n)] = true
	}

	var found []string
	for _, word := range strings.Fields(question) {
		cleaned := strings.ToLower(names.Clean(word))
		if known[cleaned] {
			found = append(found, names.Title(cleaned))
		}
	}
	return found, nil
}

// resolveFirst tries the candidates in order and returns the first record
// that resolves.
func (o *Orchestrator) resolveFirst(ctx context.Context, candidates []string) (dex.Record, bool) {
	for _, name := range candidates {
		rec, err := o.resolver.Resolve(ctx, name)
		if err != nil {
			o.log.Debug("candidate did not resolve", "name", name, "error", err)
			continue
		}
		return rec, true
	}
	return dex.Record{}, false
}

// parseChoice reads a disambiguation reply as a 1-based candidate index.
func parseChoice(message string, n int) (int, bool) {
	pick, err := strconv.Atoi(strings.TrimSpace(message))
	if err != nil || pick < 1 || pick > n {
		return 0, false
	}
	return pick, true
}

// distinctPair returns the first two distinct names among the candidates.
// ok is false when all candidates are the same creature.
func distinctPair(candidates []string) (first, second string, ok bool) {
	first = candidates[0]
	for _, c := range candidates[1:] {
		if c != first {
			return first, c, true
		}
	}
	return "", "", false
}
