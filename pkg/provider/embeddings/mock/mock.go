// Package mock is a test double for [embeddings.Provider]. It returns a
// pre-canned vector and records the texts submitted for embedding, so index
// tests can assert what was embedded without a live model.
package mock

import (
	"context"
	"sync"

	"github.com/pokedexlab/dexter/pkg/provider/embeddings"
)

var _ embeddings.Provider = (*Provider)(nil)

// Provider is a configurable in-memory [embeddings.Provider]. The zero value
// is usable; set the exported fields before handing it to the code under
// test. Safe for concurrent use.
type Provider struct {
	mu sync.Mutex

	// EmbedResult is returned by every Embed call.
	EmbedResult []float32

	// EmbedErr, when non-nil, is returned by Embed instead of EmbedResult.
	EmbedErr error

	// DimensionsValue is returned by Dimensions.
	DimensionsValue int

	// ModelIDValue is returned by ModelID.
	ModelIDValue string

	// EmbedCalls holds the texts passed to Embed, in call order.
	EmbedCalls []string
}

// Embed records the text and returns the configured result or error.
func (p *Provider) Embed(_ context.Context, text string) ([]float32, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.EmbedCalls = append(p.EmbedCalls, text)
	if p.EmbedErr != nil {
		return nil, p.EmbedErr
	}
	return p.EmbedResult, nil
}

// Dimensions returns DimensionsValue.
func (p *Provider) Dimensions() int {
	return p.DimensionsValue
}

// ModelID returns ModelIDValue.
func (p *Provider) ModelID() string {
	return p.ModelIDValue
}

// Reset clears the recorded calls.
func (p *Provider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.EmbedCalls = nil
}
