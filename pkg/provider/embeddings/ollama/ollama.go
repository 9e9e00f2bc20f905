// Package ollama embeds flavor texts through a local Ollama server.
//
// The provider talks to Ollama's native /api/embed endpoint. It sends one
// text per request; the semantic index embeds flavor entries one at a time
// as they are written.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pokedexlab/dexter/pkg/provider/embeddings"
)

// DefaultBaseURL is the address of a locally running Ollama instance.
const DefaultBaseURL = "http://localhost:11434"

var _ embeddings.Provider = (*Provider)(nil)

// wellKnownDimensions maps recognised embedding model names to their output
// length. Unknown models report 0 and leave the choice to the caller.
var wellKnownDimensions = map[string]int{
	"nomic-embed-text":  768,
	"mxbai-embed-large": 1024,
	"all-minilm":        384,
}

// Provider implements [embeddings.Provider] on Ollama's /api/embed endpoint.
// Safe for concurrent use.
type Provider struct {
	baseURL    string
	model      string
	httpClient *http.Client
	dimensions int
}

// Option is a functional option for [New].
type Option func(*Provider)

// WithTimeout sets a per-request HTTP timeout. Zero means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(p *Provider) {
		if d > 0 {
			p.httpClient.Timeout = d
		}
	}
}

// WithDimensions overrides the vector length reported by Dimensions. Use it
// for models missing from the well-known table.
func WithDimensions(dims int) Option {
	return func(p *Provider) {
		p.dimensions = dims
	}
}

// New constructs a Provider for the given server and model. An empty baseURL
// falls back to [DefaultBaseURL]; the model name is required.
func New(baseURL string, model string, opts ...Option) (*Provider, error) {
	if model == "" {
		return nil, fmt.Errorf("ollama: model must not be empty")
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	p := &Provider{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{},
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// embedRequest is the body of a POST /api/embed request. Input is a list in
// the wire format even though only one text is ever sent.
type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Model      string      `json:"model"`
	Embeddings [][]float32 `json:"embeddings"`
}

// Embed implements [embeddings.Provider]. The text is forwarded verbatim;
// any model-specific prefix such as nomic's "search_document: " is the
// caller's responsibility.
func (p *Provider) Embed(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(embedRequest{Model: p.model, Input: []string{text}})
	if err != nil {
		return nil, fmt.Errorf("ollama: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("ollama: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama: embed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("ollama: embed: status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	var result embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("ollama: decode response: %w", err)
	}
	if len(result.Embeddings) == 0 || len(result.Embeddings[0]) == 0 {
		return nil, fmt.Errorf("ollama: embed: empty response")
	}
	return result.Embeddings[0], nil
}

// Dimensions implements [embeddings.Provider]. A configured dimension wins;
// otherwise the well-known table is consulted by model name prefix. Unknown
// models report 0.
func (p *Provider) Dimensions() int {
	if p.dimensions > 0 {
		return p.dimensions
	}
	name := strings.ToLower(p.model)
	if i := strings.IndexByte(name, ':'); i >= 0 {
		name = name[:i]
	}
	return wellKnownDimensions[name]
}

// ModelID implements [embeddings.Provider].
func (p *Provider) ModelID() string {
	return p.model
}
