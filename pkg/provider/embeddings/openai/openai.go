// Package openai embeds flavor texts through the OpenAI embeddings API.
package openai

import (
	"context"
	"fmt"
	"net/http"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"

	"github.com/pokedexlab/dexter/pkg/provider/embeddings"
)

// DefaultModel is the embeddings model used when none is configured.
const DefaultModel = oai.EmbeddingModelTextEmbedding3Small

var _ embeddings.Provider = (*Provider)(nil)

// nativeDimensions holds the full output length per model. Models absent
// from the table report 0 and leave the choice to the caller.
var nativeDimensions = map[string]int{
	string(oai.EmbeddingModelTextEmbedding3Small): 1536,
	string(oai.EmbeddingModelTextEmbedding3Large): 3072,
	string(oai.EmbeddingModelTextEmbeddingAda002): 1536,
}

// Provider implements [embeddings.Provider] on the OpenAI API.
//
// When a dimension is set via [WithDimensions] it is sent with each request
// and the API truncates and renormalises the vector server-side. That keeps
// the vector length equal to the index's column width even when the model's
// native length differs.
type Provider struct {
	client     oai.Client
	model      string
	dimensions int
}

// Option is a functional option for [New].
type Option func(*Provider) []option.RequestOption

// WithBaseURL points the client at an OpenAI-compatible endpoint.
func WithBaseURL(url string) Option {
	return func(*Provider) []option.RequestOption {
		return []option.RequestOption{option.WithBaseURL(url)}
	}
}

// WithTimeout sets a per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(*Provider) []option.RequestOption {
		return []option.RequestOption{option.WithHTTPClient(&http.Client{Timeout: d})}
	}
}

// WithDimensions requests vectors of the given length. Only the
// text-embedding-3 family honours this.
func WithDimensions(dims int) Option {
	return func(p *Provider) []option.RequestOption {
		p.dimensions = dims
		return nil
	}
}

// New constructs a Provider. An empty model falls back to [DefaultModel].
func New(apiKey string, model string, opts ...Option) (*Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai: api key must not be empty")
	}
	if model == "" {
		model = DefaultModel
	}

	p := &Provider{model: model}
	reqOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	for _, o := range opts {
		reqOpts = append(reqOpts, o(p)...)
	}
	p.client = oai.NewClient(reqOpts...)
	return p, nil
}

// Embed implements [embeddings.Provider].
func (p *Provider) Embed(ctx context.Context, text string) ([]float32, error) {
	params := oai.EmbeddingNewParams{
		Model: p.model,
		Input: oai.EmbeddingNewParamsInputUnion{OfString: param.NewOpt(text)},
	}
	if p.dimensions > 0 {
		params.Dimensions = param.NewOpt(int64(p.dimensions))
	}

	resp, err := p.client.Embeddings.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai: embed: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("openai: embed: empty response")
	}

	vec := make([]float32, len(resp.Data[0].Embedding))
	for i, v := range resp.Data[0].Embedding {
		vec[i] = float32(v)
	}
	return vec, nil
}

// Dimensions implements [embeddings.Provider]. A configured dimension wins
// over the model's native length.
func (p *Provider) Dimensions() int {
	if p.dimensions > 0 {
		return p.dimensions
	}
	return nativeDimensions[p.model]
}

// ModelID implements [embeddings.Provider].
func (p *Provider) ModelID() string {
	return p.model
}
