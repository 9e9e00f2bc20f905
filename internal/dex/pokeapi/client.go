// Package pokeapi is a minimal read-only client for the public creature-data
// API. It covers the three lookups resolution needs: the primary record, the
// species record (flavor text plus evolution-chain reference), and the
// evolution chain itself.
//
// Every call uses a short fixed timeout and treats any non-200 status the
// same as a network failure; the resolver maps both onto a cache fallback.
// Only standard library packages are used — net/http and encoding/json.
package pokeapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// DefaultBaseURL is the public API endpoint.
const DefaultBaseURL = "https://pokeapi.co/api/v2"

// DefaultTimeout bounds every HTTP call. A timeout is handled identically to
// a non-200 status: the lookup is a miss, never a hang.
const DefaultTimeout = 5 * time.Second

// StatusError reports a non-200 response from the API. The resolver uses the
// code to distinguish a missing creature from a server-side failure.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Code)
}

// Option is a functional option for [Client].
type Option func(*Client)

// WithTimeout overrides the per-request timeout. Zero or negative keeps the
// default.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client entirely. Mainly for
// tests that need a transport-level fault injection.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// Client issues lookups against one API base URL. Safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New constructs a Client for baseURL (empty means [DefaultBaseURL]).
// A trailing slash is stripped for consistent URL construction.
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// BaseURL returns the configured API base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Pokemon is the subset of the primary record payload dexter consumes.
type Pokemon struct {
	Name   string `json:"name"`
	Height int    `json:"height"` // decimetres
	Weight int    `json:"weight"` // hectograms
	Types  []struct {
		Type struct {
			Name string `json:"name"`
		} `json:"type"`
	} `json:"types"`
	Abilities []struct {
		Ability struct {
			Name string `json:"name"`
		} `json:"ability"`
	} `json:"abilities"`
	Stats []struct {
		BaseStat int `json:"base_stat"`
		Stat     struct {
			Name string `json:"name"`
		} `json:"stat"`
	} `json:"stats"`
}

// Species is the subset of the species payload dexter consumes.
type Species struct {
	FlavorTextEntries []struct {
		FlavorText string `json:"flavor_text"`
		Language   struct {
			Name string `json:"name"`
		} `json:"language"`
	} `json:"flavor_text_entries"`
	EvolutionChain *struct {
		URL string `json:"url"`
	} `json:"evolution_chain"`
}

// ChainNode is one node of the evolution-chain tree.
type ChainNode struct {
	Species struct {
		Name string `json:"name"`
	} `json:"species"`
	EvolvesTo []ChainNode `json:"evolves_to"`
}

// EvolutionChain is the evolution-chain payload.
type EvolutionChain struct {
	Chain ChainNode `json:"chain"`
}

// Pokemon fetches the primary record for slug.
func (c *Client) Pokemon(ctx context.Context, slug string) (*Pokemon, error) {
	var p Pokemon
	if err := c.getJSON(ctx, c.baseURL+"/pokemon/"+slug, &p); err != nil {
		return nil, fmt.Errorf("pokeapi: pokemon %q: %w", slug, err)
	}
	return &p, nil
}

// Species fetches the species record for slug.
func (c *Client) Species(ctx context.Context, slug string) (*Species, error) {
	var s Species
	if err := c.getJSON(ctx, c.baseURL+"/pokemon-species/"+slug, &s); err != nil {
		return nil, fmt.Errorf("pokeapi: species %q: %w", slug, err)
	}
	return &s, nil
}

// Chain fetches the evolution chain at the reference URL returned inside a
// [Species] payload.
func (c *Client) Chain(ctx context.Context, url string) (*EvolutionChain, error) {
	var ec EvolutionChain
	if err := c.getJSON(ctx, url, &ec); err != nil {
		return nil, fmt.Errorf("pokeapi: evolution chain: %w", err)
	}
	return &ec, nil
}

// Ping probes the API index endpoint. Used by readiness checks.
func (c *Client) Ping(ctx context.Context) error {
	var idx struct{}
	if err := c.getJSON(ctx, c.baseURL+"/", &idx); err != nil {
		return fmt.Errorf("pokeapi: ping: %w", err)
	}
	return nil
}

// getJSON issues a GET and decodes the 200 response body into out. Any other
// status is an error (the caller treats it as a miss).
func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &StatusError{Code: resp.StatusCode}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// EnglishFlavorText returns the first English flavor text entry with
// newlines and form feeds flattened to spaces. ok is false when the payload
// carries no English entry.
func (s *Species) EnglishFlavorText() (text string, ok bool) {
	for _, entry := range s.FlavorTextEntries {
		if entry.Language.Name != "en" {
			continue
		}
		text = strings.NewReplacer("\n", " ", "\f", " ").Replace(entry.FlavorText)
		return text, true
	}
	return "", false
}

// EvolutionNames walks the chain tree in pre-order (node first, then each
// evolves_to branch depth-first) and collects species names, display
// capitalised. The node whose lower-cased name equals skip is omitted, so a
// creature's own stage never appears in its evolution list.
//
// The walk uses an explicit stack rather than recursion so a malformed,
// deeply nested payload cannot exhaust the call stack.
func (ec *EvolutionChain) EvolutionNames(skip string) []string {
	skip = strings.ToLower(skip)

	var result []string
	stack := []ChainNode{ec.Chain}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		name := node.Species.Name
		if name != "" && strings.ToLower(name) != skip {
			result = append(result, strings.ToUpper(name[:1])+strings.ToLower(name[1:]))
		}

		// Push branches in reverse so the first branch is visited first.
		for i := len(node.EvolvesTo) - 1; i >= 0; i-- {
			stack = append(stack, node.EvolvesTo[i])
		}
	}
	return result
}
