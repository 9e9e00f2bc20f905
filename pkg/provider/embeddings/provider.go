// Package embeddings abstracts the text-embedding backends behind the
// semantic flavor-text index.
//
// The index stores one vector per creature description, so the unit of work
// is a single text; there is no batch path. Two backends ship with dexter:
// the OpenAI embeddings API and a local Ollama server.
package embeddings

import "context"

// Provider computes embedding vectors for flavor texts.
//
// All vectors from one Provider share a fixed length, reported by
// Dimensions. Vectors from different providers or models live in different
// spaces; the index records ModelID alongside each vector so a mismatch can
// be detected later.
//
// Implementations must be safe for concurrent use.
type Provider interface {
	// Embed returns the embedding vector for text. The text is sent to the
	// backend verbatim; dexter's descriptions are short English sentences
	// and need no chunking or prefixing.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the vector length this provider produces. Zero
	// means the length is not known up front; callers fall back to their
	// own default.
	Dimensions() int

	// ModelID names the underlying embedding model, stored with every
	// indexed vector.
	ModelID() string
}
