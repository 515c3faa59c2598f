// ABOUTME: Embedding interfaces for catalog and query vectors.
// ABOUTME: Provider is the fallible backend call; Embedder is the total contract the matcher uses.
package embeddings

import (
	"context"
	"errors"
)

var (
	// ErrMissingCredentials means the provider needs an API key and none was configured.
	ErrMissingCredentials = errors.New("embedding provider credentials missing")
	// ErrUnknownProvider means the configured provider name is not supported.
	ErrUnknownProvider = errors.New("unknown embedding provider")
	// ErrEmptyEmbedding means the provider answered without a vector.
	ErrEmptyEmbedding = errors.New("empty embedding in provider response")
	// ErrDimensionChanged means the provider returned a vector of a different length than earlier ones.
	ErrDimensionChanged = errors.New("embedding dimension changed")
)

// Provider generates vector embeddings from text via an external backend.
type Provider interface {
	// Name identifies the backend, e.g. "gemini".
	Name() string

	// Embed returns a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimension returns the dimensionality of the output vectors.
	Dimension() int
}

// Vector is an embedding plus whether it is a random placeholder.
type Vector struct {
	Values   []float32
	Fallback bool
}

// Embedder maps text to a vector and never fails.
type Embedder interface {
	Embed(ctx context.Context, text string) Vector
	Dimension() int
}
