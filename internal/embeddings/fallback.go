// ABOUTME: Total embedder that substitutes random vectors when the provider fails.
// ABOUTME: Logs a warning, backs off briefly, and tags placeholder vectors as fallback.
package embeddings

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"
)

const previewRunes = 20

// FallbackEmbedder wraps an optional Provider. With no provider every vector is a placeholder.
type FallbackEmbedder struct {
	provider  Provider
	dim       int
	delay     time.Duration
	logger    *slog.Logger
	mu        sync.Mutex // guards rng, dim and dimFixed
	rng       *rand.Rand
	dimFixed  bool // set once any vector has been returned
	fallbacks atomic.Int64
}

// Option configures a FallbackEmbedder.
type Option func(*FallbackEmbedder)

// WithDimension sets the placeholder dimension used when the provider reports none.
func WithDimension(dim int) Option {
	return func(e *FallbackEmbedder) {
		e.dim = dim
	}
}

// WithDelay sets how long to wait after a provider failure before returning.
func WithDelay(d time.Duration) Option {
	return func(e *FallbackEmbedder) {
		e.delay = d
	}
}

// WithLogger sets the logger for fallback warnings.
func WithLogger(l *slog.Logger) Option {
	return func(e *FallbackEmbedder) {
		e.logger = l
	}
}

// WithRand sets the random source for placeholder vectors.
func WithRand(r *rand.Rand) Option {
	return func(e *FallbackEmbedder) {
		e.rng = r
	}
}

// NewFallbackEmbedder creates an embedder around provider, which may be nil.
func NewFallbackEmbedder(provider Provider, opts ...Option) *FallbackEmbedder {
	e := &FallbackEmbedder{
		provider: provider,
		dim:      768,
		delay:    time.Second,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if provider != nil && provider.Dimension() > 0 {
		e.dim = provider.Dimension()
	}
	if provider == nil {
		e.logger.Warn("no embedding provider available, using mock embeddings; similarity scores will be meaningless",
			"dimension", e.dim)
	}
	return e
}

// Embed returns the provider's vector, or a random placeholder if the provider is absent or fails.
func (e *FallbackEmbedder) Embed(ctx context.Context, text string) Vector {
	if e.provider == nil {
		return e.placeholder()
	}

	values, err := e.provider.Embed(ctx, text)
	if err == nil && len(values) == 0 {
		err = ErrEmptyEmbedding
	}
	if err == nil {
		err = e.claimDimension(len(values))
	}
	if err != nil {
		e.logger.Warn("embedding failed, using mock vector",
			"provider", e.provider.Name(),
			"text", preview(text),
			"error", err,
		)
		wait(ctx, e.delay)
		return e.placeholder()
	}
	return Vector{Values: values}
}

// claimDimension fixes the vector length on the first vector returned.
// Every later vector must match it, so real and placeholder vectors stay comparable.
func (e *FallbackEmbedder) claimDimension(n int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.dimFixed {
		e.dim = n
		e.dimFixed = true
		return nil
	}
	if n != e.dim {
		return fmt.Errorf("%w: got %d, want %d", ErrDimensionChanged, n, e.dim)
	}
	return nil
}

// Dimension returns the length of every vector this embedder returns.
func (e *FallbackEmbedder) Dimension() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dim
}

// Live reports whether a real provider is configured.
func (e *FallbackEmbedder) Live() bool {
	return e.provider != nil
}

// Name returns the provider name, or "mock" without one.
func (e *FallbackEmbedder) Name() string {
	if e.provider == nil {
		return "mock"
	}
	return e.provider.Name()
}

// Fallbacks returns how many placeholder vectors have been produced.
func (e *FallbackEmbedder) Fallbacks() int {
	return int(e.fallbacks.Load())
}

func (e *FallbackEmbedder) placeholder() Vector {
	e.fallbacks.Add(1)
	e.mu.Lock()
	e.dimFixed = true
	values := make([]float32, e.dim)
	for i := range values {
		values[i] = e.rng.Float32()
	}
	e.mu.Unlock()
	return Vector{Values: values, Fallback: true}
}

// wait sleeps for d unless ctx is done first.
func wait(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func preview(text string) string {
	runes := []rune(text)
	if len(runes) <= previewRunes {
		return text
	}
	return string(runes[:previewRunes]) + "..."
}
