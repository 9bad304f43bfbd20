package semantic

import (
	"context"
	"fmt"
	"time"

	"maitred/internal/models"

	"github.com/tmc/langchaingo/embeddings"
)

// Remote embeds text through a hosted embedding model. Any transport or
// provider failure is reported as models.ErrBackendUnavailable so callers
// can degrade to lexical-only matching.
type Remote struct {
	embedder *embeddings.EmbedderImpl
	timeout  time.Duration
}

// NewRemote wraps an embedding client such as an openai.LLM.
func NewRemote(client embeddings.EmbedderClient, timeout time.Duration) (*Remote, error) {
	embedder, err := embeddings.NewEmbedder(client)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Remote{embedder: embedder, timeout: timeout}, nil
}

// Name returns the identifier of this embedder implementation.
func (r *Remote) Name() string { return "remote" }

// Prepare is a no-op: hosted embedding models carry their own vocabulary.
func (r *Remote) Prepare([]string) error { return nil }

// Embed requests an embedding from the backend, bounded by the configured
// timeout.
func (r *Remote) Embed(ctx context.Context, text string) ([]float64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	vec, err := r.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrBackendUnavailable, err)
	}

	out := make([]float64, len(vec))
	for i, v := range vec {
		out[i] = float64(v)
	}
	return out, nil
}
