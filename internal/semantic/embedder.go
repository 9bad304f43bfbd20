// Package semantic answers nearest-match queries over menu text by meaning
// rather than exact tokens. It is a derived, rebuildable cache over the
// catalog and is never authoritative for item existence or price.
package semantic

import "context"

// Embedder converts free text into a numeric vector representation.
// Implementations may require a preparation phase over the corpus.
type Embedder interface {
	Name() string
	Prepare(corpus []string) error
	Embed(ctx context.Context, text string) ([]float64, error)
}
