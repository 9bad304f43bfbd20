package semantic

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"maitred/internal/models"
)

// Lookup re-fetches authoritative item state from the catalog. The index
// only stores ids; price and availability always come from here.
type Lookup interface {
	Get(id uint) (models.MenuItem, error)
}

// Match is one semantic search hit, hydrated from the catalog.
type Match struct {
	Item  models.MenuItem
	Score float64
}

// Index holds vector representations of menu text. Rebuild publishes a new
// immutable snapshot; queries run against whichever snapshot they load, so
// readers never see a torn mix of old and new entries.
type Index struct {
	embedder Embedder
	lookup   Lookup

	mu   sync.RWMutex
	snap *indexSnapshot
}

type indexSnapshot struct {
	ids     []uint
	vectors [][]float64
}

// NewIndex creates an empty index over the given embedder and catalog view.
func NewIndex(embedder Embedder, lookup Lookup) *Index {
	return &Index{embedder: embedder, lookup: lookup}
}

// Rebuild reindexes the given items from scratch. The previous snapshot is
// discarded only once the replacement is fully built.
func (ix *Index) Rebuild(ctx context.Context, items []models.MenuItem) error {
	corpus := make([]string, len(items))
	for i := range items {
		corpus[i] = items[i].SourceText()
	}

	if err := ix.embedder.Prepare(corpus); err != nil {
		return fmt.Errorf("failed to prepare embedder: %w", err)
	}

	snap := &indexSnapshot{
		ids:     make([]uint, 0, len(items)),
		vectors: make([][]float64, 0, len(items)),
	}
	for i := range items {
		vec, err := ix.embedder.Embed(ctx, corpus[i])
		if err != nil {
			return fmt.Errorf("failed to embed %q: %w", items[i].Name, err)
		}
		snap.ids = append(snap.ids, items[i].ID)
		snap.vectors = append(snap.vectors, normalize(vec))
	}

	ix.mu.Lock()
	ix.snap = snap
	ix.mu.Unlock()
	return nil
}

// Query returns up to k matches sorted by descending relevance. Entries
// whose item no longer exists in the catalog, or is no longer available,
// are skipped. An empty or uninitialized index yields an empty result,
// never an error.
func (ix *Index) Query(ctx context.Context, text string, k int) ([]Match, error) {
	if k <= 0 {
		k = 5
	}

	ix.mu.RLock()
	snap := ix.snap
	ix.mu.RUnlock()
	if snap == nil || len(snap.ids) == 0 {
		return nil, nil
	}

	query, err := ix.embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	query = normalize(query)

	type scored struct {
		pos   int
		score float64
	}
	scores := make([]scored, len(snap.vectors))
	for i, vec := range snap.vectors {
		scores[i] = scored{pos: i, score: dot(vec, query)}
	}
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].score > scores[j].score
	})

	matches := make([]Match, 0, k)
	for _, s := range scores {
		if len(matches) == k {
			break
		}
		item, err := ix.lookup.Get(snap.ids[s.pos])
		if err != nil || !item.Available {
			// Stale entry from a catalog snapshot that has moved on.
			continue
		}
		matches = append(matches, Match{Item: item, Score: s.score})
	}
	return matches, nil
}

func dot(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}

func normalize(vec []float64) []float64 {
	norm := 0.0
	for _, v := range vec {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return vec
	}
	out := make([]float64, len(vec))
	for i, v := range vec {
		out[i] = v / norm
	}
	return out
}
