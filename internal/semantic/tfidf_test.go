package semantic

import (
	"context"
	"math"
	"testing"
)

func corpusFromItems() []string {
	items := sampleItems()
	corpus := make([]string, len(items))
	for i := range items {
		corpus[i] = items[i].SourceText()
	}
	return corpus
}

func TestTFIDFPrepareEmptyCorpus(t *testing.T) {
	if err := NewTFIDF().Prepare(nil); err == nil {
		t.Error("Prepare(nil) returned nil error")
	}
}

func TestTFIDFEmbedBeforePrepare(t *testing.T) {
	if _, err := NewTFIDF().Embed(context.Background(), "pizza"); err == nil {
		t.Error("Embed() before Prepare() returned nil error")
	}
}

func TestTFIDFDeterminism(t *testing.T) {
	corpus := corpusFromItems()

	a := NewTFIDF()
	b := NewTFIDF()
	if err := a.Prepare(corpus); err != nil {
		t.Fatalf("Prepare() error: %v", err)
	}
	if err := b.Prepare(corpus); err != nil {
		t.Fatalf("Prepare() error: %v", err)
	}

	va, err := a.Embed(context.Background(), "creamy bacon pasta")
	if err != nil {
		t.Fatalf("Embed() error: %v", err)
	}
	vb, err := b.Embed(context.Background(), "creamy bacon pasta")
	if err != nil {
		t.Fatalf("Embed() error: %v", err)
	}

	if len(va) != len(vb) {
		t.Fatalf("vector lengths differ: %d vs %d", len(va), len(vb))
	}
	for i := range va {
		if va[i] != vb[i] {
			t.Fatalf("vectors differ at %d: %v vs %v", i, va[i], vb[i])
		}
	}
}

func TestTFIDFVectorsAreNormalized(t *testing.T) {
	e := NewTFIDF()
	if err := e.Prepare(corpusFromItems()); err != nil {
		t.Fatalf("Prepare() error: %v", err)
	}

	vec, err := e.Embed(context.Background(), "refreshing cola drink")
	if err != nil {
		t.Fatalf("Embed() error: %v", err)
	}
	norm := 0.0
	for _, v := range vec {
		norm += v * v
	}
	if math.Abs(math.Sqrt(norm)-1.0) > 1e-9 {
		t.Errorf("vector norm = %v, want 1.0", math.Sqrt(norm))
	}
}

func TestTFIDFUnknownTokensEmbedToZero(t *testing.T) {
	e := NewTFIDF()
	if err := e.Prepare(corpusFromItems()); err != nil {
		t.Fatalf("Prepare() error: %v", err)
	}

	vec, err := e.Embed(context.Background(), "unicorn steak")
	if err != nil {
		t.Fatalf("Embed() error: %v", err)
	}
	for i, v := range vec {
		if v != 0 {
			t.Fatalf("expected zero vector for unknown tokens, component %d = %v", i, v)
		}
	}
}
