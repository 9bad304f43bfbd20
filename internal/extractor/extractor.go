// Package extractor maps free-form customer utterances to structured,
// priced order lines against the catalog, with a semantic-search fallback
// for references that have no lexical match.
package extractor

import (
	"context"
	"errors"
	"log"
	"strconv"
	"strings"

	"maitred/internal/models"
	"maitred/internal/semantic"

	"github.com/shopspring/decimal"
)

// DefaultThreshold is the minimum relevance score a semantic match must
// reach before it is accepted as a resolved item reference.
const DefaultThreshold = 0.30

// Catalog is the lexical-resolution surface the extractor needs.
type Catalog interface {
	FindByNameFragment(fragment string) []models.MenuItem
	Get(id uint) (models.MenuItem, error)
}

// Searcher is the semantic-fallback surface the extractor needs.
type Searcher interface {
	Query(ctx context.Context, text string, k int) ([]semantic.Match, error)
}

// Metrics receives extraction observability events. Implementations must
// tolerate concurrent calls.
type Metrics interface {
	ObserveExtraction(lines, unresolved int)
	ObserveSemanticFallback()
	ObserveBackendDegraded()
}

// Extractor is the order-intent resolution pipeline. It is stateless per
// call; the catalog and index are shared, mostly-read collaborators.
type Extractor struct {
	catalog   Catalog
	index     Searcher
	threshold float64
	metrics   Metrics
}

// New builds an extractor. A non-positive threshold selects
// DefaultThreshold; metrics may be nil.
func New(cat Catalog, index Searcher, threshold float64, metrics Metrics) *Extractor {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Extractor{catalog: cat, index: index, threshold: threshold, metrics: metrics}
}

// Extract parses one utterance into a priced ParsedOrder. It never returns
// an error: absence of a match is represented in the result's status and
// unresolved fragments.
func (e *Extractor) Extract(ctx context.Context, utterance string) models.ParsedOrder {
	tokens := tokenize(utterance)

	var parsed models.ParsedOrder
	i := 0
	for i < len(tokens) {
		qty, explicit := quantityOf(tokens[i])
		if explicit {
			if i == len(tokens)-1 {
				// Bare trailing quantity contributes nothing.
				break
			}
			consumed := e.resolveQuantified(ctx, tokens, i, qty, &parsed)
			i += consumed
			continue
		}

		if isFiller(tokens[i]) {
			i++
			continue
		}

		// Un-quantified item mention: implicit quantity of one.
		spanTokens, matches := e.extendSpan(tokens, i)
		if len(matches) == 0 {
			i++
			continue
		}
		span := strings.Join(spanTokens, " ")
		e.appendLine(&parsed, pickMatch(span, matches).ID, 1, span)
		i += len(spanTokens)
	}

	// An utterance that produced nothing lexically may still be a single
	// item reference by meaning ("something with bacon").
	if len(parsed.Lines) == 0 && len(parsed.Unresolved) == 0 && len(tokens) > 0 {
		whole := strings.Join(tokens, " ")
		if item, ok := e.semanticResolve(ctx, whole); ok {
			e.appendLine(&parsed, item.ID, 1, whole)
		}
	}

	parsed.Resolve()
	if e.metrics != nil {
		e.metrics.ObserveExtraction(len(parsed.Lines), len(parsed.Unresolved))
	}
	return parsed
}

// resolveQuantified handles a span introduced by an explicit quantity token
// at position i. It returns the number of tokens consumed, including the
// quantity token itself.
func (e *Extractor) resolveQuantified(ctx context.Context, tokens []string, i, qty int, parsed *models.ParsedOrder) int {
	spanTokens, matches := e.extendSpan(tokens, i+1)
	if len(matches) > 0 {
		span := strings.Join(spanTokens, " ")
		if qty < 1 {
			// A zero or negative quantity is rejected, and the request is
			// surfaced so the caller can ask for clarification.
			parsed.Unresolved = append(parsed.Unresolved, tokens[i]+" "+span)
		} else {
			e.appendLine(parsed, pickMatch(span, matches).ID, qty, span)
		}
		return 1 + len(spanTokens)
	}

	// No lexical match for the reference. Collect the whole run of
	// unmatched tokens as one span and try the semantic path.
	run := e.collectRun(tokens, i+1)
	span := strings.Join(run, " ")
	if item, ok := e.semanticResolve(ctx, span); ok && qty >= 1 {
		e.appendLine(parsed, item.ID, qty, span)
	} else {
		parsed.Unresolved = append(parsed.Unresolved, span)
	}
	return 1 + len(run)
}

// extendSpan greedily grows an item-reference span starting at position
// start for as long as the cumulative span text still fragment-matches at
// least one item. It stops at the first token that empties the match set,
// at the next quantity token, or at the end of the utterance.
func (e *Extractor) extendSpan(tokens []string, start int) ([]string, []models.MenuItem) {
	if start >= len(tokens) {
		return nil, nil
	}
	span := tokens[start]
	matches := e.catalog.FindByNameFragment(span)
	if len(matches) == 0 {
		return nil, nil
	}
	end := start + 1
	for end < len(tokens) {
		if _, isQty := quantityOf(tokens[end]); isQty {
			break
		}
		candidate := span + " " + tokens[end]
		next := e.catalog.FindByNameFragment(candidate)
		if len(next) == 0 {
			break
		}
		span, matches = candidate, next
		end++
	}
	return tokens[start:end], matches
}

// collectRun gathers the consecutive tokens of a failed item reference,
// stopping at the next quantity token, filler word, or token that starts a
// lexical match of its own.
func (e *Extractor) collectRun(tokens []string, start int) []string {
	end := start
	for end < len(tokens) {
		tok := tokens[end]
		if _, isQty := quantityOf(tok); isQty {
			break
		}
		if end > start {
			if isFiller(tok) {
				break
			}
			if len(e.catalog.FindByNameFragment(tok)) > 0 {
				break
			}
		}
		end++
	}
	return tokens[start:end]
}

// semanticResolve asks the index for the nearest item by meaning. A backend
// failure degrades to "no match" rather than failing the extraction.
func (e *Extractor) semanticResolve(ctx context.Context, span string) (models.MenuItem, bool) {
	if e.index == nil || span == "" {
		return models.MenuItem{}, false
	}
	if e.metrics != nil {
		e.metrics.ObserveSemanticFallback()
	}

	matches, err := e.index.Query(ctx, span, 1)
	if err != nil {
		if errors.Is(err, models.ErrBackendUnavailable) || errors.Is(err, context.DeadlineExceeded) {
			log.Printf("semantic backend unavailable, degrading to lexical-only matching: %v", err)
		} else {
			log.Printf("semantic query failed for %q: %v", span, err)
		}
		if e.metrics != nil {
			e.metrics.ObserveBackendDegraded()
		}
		return models.MenuItem{}, false
	}
	if len(matches) == 0 || matches[0].Score < e.threshold {
		return models.MenuItem{}, false
	}
	return matches[0].Item, true
}

// appendLine prices a resolved (quantity, item) pair. The unit price is
// re-fetched from the catalog even when the match came from the semantic
// path, so the index is never a pricing authority.
func (e *Extractor) appendLine(parsed *models.ParsedOrder, itemID uint, qty int, span string) {
	item, err := e.catalog.Get(itemID)
	if err != nil || !item.Available {
		parsed.Unresolved = append(parsed.Unresolved, span)
		return
	}
	lineTotal := item.Price.Mul(decimal.NewFromInt(int64(qty)))
	parsed.Lines = append(parsed.Lines, models.OrderLine{
		ItemID:    item.ID,
		ItemName:  item.Name,
		Quantity:  qty,
		UnitPrice: item.Price,
		LineTotal: lineTotal,
	})
}

// tokenize lowercases the utterance, splits it on whitespace, and trims
// punctuation off token edges so "2 pizzas," still scans. Interior
// punctuation is kept.
func tokenize(utterance string) []string {
	fields := strings.Fields(strings.ToLower(utterance))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, ".,!?;:\"'()")
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

// quantityOf reports whether a token denotes a quantity. Integer literals
// of any sign count as quantity tokens so that "0 pizza" is recognized and
// rejected rather than silently reinterpreted.
func quantityOf(tok string) (int, bool) {
	if n, err := strconv.Atoi(tok); err == nil {
		return n, true
	}
	if n, ok := quantityWords[tok]; ok {
		return n, true
	}
	return 0, false
}

var quantityWords = map[string]int{
	"a": 1, "an": 1, "one": 1,
	"two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
}

// fillerWords are conversational tokens that never begin an item-reference
// span. Without this, single-letter words like "i" would fragment-match
// half the menu.
var fillerWords = map[string]struct{}{
	"i": {}, "we": {}, "you": {}, "me": {}, "my": {}, "our": {},
	"want": {}, "like": {}, "love": {}, "need": {}, "get": {}, "have": {},
	"would": {}, "could": {}, "can": {}, "will": {}, "please": {},
	"the": {}, "some": {}, "and": {}, "with": {}, "also": {}, "too": {},
	"order": {}, "to": {}, "of": {}, "for": {}, "hi": {}, "hello": {},
	"thanks": {}, "thank": {}, "that's": {}, "it": {}, "is": {}, "all": {},
}

func isFiller(tok string) bool {
	_, ok := fillerWords[tok]
	return ok
}

// pickMatch resolves an ambiguous match set: the item whose lowercased name
// shares the longest whole-word prefix with the span wins; ties keep the
// first candidate, which is the lowest id because the catalog returns
// matches in iteration order. Prefixes are only counted up to a word
// boundary in both strings, so "burger" scores zero against "beef burger"
// instead of one for the accidental shared "b".
func pickMatch(span string, matches []models.MenuItem) models.MenuItem {
	best := matches[0]
	bestLen := wordPrefixLen(span, strings.ToLower(best.Name))
	for _, m := range matches[1:] {
		if l := wordPrefixLen(span, strings.ToLower(m.Name)); l > bestLen {
			best, bestLen = m, l
		}
	}
	return best
}

// wordPrefixLen is the length of the longest common prefix of a and b that
// ends on a word boundary in both.
func wordPrefixLen(a, b string) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	for i > 0 && !(wordBoundary(a, i) && wordBoundary(b, i)) {
		i--
	}
	return i
}

func wordBoundary(s string, i int) bool {
	return i == len(s) || s[i] == ' '
}
