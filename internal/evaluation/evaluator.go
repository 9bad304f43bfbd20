// Package evaluation scores the order-intent extraction pipeline against a
// catalog of golden utterances. It is used offline to catch regressions in
// the matching heuristics before they reach customers.
package evaluation

import (
	"context"
	"fmt"

	"maitred/internal/models"
)

// Parser is the extraction surface under evaluation.
type Parser interface {
	Extract(ctx context.Context, utterance string) models.ParsedOrder
}

// WantLine is one expected resolved line of a golden case. Prices are
// deliberately not part of the expectation; they belong to the catalog.
type WantLine struct {
	ItemName string
	Quantity int
}

// Case is a single golden utterance with its expected resolution.
type Case struct {
	ID             string
	Utterance      string
	WantLines      []WantLine
	WantUnresolved []string
}

// Evaluator runs golden cases through a parser and aggregates the outcome.
type Evaluator struct {
	parser Parser
	cases  map[string]Case
}

// NewEvaluator creates an evaluator preloaded with the built-in golden
// cases. The cases assume the standard seeded menu.
func NewEvaluator(parser Parser) *Evaluator {
	e := &Evaluator{
		parser: parser,
		cases:  make(map[string]Case),
	}
	for _, c := range builtinCases() {
		e.cases[c.ID] = c
	}
	return e
}

// AddCase registers an additional golden case, replacing any case with the
// same id.
func (e *Evaluator) AddCase(c Case) {
	e.cases[c.ID] = c
}

// HasCase reports whether a case with the given id is registered.
func (e *Evaluator) HasCase(id string) bool {
	_, ok := e.cases[id]
	return ok
}

// builtinCases covers the matching behaviors that have regressed before:
// greedy multi-word spans, word numerals, filler skipping, rejection of
// nonsense references, and zero quantities.
func builtinCases() []Case {
	return []Case{
		{
			ID:        "exact_name_with_quantity",
			Utterance: "3 caesar salad",
			WantLines: []WantLine{{ItemName: "Caesar Salad", Quantity: 3}},
		},
		{
			ID:        "multi_word_span",
			Utterance: "2 chicken burger",
			WantLines: []WantLine{{ItemName: "Chicken Burger", Quantity: 2}},
		},
		{
			ID:        "conversational_filler",
			Utterance: "hi, i would like 2 chicken burger and a coca cola please",
			WantLines: []WantLine{
				{ItemName: "Chicken Burger", Quantity: 2},
				{ItemName: "Coca Cola", Quantity: 1},
			},
		},
		{
			ID:        "word_numeral",
			Utterance: "two pepperoni pizza",
			WantLines: []WantLine{{ItemName: "Pepperoni Pizza", Quantity: 2}},
		},
		{
			ID:        "implicit_quantity",
			Utterance: "caesar salad",
			WantLines: []WantLine{{ItemName: "Caesar Salad", Quantity: 1}},
		},
		{
			ID:             "unknown_item",
			Utterance:      "5 unicorn steak",
			WantUnresolved: []string{"unicorn steak"},
		},
		{
			ID:             "zero_quantity",
			Utterance:      "0 pizza",
			WantUnresolved: []string{"0 pizza"},
		},
		{
			ID:        "mixed_outcome",
			Utterance: "2 chicken burger and 5 unicorn steak",
			WantLines: []WantLine{
				{ItemName: "Chicken Burger", Quantity: 2},
			},
			WantUnresolved: []string{"unicorn steak"},
		},
	}
}

// Failure describes one golden case the parser got wrong.
type Failure struct {
	CaseID    string `json:"case_id"`
	Utterance string `json:"utterance"`
	Detail    string `json:"detail"`
}

// Result aggregates an evaluation run.
type Result struct {
	CaseCount int       `json:"case_count"`
	Passed    int       `json:"passed"`
	Accuracy  float64   `json:"accuracy"`
	Failures  []Failure `json:"failures,omitempty"`
}

// Run evaluates every registered case and returns the aggregate.
func (e *Evaluator) Run(ctx context.Context) Result {
	result := Result{CaseCount: len(e.cases)}
	for _, c := range e.cases {
		parsed := e.parser.Extract(ctx, c.Utterance)
		if detail, ok := check(c, parsed); !ok {
			result.Failures = append(result.Failures, Failure{
				CaseID:    c.ID,
				Utterance: c.Utterance,
				Detail:    detail,
			})
			continue
		}
		result.Passed++
	}
	if result.CaseCount > 0 {
		result.Accuracy = float64(result.Passed) / float64(result.CaseCount)
	}
	return result
}

// check compares one parse to its expectation. Line order matters: the
// parser resolves spans left to right, so the golden order is part of the
// contract.
func check(c Case, parsed models.ParsedOrder) (string, bool) {
	if len(parsed.Lines) != len(c.WantLines) {
		return fmt.Sprintf("got %d lines, want %d", len(parsed.Lines), len(c.WantLines)), false
	}
	for i, want := range c.WantLines {
		got := parsed.Lines[i]
		if got.ItemName != want.ItemName || got.Quantity != want.Quantity {
			return fmt.Sprintf("line %d is %d x %q, want %d x %q",
				i, got.Quantity, got.ItemName, want.Quantity, want.ItemName), false
		}
	}
	if len(parsed.Unresolved) != len(c.WantUnresolved) {
		return fmt.Sprintf("got %d unresolved fragments, want %d",
			len(parsed.Unresolved), len(c.WantUnresolved)), false
	}
	for i, want := range c.WantUnresolved {
		if parsed.Unresolved[i] != want {
			return fmt.Sprintf("unresolved[%d] = %q, want %q", i, parsed.Unresolved[i], want), false
		}
	}
	return "", true
}
