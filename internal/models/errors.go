package models

import "errors"

// Sentinel errors shared across the core components. Resolution failures
// during extraction are not errors; they are carried as data on ParsedOrder.
var (
	// ErrNotFound indicates a requested record is absent from the catalog
	// or the ledger.
	ErrNotFound = errors.New("not found")

	// ErrValidation indicates a request that is structurally inconsistent,
	// such as a ledger append with empty lines or a mismatched total.
	ErrValidation = errors.New("validation failed")

	// ErrBackendUnavailable indicates the semantic search backend could not
	// be reached. Callers degrade to lexical-only matching.
	ErrBackendUnavailable = errors.New("semantic backend unavailable")

	// ErrInvalidTransition indicates a disallowed order status change.
	ErrInvalidTransition = errors.New("invalid status transition")
)
