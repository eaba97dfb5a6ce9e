package types

import (
	"context"
	"errors"
)

// Store is the backend collaborator that owns persisted taxa. The SQLite
// backend, the Redis cache, and the HTTP client all implement it, and the
// editor's action context consumes it.
type Store interface {
	// ListTaxa returns every taxon in ascending position order.
	ListTaxa(ctx context.Context) ([]Taxon, error)

	// CreateTaxon persists a new taxon at the end of the order and returns it
	// with its server-assigned ID and position.
	CreateTaxon(ctx context.Context, draft TaxonDraft) (Taxon, error)

	// UpdateTaxon replaces the taxon with the given ID and returns the stored
	// record. The position is not changed by an update.
	// Returns ErrNotFound if no taxon exists with that ID.
	UpdateTaxon(ctx context.Context, id int64, taxon Taxon) (Taxon, error)

	// DeleteTaxon removes the taxon with the given ID and closes the gap in
	// the order. Returns ErrNotFound if no taxon exists with that ID.
	DeleteTaxon(ctx context.Context, id int64) error

	// ReorderTaxa renumbers positions to follow ids and returns the
	// authoritative ordered list. ids must name every taxon exactly once.
	ReorderTaxa(ctx context.Context, ids []int64) ([]Taxon, error)
}

// Store errors.
var (
	ErrNotFound      = errors.New("taxon not found")
	ErrInvalidID     = errors.New("invalid taxon ID")
	ErrInvalidData   = errors.New("invalid taxon data")
	ErrDuplicateName = errors.New("taxon name already exists")
	ErrInvalidOrder  = errors.New("order must list every taxon exactly once")
)

// Backend lifecycle errors.
var (
	ErrDetached        = errors.New("backend is detached")
	ErrAlreadyAttached = errors.New("backend is already attached")
)

// Validation errors.
var (
	ErrValidation        = errors.New("validation failed")
	ErrInvalidDataType   = errors.New("invalid data type")
	ErrInvalidFilterType = errors.New("invalid filter type")
	ErrInvalidValue      = errors.New("invalid value")
	ErrValueNotPreset    = errors.New("value is not among the preset values")
)
