/*
corpus.go - Concept source contract

PURPOSE:
  Corpus is the read-only boundary between the service and whatever
  holds the concepts: the payroll database in production
  (store/sqlstore) or an in-memory map in tests (concepts/store).
*/
package concepts

import (
	"context"
	"errors"
)

// ErrConceptNotFound is returned when a concept code has no rows.
var ErrConceptNotFound = errors.New("concept not found")

// Corpus is a read-only concept source.
type Corpus interface {
	// All returns every grouped (code, formula) row, ordered by code then
	// formula code.
	All(ctx context.Context) ([]Concept, error)

	// Get returns the first grouped row for a code, by formula code order.
	// Missing codes yield ErrConceptNotFound.
	Get(ctx context.Context, code string) (*Concept, error)

	// Range returns the rows with lo <= code <= hi, comparing codes as
	// strings the way the database view does.
	Range(ctx context.Context, lo, hi string) ([]Concept, error)
}
