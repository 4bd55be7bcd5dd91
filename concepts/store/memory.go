/*
memory.go - In-memory concept corpus

PURPOSE:
  A Corpus backed by a plain slice, for tests and local development.
  Replace swaps the whole content at once, standing in for the external
  database view the SQL corpus reads.

THREAD SAFETY:
  All methods are safe for concurrent use (RWMutex). Reads hand out
  copies so callers can never alias internal state.
*/
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/upcn/formu/concepts"
)

// Memory is an in-memory Corpus.
type Memory struct {
	mu   sync.RWMutex
	rows []concepts.Concept
}

// NewMemory returns a corpus holding the given rows.
func NewMemory(rows ...concepts.Concept) *Memory {
	m := &Memory{}
	m.Replace(rows)
	return m
}

// Replace swaps the whole corpus content. Rows are kept ordered by
// (code, formula code) the way the database view delivers them.
func (m *Memory) Replace(rows []concepts.Concept) {
	sorted := make([]concepts.Concept, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Code != sorted[j].Code {
			return sorted[i].Code < sorted[j].Code
		}
		return sorted[i].FormulaCode < sorted[j].FormulaCode
	})

	m.mu.Lock()
	m.rows = sorted
	m.mu.Unlock()
}

// Add inserts rows, keeping the (code, formula code) order.
func (m *Memory) Add(rows ...concepts.Concept) {
	m.mu.RLock()
	merged := make([]concepts.Concept, 0, len(m.rows)+len(rows))
	merged = append(merged, m.rows...)
	m.mu.RUnlock()

	merged = append(merged, rows...)
	m.Replace(merged)
}

// All implements concepts.Corpus.
func (m *Memory) All(ctx context.Context) ([]concepts.Concept, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]concepts.Concept, len(m.rows))
	copy(out, m.rows)
	return out, nil
}

// Get implements concepts.Corpus: the first row for a code, by formula
// code order.
func (m *Memory) Get(ctx context.Context, code string) (*concepts.Concept, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, c := range m.rows {
		if c.Code == code {
			out := c
			return &out, nil
		}
	}
	return nil, concepts.ErrConceptNotFound
}

// Range implements concepts.Corpus with the same string comparison the
// SQL BETWEEN uses.
func (m *Memory) Range(ctx context.Context, lo, hi string) ([]concepts.Concept, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]concepts.Concept, 0)
	for _, c := range m.rows {
		if c.Code >= lo && c.Code <= hi {
			out = append(out, c)
		}
	}
	return out, nil
}

var _ concepts.Corpus = (*Memory)(nil)
