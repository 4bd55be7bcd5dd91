/*
service.go - Concept read operations

PURPOSE:
  Composes the corpus, the formula parser and the reverse-dependency
  index into the read operations the API serves: list, search, detail,
  batch detail and range expansion.

DEPENDENCY DIRECTIONS:
  Detail resolves both sides of the graph. Forward dependencies come
  from parsing the concept's own formula and condition; reverse
  dependents come from the index, which has already scanned the whole
  corpus.

SEE ALSO:
  - formula/parser.go: variable extraction
  - deps/index.go: the reverse index behind ReverseIndex
*/
package concepts

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/upcn/formu/formula"
)

// searchLimit caps how many hits a search returns.
const searchLimit = 20

// minQueryLen is the shortest search term worth running.
const minQueryLen = 2

// ReverseIndex is the slice of the dependency index the service needs.
type ReverseIndex interface {
	// Dependents returns the codes whose formula or condition references
	// the given code, sorted.
	Dependents(code string) []string
	// Build rebuilds the index from the corpus.
	Build(ctx context.Context) error
}

// Detail is a concept with its formulas parsed and both graph directions
// resolved.
type Detail struct {
	Concept
	Variables          []formula.ParsedVariable
	ConditionVariables []formula.ParsedVariable
	Dependencies       []string // codes this concept references, sorted
	Dependents         []string // codes referencing this concept, sorted
}

// RangeListing is the expansion of one range variable into its member
// concepts.
type RangeListing struct {
	ID          string // full range id, e.g. SC00500100
	Type        string // id with digits stripped, e.g. SC
	Lo, Hi      string
	Description string
	Concepts    []Concept
}

// Service answers concept queries.
type Service struct {
	corpus Corpus
	parser *formula.Parser
	index  ReverseIndex
	log    zerolog.Logger
}

// NewService wires the service. The index may still be empty; detail
// queries then report no dependents until the first build lands.
func NewService(corpus Corpus, parser *formula.Parser, index ReverseIndex, log zerolog.Logger) *Service {
	return &Service{corpus: corpus, parser: parser, index: index, log: log}
}

// List returns every concept as a summary, without parsing formulas.
func (s *Service) List(ctx context.Context) ([]Concept, error) {
	rows, err := s.corpus.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing concepts: %w", err)
	}
	return rows, nil
}

// Search finds concepts whose code or description contains the query,
// case-insensitively. Queries under two characters return nothing and
// results cap at searchLimit.
func (s *Service) Search(ctx context.Context, query string) ([]Concept, error) {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < minQueryLen {
		return []Concept{}, nil
	}

	rows, err := s.corpus.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("searching concepts: %w", err)
	}

	q := strings.ToLower(query)
	matches := make([]Concept, 0, searchLimit)
	for _, c := range rows {
		if !strings.Contains(strings.ToLower(c.Code), q) &&
			!strings.Contains(strings.ToLower(c.Description), q) {
			continue
		}
		matches = append(matches, c)
		if len(matches) == searchLimit {
			break
		}
	}
	return matches, nil
}

// Detail loads one concept, parses its formula and condition, and
// resolves both dependency directions.
func (s *Service) Detail(ctx context.Context, code string) (*Detail, error) {
	c, err := s.corpus.Get(ctx, code)
	if err != nil {
		if errors.Is(err, ErrConceptNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("loading concept %s: %w", code, err)
	}

	return &Detail{
		Concept:            *c,
		Variables:          s.parser.Parse(c.Formula),
		ConditionVariables: s.parser.Parse(c.Condition),
		Dependencies:       s.dependencies(c),
		Dependents:         s.index.Dependents(c.Code),
	}, nil
}

// dependencies unions the forward references of formula and condition.
func (s *Service) dependencies(c *Concept) []string {
	refs := s.parser.ForwardRefs(c.Formula)
	for ref := range s.parser.ForwardRefs(c.Condition) {
		refs[ref] = struct{}{}
	}

	deps := make([]string, 0, len(refs))
	for ref := range refs {
		deps = append(deps, ref)
	}
	sort.Strings(deps)
	return deps
}

// DetailBatch resolves several codes at once, skipping unknown ones.
func (s *Service) DetailBatch(ctx context.Context, codes []string) ([]Detail, error) {
	details := make([]Detail, 0, len(codes))
	for _, code := range codes {
		d, err := s.Detail(ctx, code)
		if errors.Is(err, ErrConceptNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		details = append(details, *d)
	}
	return details, nil
}

// RangeListing expands a range variable into its member concepts. SC
// ranges keep only definitive concepts, ST ranges only transitory ones;
// every other range type lists everything in the interval.
func (s *Service) RangeListing(ctx context.Context, rangeID, lo, hi string) (*RangeListing, error) {
	rows, err := s.corpus.Range(ctx, lo, hi)
	if err != nil {
		return nil, fmt.Errorf("expanding range %s-%s: %w", lo, hi, err)
	}

	typ := stripDigits(rangeID)
	kept := make([]Concept, 0, len(rows))
	for _, c := range rows {
		switch typ {
		case "SC":
			if !c.Classification.IsDefinitive() {
				continue
			}
		case "ST":
			if c.Classification.IsDefinitive() {
				continue
			}
		}
		kept = append(kept, c)
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].Code < kept[j].Code })

	return &RangeListing{
		ID:          rangeID,
		Type:        typ,
		Lo:          lo,
		Hi:          hi,
		Description: rangeDescription(typ),
		Concepts:    kept,
	}, nil
}

// RefreshIndex rebuilds the reverse-dependency index.
func (s *Service) RefreshIndex(ctx context.Context) error {
	s.log.Info().Msg("refreshing dependency index")
	return s.index.Build(ctx)
}

func stripDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return -1
		}
		return r
	}, s)
}

// rangeDescription names what a range aggregates, by its type prefix.
func rangeDescription(typ string) string {
	switch typ {
	case "SC":
		return "Suma de conceptos definitivos"
	case "ST":
		return "Suma de conceptos transitorios"
	case "SI":
		return "Suma de valores informados"
	case "S":
		return "Suma de última liquidación"
	case "E":
		return "Especialización"
	default:
		return "Rango de conceptos"
	}
}
