/*
payroll.go - Settled payroll line aggregation

PURPOSE:
  Read-only aggregation over settled payroll lines. A period query
  returns one aggregate per concept: the whole-company view sums every
  employee's amounts with decimal arithmetic, while the single-employee
  view keeps that employee's own line. Also exposes the liquidation type
  catalog and the employee/year listings the period filters feed on.

DEFAULTS:
  Year and month default to the current date, the liquidation type to
  "0". Callers pass zero values to mean "default".

SEE ALSO:
  - store/sqlstore/sqlstore.go: the LIQUID1-backed Source
  - api/handlers.go: the /api/liquidacion endpoints
*/
package payroll

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// ErrLineNotFound reports that a concept has no settled line in the
// requested period.
var ErrLineNotFound = errors.New("liquidation line not found")

// DefaultLiqType is the liquidation type assumed when none is given.
const DefaultLiqType = "0"

// yearWindow is how many years Years lists, newest first.
const yearWindow = 5

// Line is one settled payroll line.
type Line struct {
	Year        int
	Month       int
	LiqType     string
	Employee    string
	ConceptCode string
	Calculated  *float64
	Reported    *float64
}

// Source provides settled lines and the catalogs behind the period
// filters.
type Source interface {
	// Period returns the lines settled for year/month/liqType, every
	// employee when employee is empty. Ordered by concept code.
	Period(ctx context.Context, year, month int, liqType, employee string) ([]Line, error)
	// LiqTypes returns the distinct liquidation type codes on record.
	LiqTypes(ctx context.Context) ([]string, error)
	// Employees returns the distinct employee numbers settled in
	// year/month.
	Employees(ctx context.Context, year, month int) ([]string, error)
}

// Aggregate is the per-concept result of a period query.
type Aggregate struct {
	ConceptCode   string
	Calculated    decimal.Decimal
	Reported      decimal.Decimal
	Employee      string
	EmployeeCount int
}

// DefaultTypeNames maps the well-known liquidation type codes to their
// display names.
func DefaultTypeNames() map[string]string {
	return map[string]string{
		"1": "Normal",
		"2": "SAC",
		"3": "BAE",
		"4": "Vacaciones",
		"5": "Otros",
	}
}

// Service aggregates payroll lines from a Source.
type Service struct {
	source    Source
	typeNames map[string]string
	log       zerolog.Logger
}

func NewService(source Source, log zerolog.Logger) *Service {
	return &Service{
		source:    source,
		typeNames: DefaultTypeNames(),
		log:       log,
	}
}

// defaults fills the zero values of a period query: current year,
// current month, liquidation type "0".
func defaults(year, month int, liqType string) (int, int, string) {
	now := time.Now()
	if year == 0 {
		year = now.Year()
	}
	if month == 0 {
		month = int(now.Month())
	}
	if liqType == "" {
		liqType = DefaultLiqType
	}
	return year, month, liqType
}

// AggregatePeriod aggregates a settled period per concept, sorted by
// concept code. Without an employee filter the amounts are company-wide
// decimal sums and EmployeeCount counts the lines summed; with one, each
// concept carries that employee's first line and a count of 1.
func (s *Service) AggregatePeriod(ctx context.Context, year, month int, liqType, employee string) ([]Aggregate, error) {
	year, month, liqType = defaults(year, month, liqType)

	lines, err := s.source.Period(ctx, year, month, liqType, employee)
	if err != nil {
		return nil, fmt.Errorf("loading period %d-%02d type %s: %w", year, month, liqType, err)
	}

	byConcept := make(map[string]*Aggregate)
	order := make([]string, 0, len(lines))
	for _, line := range lines {
		agg, ok := byConcept[line.ConceptCode]
		if !ok {
			agg = &Aggregate{ConceptCode: line.ConceptCode, Employee: employee}
			byConcept[line.ConceptCode] = agg
			order = append(order, line.ConceptCode)
		} else if employee != "" {
			// One line per concept when a single employee is asked for.
			continue
		}
		agg.Calculated = agg.Calculated.Add(amount(line.Calculated))
		agg.Reported = agg.Reported.Add(amount(line.Reported))
		agg.EmployeeCount++
	}

	sort.Strings(order)
	out := make([]Aggregate, 0, len(order))
	for _, code := range order {
		out = append(out, *byConcept[code])
	}
	return out, nil
}

// ConceptAggregate aggregates a single concept over a settled period.
// Returns ErrLineNotFound when the concept has no line in it.
func (s *Service) ConceptAggregate(ctx context.Context, year, month int, liqType, employee, code string) (Aggregate, error) {
	aggs, err := s.AggregatePeriod(ctx, year, month, liqType, employee)
	if err != nil {
		return Aggregate{}, err
	}
	for _, agg := range aggs {
		if agg.ConceptCode == code {
			return agg, nil
		}
	}
	return Aggregate{}, ErrLineNotFound
}

// LiqTypes returns the liquidation type catalog as code to display
// name. Codes on record without a well-known name get "Tipo <code>".
// When the source fails the well-known catalog is returned as-is so the
// period filters keep working.
func (s *Service) LiqTypes(ctx context.Context) map[string]string {
	codes, err := s.source.LiqTypes(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("listing liquidation types, falling back to defaults")
		out := make(map[string]string, len(s.typeNames))
		for code, name := range s.typeNames {
			out[code] = name
		}
		return out
	}

	out := make(map[string]string, len(codes))
	for _, code := range codes {
		name, ok := s.typeNames[code]
		if !ok {
			name = "Tipo " + code
		}
		out[code] = name
	}
	return out
}

// Employees lists the employee numbers settled in a period.
func (s *Service) Employees(ctx context.Context, year, month int) ([]string, error) {
	year, month, _ = defaults(year, month, DefaultLiqType)
	employees, err := s.source.Employees(ctx, year, month)
	if err != nil {
		return nil, fmt.Errorf("listing employees for %d-%02d: %w", year, month, err)
	}
	return employees, nil
}

// Years returns the selectable period years: the current one and the
// four before it, newest first.
func (s *Service) Years() []int {
	current := time.Now().Year()
	out := make([]int, 0, yearWindow)
	for i := 0; i < yearWindow; i++ {
		out = append(out, current-i)
	}
	return out
}

func amount(v *float64) decimal.Decimal {
	if v == nil {
		return decimal.Zero
	}
	return decimal.NewFromFloat(*v)
}
