/*
sqlstore.go - SQL-backed concept corpus and payroll source

PURPOSE:
  Read-only access to the payroll database. Works against PostgreSQL in
  production and SQLite in tests: queries are written with `?` bindvars
  and passed through sqlx.Rebind, so one query shape serves both
  drivers.

INTERFACES IMPLEMENTED:
  concepts.Corpus: concept rows from the ConceptoTipoLiqFormula view
  payroll.Source:  settled lines and catalogs from LIQUID1

KEY RELATIONS:
  ConceptoTipoLiqFormula: one row per concept, formula and liquidation
                          type. Read-only view maintained by the payroll
                          system.
  LIQUID1:                settled payroll lines.

GROUPING:
  The view repeats a concept+formula pair once per liquidation type.
  Rows are fetched ORDER BY CodConcepto, CodFormula and collapsed here:
  the liquidation types join with "-" in row order, every other column
  takes the MIN of its non-null values, mirroring the aggregate the
  database would produce.

USAGE:
  store, err := sqlstore.Open("sqlite3", "formu.db", log)
  if err != nil {
      ...
  }
  defer store.Close()

SEE ALSO:
  - concepts/corpus.go: the Corpus contract
  - payroll/payroll.go: the Source contract
  - concepts/store/memory.go: in-memory Corpus for tests
*/
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"github.com/upcn/formu/concepts"
	"github.com/upcn/formu/payroll"
)

// Store reads concepts and payroll lines from a SQL database.
type Store struct {
	db  *sqlx.DB
	log zerolog.Logger
}

var (
	_ concepts.Corpus = (*Store)(nil)
	_ payroll.Source  = (*Store)(nil)
)

// Open connects to the database and pings it.
func Open(driver, dsn string, log zerolog.Logger) (*Store, error) {
	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", driver, err)
	}
	return New(db, log), nil
}

// New wraps an already opened connection.
func New(db *sqlx.DB, log zerolog.Logger) *Store {
	return &Store{db: db, log: log}
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// =============================================================================
// CONCEPT CORPUS (concepts.Corpus interface)
// =============================================================================

const conceptColumns = `CodConcepto, CodFormula, DescripcionConcepto, DescripcionFormula,
	CondicionFormula, TransitorioDefinitivo, TipoLiquidacion, TipoConcepto, Orden, FormulaCompleta`

// conceptRow is one raw view row. Everything but the concept code is
// nullable in the source system.
type conceptRow struct {
	Code               string         `db:"CodConcepto"`
	FormulaCode        sql.NullString `db:"CodFormula"`
	Description        sql.NullString `db:"DescripcionConcepto"`
	FormulaDescription sql.NullString `db:"DescripcionFormula"`
	Condition          sql.NullString `db:"CondicionFormula"`
	ClassCode          sql.NullString `db:"TransitorioDefinitivo"`
	LiqType            sql.NullString `db:"TipoLiquidacion"`
	TypeCode           sql.NullString `db:"TipoConcepto"`
	Ordering           sql.NullInt64  `db:"Orden"`
	Formula            sql.NullString `db:"FormulaCompleta"`
}

// All returns every concept, grouped, ordered by code then formula code.
func (s *Store) All(ctx context.Context) ([]concepts.Concept, error) {
	query := `SELECT ` + conceptColumns + `
		FROM ConceptoTipoLiqFormula
		ORDER BY CodConcepto, CodFormula`
	return s.queryConcepts(ctx, query)
}

// Get returns the concept for a code, its first formula when it has
// several. ErrConceptNotFound when the code is not on record.
func (s *Store) Get(ctx context.Context, code string) (*concepts.Concept, error) {
	query := `SELECT ` + conceptColumns + `
		FROM ConceptoTipoLiqFormula
		WHERE CodConcepto = ?
		ORDER BY CodConcepto, CodFormula`
	grouped, err := s.queryConcepts(ctx, query, code)
	if err != nil {
		return nil, err
	}
	if len(grouped) == 0 {
		return nil, concepts.ErrConceptNotFound
	}
	return &grouped[0], nil
}

// Range returns the concepts whose code falls in [lo, hi], string
// comparison as the codes are zero-padded.
func (s *Store) Range(ctx context.Context, lo, hi string) ([]concepts.Concept, error) {
	query := `SELECT ` + conceptColumns + `
		FROM ConceptoTipoLiqFormula
		WHERE CodConcepto BETWEEN ? AND ?
		ORDER BY CodConcepto, CodFormula`
	return s.queryConcepts(ctx, query, lo, hi)
}

func (s *Store) queryConcepts(ctx context.Context, query string, args ...any) ([]concepts.Concept, error) {
	var rows []conceptRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("querying concepts: %w", err)
	}
	return groupConcepts(rows), nil
}

// conceptGroup accumulates the rows of one concept+formula pair.
type conceptGroup struct {
	row      conceptRow
	liqTypes []string
}

func (g *conceptGroup) merge(row conceptRow) {
	g.row.FormulaCode = minString(g.row.FormulaCode, row.FormulaCode)
	g.row.Description = minString(g.row.Description, row.Description)
	g.row.FormulaDescription = minString(g.row.FormulaDescription, row.FormulaDescription)
	g.row.Condition = minString(g.row.Condition, row.Condition)
	g.row.ClassCode = minString(g.row.ClassCode, row.ClassCode)
	g.row.TypeCode = minString(g.row.TypeCode, row.TypeCode)
	g.row.Ordering = minInt(g.row.Ordering, row.Ordering)
	g.row.Formula = minString(g.row.Formula, row.Formula)
	if row.LiqType.Valid {
		g.liqTypes = append(g.liqTypes, row.LiqType.String)
	}
}

func (g *conceptGroup) concept() concepts.Concept {
	c := concepts.Concept{
		Code:               g.row.Code,
		FormulaCode:        g.row.FormulaCode.String,
		Description:        g.row.Description.String,
		FormulaDescription: g.row.FormulaDescription.String,
		Formula:            g.row.Formula.String,
		Condition:          g.row.Condition.String,
		TypeCode:           g.row.TypeCode.String,
		LiqTypes:           strings.Join(g.liqTypes, "-"),
		Classification:     concepts.ClassificationFromCode(g.row.ClassCode.String),
	}
	if g.row.Ordering.Valid {
		n := int(g.row.Ordering.Int64)
		c.Ordering = &n
	}
	return c
}

// groupConcepts collapses contiguous rows sharing a concept+formula
// pair. Relies on the ORDER BY of the queries above.
func groupConcepts(rows []conceptRow) []concepts.Concept {
	out := make([]concepts.Concept, 0, len(rows))
	var group *conceptGroup
	for _, row := range rows {
		if group != nil && group.row.Code == row.Code && group.row.FormulaCode.String == row.FormulaCode.String {
			group.merge(row)
			continue
		}
		if group != nil {
			out = append(out, group.concept())
		}
		group = &conceptGroup{row: row}
		if row.LiqType.Valid {
			group.liqTypes = []string{row.LiqType.String}
		}
	}
	if group != nil {
		out = append(out, group.concept())
	}
	return out
}

func minString(a, b sql.NullString) sql.NullString {
	if !b.Valid {
		return a
	}
	if !a.Valid || b.String < a.String {
		return b
	}
	return a
}

func minInt(a, b sql.NullInt64) sql.NullInt64 {
	if !b.Valid {
		return a
	}
	if !a.Valid || b.Int64 < a.Int64 {
		return b
	}
	return a
}

// =============================================================================
// PAYROLL SOURCE (payroll.Source interface)
// =============================================================================

type liquidationRow struct {
	Year     int64           `db:"LiqAno"`
	Month    int64           `db:"LiqMes"`
	LiqType  string          `db:"LiqTpoLiq"`
	Employee string          `db:"LiqLeg"`
	Concept  string          `db:"Liq1Cnc"`
	Calc     sql.NullFloat64 `db:"Liq1Cal"`
	Reported sql.NullFloat64 `db:"Liq1Inf"`
}

// Period returns the lines settled for a period, one employee when
// employee is non-empty. Ordered by concept code.
func (s *Store) Period(ctx context.Context, year, month int, liqType, employee string) ([]payroll.Line, error) {
	query := `SELECT LiqAno, LiqMes, LiqTpoLiq, LiqLeg, Liq1Cnc, Liq1Cal, Liq1Inf
		FROM LIQUID1
		WHERE LiqAno = ? AND LiqMes = ? AND LiqTpoLiq = ?`
	args := []any{year, month, liqType}
	if employee != "" {
		query += ` AND LiqLeg = ?`
		args = append(args, employee)
	}
	query += ` ORDER BY Liq1Cnc`

	var rows []liquidationRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("querying liquidation lines: %w", err)
	}

	lines := make([]payroll.Line, 0, len(rows))
	for _, row := range rows {
		lines = append(lines, payroll.Line{
			Year:        int(row.Year),
			Month:       int(row.Month),
			LiqType:     row.LiqType,
			Employee:    row.Employee,
			ConceptCode: row.Concept,
			Calculated:  nullableFloat(row.Calc),
			Reported:    nullableFloat(row.Reported),
		})
	}
	return lines, nil
}

// LiqTypes returns the distinct liquidation type codes on record.
func (s *Store) LiqTypes(ctx context.Context) ([]string, error) {
	var codes []string
	query := `SELECT DISTINCT LiqTpoLiq FROM LIQUID1 ORDER BY LiqTpoLiq`
	if err := s.db.SelectContext(ctx, &codes, query); err != nil {
		return nil, fmt.Errorf("querying liquidation types: %w", err)
	}
	return codes, nil
}

// Employees returns the distinct employee numbers settled in a period.
func (s *Store) Employees(ctx context.Context, year, month int) ([]string, error) {
	var employees []string
	query := s.db.Rebind(`SELECT DISTINCT LiqLeg FROM LIQUID1 WHERE LiqAno = ? AND LiqMes = ? ORDER BY LiqLeg`)
	if err := s.db.SelectContext(ctx, &employees, query, year, month); err != nil {
		return nil, fmt.Errorf("querying employees: %w", err)
	}
	return employees, nil
}

func nullableFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
