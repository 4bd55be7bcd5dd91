/*
sqlstore_test.go - SQL store tests

PURPOSE:
  Runs the corpus and payroll queries against an in-memory SQLite
  database shaped like the production view and table. Covers the
  liquidation-type grouping, the MIN collapse of grouped columns, null
  handling and the period filters.
*/
package sqlstore_test

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upcn/formu/concepts"
	"github.com/upcn/formu/store/sqlstore"
)

const testSchema = `
	CREATE TABLE ConceptoTipoLiqFormula (
		CodConcepto           TEXT NOT NULL,
		CodFormula            TEXT,
		DescripcionConcepto   TEXT,
		DescripcionFormula    TEXT,
		CondicionFormula      TEXT,
		TransitorioDefinitivo TEXT,
		TipoLiquidacion       TEXT,
		TipoConcepto          TEXT,
		Orden                 INTEGER,
		FormulaCompleta       TEXT
	);

	CREATE TABLE LIQUID1 (
		LiqAno    INTEGER NOT NULL,
		LiqMes    INTEGER NOT NULL,
		LiqTpoLiq TEXT NOT NULL,
		LiqLeg    TEXT NOT NULL,
		Liq1Cnc   TEXT NOT NULL,
		Liq1Cal   REAL,
		Liq1Inf   REAL
	);
`

func newTestStore(t *testing.T) (*sqlstore.Store, *sqlx.DB) {
	t.Helper()

	db, err := sqlx.Connect("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(testSchema)
	require.NoError(t, err)

	return sqlstore.New(db, zerolog.Nop()), db
}

// seedConcept inserts one raw view row. Arguments follow the column
// order: code, formula code, concept description, formula description,
// condition, D/T letter, liq type, concept type, orden, formula text.
func seedConcept(t *testing.T, db *sqlx.DB, args ...any) {
	t.Helper()
	require.Len(t, args, 10)
	_, err := db.Exec(`INSERT INTO ConceptoTipoLiqFormula
		(CodConcepto, CodFormula, DescripcionConcepto, DescripcionFormula, CondicionFormula,
		 TransitorioDefinitivo, TipoLiquidacion, TipoConcepto, Orden, FormulaCompleta)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, args...)
	require.NoError(t, err)
}

func seedLine(t *testing.T, db *sqlx.DB, year, month int, liqType, employee, concept string, cal, inf any) {
	t.Helper()
	_, err := db.Exec(`INSERT INTO LIQUID1
		(LiqAno, LiqMes, LiqTpoLiq, LiqLeg, Liq1Cnc, Liq1Cal, Liq1Inf)
		VALUES (?, ?, ?, ?, ?, ?, ?)`, year, month, liqType, employee, concept, cal, inf)
	require.NoError(t, err)
}

func TestAllGroupsLiquidationTypes(t *testing.T) {
	// GIVEN a concept settled under two liquidation types and another
	// under one
	store, db := newTestStore(t)
	seedConcept(t, db, "0100", "F1", "Sueldo básico", "Básico", nil, "D", "1", "R", 10, "%CALC0200%")
	seedConcept(t, db, "0100", "F1", "Sueldo básico", "Básico", nil, "D", "2", "R", 10, "%CALC0200%")
	seedConcept(t, db, "0200", "F2", "Antigüedad", nil, nil, "T", "1", "R", 20, nil)

	// WHEN everything is loaded
	all, err := store.All(context.Background())
	require.NoError(t, err)

	// THEN the pair collapses into one concept with the types joined
	require.Len(t, all, 2)
	assert.Equal(t, "0100", all[0].Code)
	assert.Equal(t, "1-2", all[0].LiqTypes)
	assert.Equal(t, "Sueldo básico", all[0].Description)
	assert.Equal(t, "%CALC0200%", all[0].Formula)
	assert.True(t, all[0].Classification.IsDefinitive())
	require.NotNil(t, all[0].Ordering)
	assert.Equal(t, 10, *all[0].Ordering)

	assert.Equal(t, "0200", all[1].Code)
	assert.Equal(t, "1", all[1].LiqTypes)
	assert.False(t, all[1].Classification.IsDefinitive())
}

func TestAllTakesMinOfGroupedColumns(t *testing.T) {
	store, db := newTestStore(t)
	seedConcept(t, db, "0100", "F1", "B descripción", nil, nil, "D", "1", "R", 5, nil)
	seedConcept(t, db, "0100", "F1", "A descripción", "Fórmula", nil, "D", "2", "R", 3, "%CALC0200%")

	all, err := store.All(context.Background())
	require.NoError(t, err)

	require.Len(t, all, 1)
	assert.Equal(t, "A descripción", all[0].Description)
	assert.Equal(t, "Fórmula", all[0].FormulaDescription)
	assert.Equal(t, "%CALC0200%", all[0].Formula)
	require.NotNil(t, all[0].Ordering)
	assert.Equal(t, 3, *all[0].Ordering)
}

func TestAllKeepsDistinctFormulasApart(t *testing.T) {
	// GIVEN one concept carrying two formulas
	store, db := newTestStore(t)
	seedConcept(t, db, "0100", "F2", "Sueldo", nil, nil, "D", "1", "R", nil, "%CALC0300%")
	seedConcept(t, db, "0100", "F1", "Sueldo", nil, nil, "D", "1", "R", nil, "%CALC0200%")

	all, err := store.All(context.Background())
	require.NoError(t, err)

	// THEN each formula stays its own row, ordered by formula code
	require.Len(t, all, 2)
	assert.Equal(t, "F1", all[0].FormulaCode)
	assert.Equal(t, "F2", all[1].FormulaCode)
}

func TestGet(t *testing.T) {
	store, db := newTestStore(t)
	seedConcept(t, db, "0100", "F2", "Sueldo", nil, "%INFO0300% > 0", "D", "1", "R", 10, "%CALC0200%")
	seedConcept(t, db, "0100", "F1", "Sueldo", nil, nil, "D", "1", "R", 10, "%CALC0400%")

	// Get returns the first formula of the code
	c, err := store.Get(context.Background(), "0100")
	require.NoError(t, err)
	assert.Equal(t, "0100", c.Code)
	assert.Equal(t, "F1", c.FormulaCode)
	assert.Equal(t, "%CALC0400%", c.Formula)

	_, err = store.Get(context.Background(), "9999")
	assert.ErrorIs(t, err, concepts.ErrConceptNotFound)
}

func TestRangeBoundsAreInclusive(t *testing.T) {
	store, db := newTestStore(t)
	for _, code := range []string{"0049", "0050", "0075", "0100", "0101"} {
		seedConcept(t, db, code, "F1", "C "+code, nil, nil, "D", "1", "R", nil, nil)
	}

	rows, err := store.Range(context.Background(), "0050", "0100")
	require.NoError(t, err)

	require.Len(t, rows, 3)
	assert.Equal(t, "0050", rows[0].Code)
	assert.Equal(t, "0075", rows[1].Code)
	assert.Equal(t, "0100", rows[2].Code)
}

func TestNullColumnsMapToZeroValues(t *testing.T) {
	store, db := newTestStore(t)
	seedConcept(t, db, "0100", nil, nil, nil, nil, nil, nil, nil, nil, nil)

	c, err := store.Get(context.Background(), "0100")
	require.NoError(t, err)

	assert.Empty(t, c.FormulaCode)
	assert.Empty(t, c.Description)
	assert.Empty(t, c.Formula)
	assert.Empty(t, c.Condition)
	assert.Empty(t, c.LiqTypes)
	assert.Nil(t, c.Ordering)
	assert.Equal(t, concepts.Transitory, c.Classification)
}

func TestPeriodFiltersAndOrders(t *testing.T) {
	// GIVEN lines across two periods and two employees
	store, db := newTestStore(t)
	seedLine(t, db, 2024, 6, "1", "100", "0200", 500.0, nil)
	seedLine(t, db, 2024, 6, "1", "100", "0100", 1000.5, 3.0)
	seedLine(t, db, 2024, 6, "1", "200", "0100", 900.0, nil)
	seedLine(t, db, 2024, 7, "1", "100", "0100", 1100.0, nil) // other month
	seedLine(t, db, 2024, 6, "2", "100", "0100", 50.0, nil)   // other type

	// WHEN the whole June period is loaded
	lines, err := store.Period(context.Background(), 2024, 6, "1", "")
	require.NoError(t, err)

	// THEN only that period's lines come back, ordered by concept
	require.Len(t, lines, 3)
	assert.Equal(t, "0100", lines[0].ConceptCode)
	assert.Equal(t, "0100", lines[1].ConceptCode)
	assert.Equal(t, "0200", lines[2].ConceptCode)
	require.NotNil(t, lines[0].Calculated)

	// AND nil stays nil for missing amounts
	assert.Nil(t, lines[2].Reported)
	require.NotNil(t, lines[2].Calculated)
	assert.Equal(t, 500.0, *lines[2].Calculated)
}

func TestPeriodFiltersEmployee(t *testing.T) {
	store, db := newTestStore(t)
	seedLine(t, db, 2024, 6, "1", "100", "0100", 1000.0, nil)
	seedLine(t, db, 2024, 6, "1", "200", "0100", 900.0, nil)

	lines, err := store.Period(context.Background(), 2024, 6, "1", "200")
	require.NoError(t, err)

	require.Len(t, lines, 1)
	assert.Equal(t, "200", lines[0].Employee)
	assert.Equal(t, 900.0, *lines[0].Calculated)
}

func TestLiqTypes(t *testing.T) {
	store, db := newTestStore(t)
	seedLine(t, db, 2024, 6, "2", "100", "0100", 1.0, nil)
	seedLine(t, db, 2024, 6, "1", "100", "0100", 1.0, nil)
	seedLine(t, db, 2024, 7, "1", "100", "0100", 1.0, nil)

	codes, err := store.LiqTypes(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"1", "2"}, codes)
}

func TestEmployees(t *testing.T) {
	store, db := newTestStore(t)
	seedLine(t, db, 2024, 6, "1", "200", "0100", 1.0, nil)
	seedLine(t, db, 2024, 6, "2", "100", "0100", 1.0, nil)
	seedLine(t, db, 2024, 6, "1", "100", "0200", 1.0, nil)
	seedLine(t, db, 2024, 7, "1", "300", "0100", 1.0, nil) // other month

	employees, err := store.Employees(context.Background(), 2024, 6)
	require.NoError(t, err)

	assert.Equal(t, []string{"100", "200"}, employees)
}
