/*
concept.go - Payroll concept model

PURPOSE:
  A Concept is one grouped row of the payroll formula view: a concept
  code paired with one of its formulas, carrying the formula text, the
  condition text and the liquidation types the pair applies to. The
  model is read-only; the service never writes concepts back.
*/
package concepts

import "strings"

// Classification splits concepts into the two payroll groups. Definitive
// concepts survive the period close; transitory ones are recalculated.
type Classification string

const (
	Definitive Classification = "DEFINITIVE"
	Transitory Classification = "TRANSITORY"
)

// ClassificationFromCode maps the single-letter database marker: "D" in
// any case is definitive, everything else is transitory.
func ClassificationFromCode(letter string) Classification {
	if strings.EqualFold(letter, "D") {
		return Definitive
	}
	return Transitory
}

// IsDefinitive reports whether the classification is Definitive.
func (c Classification) IsDefinitive() bool {
	return c == Definitive
}

// Concept is one (code, formula) pair of the corpus.
type Concept struct {
	Code               string
	FormulaCode        string
	Description        string
	FormulaDescription string
	Formula            string // full formula text with %TOKEN% variables
	Condition          string // optional guard, same variable syntax
	TypeCode           string
	LiqTypes           string // liquidation types aggregated with "-"
	Ordering           *int
	Classification     Classification

	// Optional self values. The SQL projection never fills these; other
	// corpora may.
	V1, V2, V3 *float64
}
