/*
dto.go - Data Transfer Objects for API responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract. The wire
  field names are Spanish: the payroll frontend consumes this API and
  its contract predates this service.

NAMING CONVENTION:
  - *DTO: Response types returned to clients. The batch endpoint takes
    a bare JSON array, so there are no request types.

TYPES:
  Concepts:
    ConceptoDTO, VariableDTO, RangoConceptosDTO, ConceptoEnRangoDTO

  Payroll:
    LiquidacionDTO

  Errors:
    ErrorResponse

NULL VS EMPTY:
  Summary responses carry the parse and graph fields as null; detail
  responses always materialize them as arrays, empty included. The nil
  versus empty-slice split in the converters is part of the contract and
  covered by tests.

SEE ALSO:
  - handlers.go: Uses these types
  - formula/parser.go: ParsedVariable, the source of VariableDTO
*/
package api

import (
	"github.com/upcn/formu/colors"
	"github.com/upcn/formu/concepts"
	"github.com/upcn/formu/formula"
	"github.com/upcn/formu/payroll"
)

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// ConceptoDTO is a concept on the wire, as a summary (graph fields
// null) or as a full detail.
type ConceptoDTO struct {
	Codigo           string `json:"codigo"`
	Descripcion      string `json:"descripcion"`
	Formula          string `json:"formula"` // formula code, not the text
	FormulaCompleta  string `json:"formulaCompleta"`
	CondicionFormula string `json:"condicionFormula"`
	TipoConcepto     string `json:"tipoConcepto"`
	TipoConceptoAbr  string `json:"tipoConceptoAbr,omitempty"`
	Observacion      string `json:"observacion,omitempty"`
	TiposLiquidacion string `json:"tiposLiquidacion"`
	Orden            *int   `json:"orden"`
	Definitivo       bool   `json:"definitivo"`

	// Parsed variables of the formula and of the condition.
	Variables          []VariableDTO `json:"variables"`
	VariablesCondicion []VariableDTO `json:"variablesCondicion"`

	// Dependencias lists the codes this concept references; Dependientes
	// the codes referencing it.
	Dependencias []string `json:"dependencias"`
	Dependientes []string `json:"dependientes"`

	// Settlement amounts, present when a liquidation was loaded.
	ImporteLiquidacion *float64 `json:"importeLiquidacion,omitempty"`
	ValorInformado     *float64 `json:"valorInformado,omitempty"`

	// Self values of the concept (VAL1/VAL2/VAL3 variables).
	Val1 *float64 `json:"val1,omitempty"`
	Val2 *float64 `json:"val2,omitempty"`
	Val3 *float64 `json:"val3,omitempty"`

	Color       string `json:"color"`
	BorderColor string `json:"borderColor"`
}

// VariableDTO is one parsed formula variable.
type VariableDTO struct {
	Nombre               string   `json:"nombre"`
	Prefijo              string   `json:"prefijo"`
	Tipo                 string   `json:"tipo"` // SINGLE_CONCEPT, RANGE or TERMINAL
	ConceptoReferenciado string   `json:"conceptoReferenciado,omitempty"`
	RangoInicio          string   `json:"rangoInicio,omitempty"`
	RangoFin             string   `json:"rangoFin,omitempty"`
	ConceptosEnRango     []string `json:"conceptosEnRango,omitempty"`
	TextoMostrar         string   `json:"textoMostrar"`
	Color                string   `json:"color"`
	DescripcionPatron    string   `json:"descripcionPatron,omitempty"`
	PosicionInicio       int      `json:"posicionInicio"`
	PosicionFin          int      `json:"posicionFin"`
}

// RangoConceptosDTO is the expansion of a range variable.
type RangoConceptosDTO struct {
	ID           string               `json:"id"`
	Tipo         string               `json:"tipo"`
	CodigoInicio string               `json:"codigoInicio"`
	CodigoFin    string               `json:"codigoFin"`
	Descripcion  string               `json:"descripcion"`
	Conceptos    []ConceptoEnRangoDTO `json:"conceptos"`
	Color        string               `json:"color"`
}

// ConceptoEnRangoDTO is one member concept inside a range expansion.
type ConceptoEnRangoDTO struct {
	Codigo      string `json:"codigo"`
	Descripcion string `json:"descripcion"`
	Definitivo  bool   `json:"definitivo"`
	Color       string `json:"color"`
}

// LiquidacionDTO is one settled concept aggregate.
type LiquidacionDTO struct {
	CodigoConcepto   string  `json:"codigoConcepto"`
	ImporteCalculado float64 `json:"importeCalculado"`
	ValorInformado   float64 `json:"valorInformado"`
	Legajo           string  `json:"legajo,omitempty"`
	CantidadLegajos  int     `json:"cantidadLegajos"`
}

// ErrorResponse is the standard error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERTERS
// =============================================================================

// toConceptoDTO maps a concept summary. Parse and graph fields stay
// nil, serializing as null.
func toConceptoDTO(c concepts.Concept) ConceptoDTO {
	pair := colors.Derive(c.Code)
	return ConceptoDTO{
		Codigo:           c.Code,
		Descripcion:      c.Description,
		Formula:          c.FormulaCode,
		FormulaCompleta:  c.Formula,
		CondicionFormula: c.Condition,
		TipoConcepto:     c.TypeCode,
		TiposLiquidacion: c.LiqTypes,
		Orden:            c.Ordering,
		Definitivo:       c.Classification.IsDefinitive(),
		Val1:             c.V1,
		Val2:             c.V2,
		Val3:             c.V3,
		Color:            pair.Background,
		BorderColor:      pair.Border,
	}
}

// toConceptoDetailDTO maps a full detail. The parse and graph fields
// are always arrays here, empty included.
func toConceptoDetailDTO(d concepts.Detail) ConceptoDTO {
	dto := toConceptoDTO(d.Concept)
	dto.Variables = toVariableDTOs(d.Variables)
	dto.VariablesCondicion = toVariableDTOs(d.ConditionVariables)
	dto.Dependencias = emptyIfNil(d.Dependencies)
	dto.Dependientes = emptyIfNil(d.Dependents)
	return dto
}

func toVariableDTOs(vars []formula.ParsedVariable) []VariableDTO {
	out := make([]VariableDTO, 0, len(vars))
	for _, v := range vars {
		out = append(out, VariableDTO{
			Nombre:               v.Name,
			Prefijo:              v.Prefix,
			Tipo:                 string(v.Kind),
			ConceptoReferenciado: v.ReferencedConcept,
			RangoInicio:          v.RangeStart,
			RangoFin:             v.RangeEnd,
			TextoMostrar:         v.DisplayText,
			Color:                v.Color,
			DescripcionPatron:    v.PatternDescription,
			PosicionInicio:       v.SpanStart,
			PosicionFin:          v.SpanEnd,
		})
	}
	return out
}

func toRangoDTO(listing concepts.RangeListing) RangoConceptosDTO {
	items := make([]ConceptoEnRangoDTO, 0, len(listing.Concepts))
	for _, c := range listing.Concepts {
		items = append(items, ConceptoEnRangoDTO{
			Codigo:      c.Code,
			Descripcion: c.Description,
			Definitivo:  c.Classification.IsDefinitive(),
			Color:       colors.Background(c.Code),
		})
	}
	return RangoConceptosDTO{
		ID:           listing.ID,
		Tipo:         listing.Type,
		CodigoInicio: listing.Lo,
		CodigoFin:    listing.Hi,
		Descripcion:  listing.Description,
		Conceptos:    items,
		Color:        colors.Background(listing.ID),
	}
}

func toLiquidacionDTO(agg payroll.Aggregate) LiquidacionDTO {
	return LiquidacionDTO{
		CodigoConcepto:   agg.ConceptCode,
		ImporteCalculado: agg.Calculated.InexactFloat64(),
		ValorInformado:   agg.Reported.InexactFloat64(),
		Legajo:           agg.Employee,
		CantidadLegajos:  agg.EmployeeCount,
	}
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
