/*
registry.go - Pattern table for formula variables

PURPOSE:
  Holds every recognized variable shape as an anchored regular
  expression together with its display template. The table is built
  once at startup and never mutated afterwards, so a single Registry
  can be shared freely across goroutines.

MATCHING ORDER:
  Buckets are tried RANGE -> SINGLE_CONCEPT -> TERMINAL; within a
  bucket the first matching entry wins, so order inside each bucket
  matters.

TEMPLATES:
  Display templates carry placeholders substituted with captured
  groups at parse time:
    {nnnn}  referenced concept code (or range start)
    {xxxx}  range end
    {mm}    months back (CC/CI)
    {l}     liquidation type (CC/CI, CALU/CALX)
  An entry may carry a self template, used instead of the regular one
  when the captured concept is the 0000 self reference.

SEE ALSO:
  - parser.go: scanning and classification
*/
package formula

import "regexp"

// =============================================================================
// TYPES
// =============================================================================

// Kind classifies what a formula variable refers to.
type Kind string

const (
	// KindSingleConcept marks variables that reference exactly one concept code.
	KindSingleConcept Kind = "SINGLE_CONCEPT"
	// KindRange marks variables that reference an inclusive range of concept codes.
	KindRange Kind = "RANGE"
	// KindTerminal marks variables that reference no concept at all.
	KindTerminal Kind = "TERMINAL"
)

// SelfReference is the concept code formulas use to refer to the concept
// being calculated.
const SelfReference = "0000"

// Pattern is one row of the table: a variable shape plus its display text.
type Pattern struct {
	Prefix  string
	Rule    *regexp.Regexp
	Kind    Kind
	Display string
	// SelfDisplay replaces Display when the captured concept is the 0000
	// self reference. Empty means the entry has no special self text.
	SelfDisplay string
}

// Registry is the immutable pattern table.
type Registry struct {
	ranges       []Pattern
	singles      []Pattern
	terminals    []Pattern
	descriptions map[string]string
}

// =============================================================================
// LOOKUP
// =============================================================================

// Lookup classifies a variable name (without the surrounding %) against the
// table. It returns the matching entry and its regexp submatches, or
// ok=false when no bucket recognizes the name.
func (r *Registry) Lookup(name string) (Pattern, []string, bool) {
	for _, bucket := range [][]Pattern{r.ranges, r.singles, r.terminals} {
		for _, p := range bucket {
			if m := p.Rule.FindStringSubmatch(name); m != nil {
				return p, m, true
			}
		}
	}
	return Pattern{}, nil, false
}

// Description returns the long explanation shown for a prefix, or "" when
// none is defined.
func (r *Registry) Description(prefix string) string {
	return r.descriptions[prefix]
}

// =============================================================================
// TABLE
// =============================================================================

// terminalNames are the variables that match and display themselves.
var terminalNames = []string{
	"AFILIADO", "ANTIGUEDAD", "ANTIGUEMES", "ANIOSCAT", "ANOLIQ",
	"ANTIBAE", "ANTICIPO", "ART", "BASICOANTI", "CANTADHE",
	"CATEGORIA", "CONCEPTO", "CONCEPTO2", "CONDCONTRA", "CONVENIO",
	"CTOCTO", "DIASGUAR", "DIASHABI", "DIASTRAB", "DIATRAMES",
	"DIATRAMESE", "EDAD", "FERIANT", "FERITRAB", "FRENTE",
	"GASTOSEDUC", "GENNETACU", "GRUPO", "GRUTRAB", "GUARDERIA",
	"INASISTEN", "MESANTIG", "MESCOBBAE", "MESLIQ", "MESNACIM",
	"MODCONT", "OBRASOC", "PERTOPE", "PRESTAMO", "PROMEDIO",
	"QUINCENA", "RDEDUC1", "RG5800", "RGCAFACO", "RGCAFACOFI",
	"RGCAFAHI", "RGCAFAHIFI", "RGCAFAOT", "RGCAFAOTFI", "RGDEDINA",
	"RGDEDIND", "RGGANOIM", "RGPRIMSE", "RGSEGSEP", "SACDIA",
	"SEXO", "TARDANZA", "TIPOEMP", "TIPOLIQ", "TOTEMBAR",
	"VACANOLIQ", "VACDIADCT", "VACDIADIG", "VACDIADL1", "VACDIADL2",
	"VACDIADLI", "VACDIALIQ", "VACDIAVAC", "VACMESLIQ",
	"F572DRE", "F572FACO", "F572FADI", "F572FAHI", "F572FAOT",
	"F572HOE", "F572HOR", "F572OGC", "F572ORE", "F572OSE",
	"F572OSI", "F572OSS", "F572SAC", "PBAEANTIGA", "PBAEANTIGC",
}

// NewRegistry builds the full pattern table.
func NewRegistry() *Registry {
	r := &Registry{
		descriptions: map[string]string{
			"CALC": "Importe calculado en el concepto indicado",
			"INFO": "Valor informado en el parte de novedades",
			"SC":   "Sumatoria de conceptos definitivos del rango",
			"ST":   "Sumatoria de conceptos transitorios del rango",
			"SI":   "Sumatoria de valores informados del rango",
		},
	}

	r.ranges = []Pattern{
		rangePattern("SC", `^SC(\d{4})(\d{4})$`, "Suma definitivos {nnnn}-{xxxx}"),
		rangePattern("ST", `^ST(\d{4})(\d{4})$`, "Suma transitorios {nnnn}-{xxxx}"),
		rangePattern("SI", `^SI(\d{4})(\d{4})$`, "Suma informados {nnnn}-{xxxx}"),
		rangePattern("S", `^S(\d{4})(\d{4})[A-Z]$`, "Suma última liq. {nnnn}-{xxxx}"),
		rangePattern("E", `^E(\d{4})(\d{4})\d$`, "Especialización {nnnn}-{xxxx}"),
		rangePattern("MM", `^MM(\d{4})(\d{4})$`, "Menor valor {nnnn} y {xxxx}"),
	}

	r.singles = []Pattern{
		singlePattern("CALC", `^CALC(\d{4})$`, "Valor de {nnnn}"),
		selfPattern("INFO", `^INFO(\d{4})$`, "Informado en {nnnn}", "Informado en este concepto"),
		singlePattern("REDO", `^REDO(\d{4})$`, "Redondeo de {nnnn}"),
		selfPattern("VAL1", `^VAL1(\d{4})$`, "Valor 1 de {nnnn}", "Valor 1 de este concepto"),
		selfPattern("VAL2", `^VAL2(\d{4})$`, "Valor 2 de {nnnn}", "Valor 2 de este concepto"),
		selfPattern("VAL3", `^VAL3(\d{4})$`, "Valor 3 de {nnnn}", "Valor 3 de este concepto"),
		selfPattern("FVA1", `^FVA1(\d{4})$`, "Valor fijo 1 del legajo, del concepto {nnnn}", "Valor fijo 1 del legajo, de este concepto"),
		selfPattern("FVA2", `^FVA2(\d{4})$`, "Valor fijo 2 del legajo, del concepto {nnnn}", "Valor fijo 2 del legajo, de este concepto"),
		selfPattern("FVA3", `^FVA3(\d{4})$`, "Valor fijo 3 del legajo, del concepto {nnnn}", "Valor fijo 3 del legajo, de este concepto"),
		selfPattern("BASI", `^BASI(\d{4})$`, "Básico de comp. salarial {nnnn}", "Básico de su comp. salarial"),
		selfPattern("ADIC", `^ADIC(\d{4})$`, "Adicional de comp. salarial {nnnn}", "Adicional de su comp. salarial"),
		singlePattern("COMS", `^COMS(\d{4})$`, "Comp. salarial {nnnn}"),
		singlePattern("PCON", `^PCON(\d{4})$`, "Concepto {nnnn} de comp. salarial"),
		singlePattern("PCOM", `^PCOM(\d{4})$`, "Concepto actual en comp. {nnnn}"),
		singlePattern("CGAN", `^CGAN(\d{4})$`, "Calc. Ganancias de {nnnn}"),
		singlePattern("PROVAC", `^PROVAC(\d{4})$`, "Provisión vacaciones de {nnnn}"),

		// Shapes carrying extra parameters that still reference one concept.
		singlePattern("CALU", `^CALU(\d{4})([A-Z0-9])$`, "Valor de {nnnn} de última liq. tipo {l}"),
		singlePattern("CALX", `^CALX(\d{4})([A-Z0-9])$`, "Valor de {nnnn} de última liq. tipo {l}"),
		singlePattern("CSEM", `^CSEM(\d{4})\d[A-Z]$`, "Semestre de {nnnn}"),
		singlePattern("CSEP", `^CSEP(\d{4})\d[A-Z]$`, "Semestre prev. de {nnnn}"),
		singlePattern("MSEM", `^MSEM(\d{4})\d[A-Z]$`, "Mayor en semestre de {nnnn}"),
		singlePattern("CC", `^CC(\d{4})([A-Z0-9]{2})(\d)(\d)$`, "Valor de {nnnn}, liq. {l} de {mm} meses atrás"),
		singlePattern("CI", `^CI(\d{4})([A-Z0-9]{2})(\d)(\d)$`, "Inf. de {nnnn}, liq. {l} de {mm} meses atrás"),
		singlePattern("AC", `^AC(\d{4})\d{2}\d[A-Z]$`, "Acum. calc. de {nnnn}"),
		singlePattern("AI", `^AI(\d{4})\d{2}\d[A-Z]$`, "Acum. inf. de {nnnn}"),

		// Historic liquidation values: 0nnnnaammq, Lnnnnaammq, Annnnaammq, Bnnnnaammq.
		singlePattern("0", `^0(\d{4})\d{5}$`, "Sueldo hist. de {nnnn}"),
		singlePattern("L", `^L(\d{4})\d{5}$`, "Liq. normal hist. de {nnnn}"),
		singlePattern("A", `^A(\d{4})\d{5}$`, "Aguinaldo hist. de {nnnn}"),
		singlePattern("B", `^B(\d{4})\d{5}$`, "BAE hist. de {nnnn}"),
	}

	for _, name := range terminalNames {
		r.terminals = append(r.terminals, terminalPattern(name, "^"+regexp.QuoteMeta(name)+"$", name))
	}

	// Parameterized terminals: the shape is recognized but no concept is
	// referenced.
	r.terminals = append(r.terminals,
		terminalPattern("ANOTRA", `^ANOTRA\d{3}$`, "Años trabajados"),
		terminalPattern("ATENC", `^ATENC\d{4}$`, "Atención"),
		terminalPattern("DIATRAANO", `^DIATRAANO\d$`, "Días trab. año"),
		terminalPattern("DIATRASEI", `^DIATRASEI\d$`, "Días trab. semestre"),
		terminalPattern("DIATRASEM", `^DIATRASEM\d$`, "Días trab. semestre"),
		terminalPattern("DIAINASEM", `^DIAINASEM\d$`, "Días inas. semestre"),
		terminalPattern("EMBARGO", `^EMBARGO\d$`, "Embargo"),
		terminalPattern("ESPEC", `^ESPEC\d$`, "Especialización"),
		terminalPattern("FAMI", `^FAMI\d{3}$`, "Salario familiar"),
		terminalPattern("FERI", `^FERI\d$`, "Feriados"),
		terminalPattern("F572DED", `^F572DED\d{2}$`, "Deducción F572"),
		terminalPattern("F572MOT", `^F572MOT\d$`, "Motivo F572"),
		terminalPattern("GCIA", `^GCIA\d{4}$`, "Ganancias"),
		terminalPattern("GANP", `^GANP\d{4}[A-Z]\d$`, "Promedio ganancias"),
		terminalPattern("MESF", `^MESF\d{4}$`, "Mes fijos"),
		terminalPattern("MESTRA", `^MESTRA\d{2}$`, "Meses trabajados"),
		terminalPattern("MOT", `^MOT\d{6}$`, "Motivo ausencia"),
		terminalPattern("TMO", `^TMO\d{6}$`, "Tipo motivo"),
		terminalPattern("PARLIQ", `^PARLIQ\d{3}$`, "Parámetro liq."),
		terminalPattern("PBAEACUM", `^PBAEACUM\d$`, "% BAE acum."),
		terminalPattern("P572DED", `^P572DED\d{2}$`, "Deducción P572"),
		terminalPattern("RCALIG", `^RCALIG\d{4}$`, "Recálculo gan."),
		terminalPattern("CCTO", `^CCTO\d{4}$`, "Centro costo"),
		terminalPattern("PCONX", `^PCONX\d{4}\d$`, "Concepto comp. +"),
	)

	// Historic totals.
	r.terminals = append(r.terminals,
		terminalPattern("TAP", `^TAP\d{6}$`, "Total aportes"),
		terminalPattern("TCR", `^TCR\d{6}$`, "Total rem. c/aportes"),
		terminalPattern("TDE", `^TDE\d{6}$`, "Total descuentos"),
		terminalPattern("TRE", `^TRE\d{6}$`, "Total retenciones"),
		terminalPattern("TSF", `^TSF\d{6}$`, "Total sal. familiar"),
		terminalPattern("TSR", `^TSR\d{6}$`, "Total rem. s/aportes"),
		terminalPattern("TTAP", `^TTAP\d{4}$`, "Total aportes patr."),
		terminalPattern("TTCR", `^TTCR\d{4}$`, "Total rem. c/desc."),
		terminalPattern("TTDE", `^TTDE\d{4}$`, "Total deducciones"),
		terminalPattern("TTRE", `^TTRE\d{4}$`, "Total retenciones"),
		terminalPattern("TTSF", `^TTSF\d{4}$`, "Total sal. fam."),
		terminalPattern("TTSR", `^TTSR\d{4}$`, "Total rem. s/desc."),
	)

	// Ranged totals.
	r.terminals = append(r.terminals,
		terminalPattern("ZAP", `^ZAP\d{8}$`, "Rango aportes"),
		terminalPattern("ZCR", `^ZCR\d{8}$`, "Rango rem. c/ret."),
		terminalPattern("ZDE", `^ZDE\d{8}$`, "Rango deducciones"),
		terminalPattern("ZRE", `^ZRE\d{8}$`, "Rango retenciones"),
		terminalPattern("ZSF", `^ZSF\d{8}$`, "Rango sal. fam."),
		terminalPattern("ZSR", `^ZSR\d{8}$`, "Rango rem. s/ret."),
	)

	// Top salaries.
	r.terminals = append(r.terminals,
		terminalPattern("SUEMAANO", `^SUEMAANO\d[A-Z]$`, "Mayor sueldo año"),
		terminalPattern("SUEMASEI", `^SUEMASEI\d[A-Z]$`, "Mayor sueldo 6 meses"),
		terminalPattern("SUEMASEM", `^SUEMASEM\d[A-Z]$`, "Mayor sueldo sem."),
	)

	return r
}

func rangePattern(prefix, rule, display string) Pattern {
	return Pattern{Prefix: prefix, Rule: regexp.MustCompile(rule), Kind: KindRange, Display: display}
}

func singlePattern(prefix, rule, display string) Pattern {
	return Pattern{Prefix: prefix, Rule: regexp.MustCompile(rule), Kind: KindSingleConcept, Display: display}
}

func selfPattern(prefix, rule, display, self string) Pattern {
	return Pattern{Prefix: prefix, Rule: regexp.MustCompile(rule), Kind: KindSingleConcept, Display: display, SelfDisplay: self}
}

func terminalPattern(prefix, rule, display string) Pattern {
	return Pattern{Prefix: prefix, Rule: regexp.MustCompile(rule), Kind: KindTerminal, Display: display}
}
