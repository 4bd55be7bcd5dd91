/*
parser.go - %TOKEN% formula scanner

PURPOSE:
  Extracts the variables embedded in payroll formulas. A variable
  appears as %NAME% where NAME is classified against the pattern table
  in registry.go. Parsing never fails: a name no entry recognizes
  becomes a terminal variable that displays itself.

OUTPUT:
  ParsedVariable carries everything the API layer serializes: the
  classified kind, the referenced concept or range bounds, the rendered
  display text, the derived color, and the byte span of the %NAME%
  occurrence inside the formula.

SEE ALSO:
  - registry.go: the pattern table
  - colors/colors.go: color derivation
*/
package formula

import (
	"regexp"
	"strings"

	"github.com/upcn/formu/colors"
)

// tokenRule finds %NAME% occurrences. Names are uppercase alphanumeric.
var tokenRule = regexp.MustCompile(`%([A-Z0-9]+)%`)

// ParsedVariable is one classified %NAME% occurrence.
type ParsedVariable struct {
	Name               string
	Prefix             string
	Kind               Kind
	ReferencedConcept  string // single-concept kinds only; may be the 0000 self reference
	RangeStart         string // range kinds only
	RangeEnd           string
	DisplayText        string
	PatternDescription string
	Color              string
	SpanStart          int // byte offset of the opening %
	SpanEnd            int // byte offset just past the closing %
}

// Parser scans formulas against a registry. It is stateless and safe for
// concurrent use.
type Parser struct {
	registry *Registry
}

// NewParser returns a parser backed by the given pattern table.
func NewParser(registry *Registry) *Parser {
	return &Parser{registry: registry}
}

// Parse extracts every %NAME% variable in scan order. Matches never
// overlap and every occurrence yields exactly one variable. Blank input
// yields an empty slice.
func (p *Parser) Parse(formula string) []ParsedVariable {
	if strings.TrimSpace(formula) == "" {
		return []ParsedVariable{}
	}

	matches := tokenRule.FindAllStringSubmatchIndex(formula, -1)
	vars := make([]ParsedVariable, 0, len(matches))
	for _, m := range matches {
		v := p.ParseToken(formula[m[2]:m[3]])
		v.SpanStart = m[0]
		v.SpanEnd = m[1]
		vars = append(vars, v)
	}
	return vars
}

// ParseToken classifies a single variable name, given without the
// surrounding % markers. Span offsets are left zero.
func (p *Parser) ParseToken(name string) ParsedVariable {
	entry, groups, ok := p.registry.Lookup(name)
	if !ok {
		// Unrecognized names degrade to a terminal that displays itself.
		return ParsedVariable{
			Name:               name,
			Prefix:             name,
			Kind:               KindTerminal,
			DisplayText:        name,
			PatternDescription: "unrecognized",
			Color:              colors.Background(name),
		}
	}

	v := ParsedVariable{
		Name:               name,
		Prefix:             entry.Prefix,
		Kind:               entry.Kind,
		PatternDescription: p.registry.Description(entry.Prefix),
	}

	switch entry.Kind {
	case KindRange:
		v.RangeStart = groups[1]
		v.RangeEnd = groups[2]
		v.DisplayText = strings.NewReplacer(
			"{nnnn}", v.RangeStart,
			"{xxxx}", v.RangeEnd,
		).Replace(entry.Display)
		v.Color = colors.Background(name)

	case KindSingleConcept:
		concept := groups[1]
		v.ReferencedConcept = concept

		display := entry.Display
		if concept == SelfReference && entry.SelfDisplay != "" {
			display = entry.SelfDisplay
		} else {
			display = strings.ReplaceAll(display, "{nnnn}", concept)
		}
		switch entry.Prefix {
		case "CC", "CI":
			display = strings.ReplaceAll(display, "{mm}", groups[2])
			display = strings.ReplaceAll(display, "{l}", groups[4])
		case "CALU", "CALX":
			display = strings.ReplaceAll(display, "{l}", groups[2])
		}
		v.DisplayText = display
		v.Color = colors.Background(concept)

	default:
		v.DisplayText = entry.Display
		v.Color = colors.Background(name)
	}

	return v
}

// ForwardRefs returns the set of concept codes a formula depends on.
// Only single-concept variables count, and the 0000 self reference is
// never a dependency. Range variables are reported by Ranges instead.
func (p *Parser) ForwardRefs(formula string) map[string]struct{} {
	refs := make(map[string]struct{})
	for _, v := range p.Parse(formula) {
		if v.Kind == KindSingleConcept && v.ReferencedConcept != "" && v.ReferencedConcept != SelfReference {
			refs[v.ReferencedConcept] = struct{}{}
		}
	}
	return refs
}

// Ranges returns every concept range a formula references, in scan order
// with duplicates preserved.
func (p *Parser) Ranges(formula string) [][2]string {
	var ranges [][2]string
	for _, v := range p.Parse(formula) {
		if v.Kind == KindRange {
			ranges = append(ranges, [2]string{v.RangeStart, v.RangeEnd})
		}
	}
	return ranges
}
