/*
Package colors derives stable HSL colors from concept codes.

PURPOSE:
  The concept explorer UI colors every node of the dependency graph.
  Colors must be stable across processes and restarts so that the same
  concept always renders with the same color, without storing palette
  state anywhere. A short hash of the code (or variable name) is folded
  into a pastel background color and a darker border color.

KEY PROPERTIES:
  - Deterministic: same input always yields the same pair
  - No persistence: derived on the fly wherever needed
  - Readable: backgrounds stay light (80-89% lightness), borders darker

SEE ALSO:
  - formula/parser.go: colors each parsed variable
  - api/dto.go: colors concept summaries and range listings
*/
package colors

import (
	"fmt"
	"strings"
)

// Neutral pair used for blank input, matching the UI's "empty" styling.
const (
	neutralBackground = "hsl(0, 0%, 90%)"
	neutralBorder     = "hsl(0, 0%, 60%)"
)

// Pair holds the two colors the UI needs for one graph node.
type Pair struct {
	Background string
	Border     string
}

// Derive returns the background and border colors for the given input.
func Derive(input string) Pair {
	return Pair{Background: Background(input), Border: Border(input)}
}

// Background returns a light HSL color for the given input. Blank input
// yields a neutral gray.
func Background(input string) string {
	if strings.TrimSpace(input) == "" {
		return neutralBackground
	}
	h := abs(hash(input))
	hue := h % 360
	saturation := 65 + (h/360)%20
	lightness := 80 + (h/7200)%10
	return fmt.Sprintf("hsl(%d, %d%%, %d%%)", hue, saturation, lightness)
}

// Border returns a darker HSL color sharing the hue of Background for
// the same input. Blank input yields a neutral gray.
func Border(input string) string {
	if strings.TrimSpace(input) == "" {
		return neutralBorder
	}
	h := abs(hash(input))
	hue := h % 360
	saturation := 50 + (h/360)%20
	lightness := 40 + (h/7200)%15
	return fmt.Sprintf("hsl(%d, %d%%, %d%%)", hue, saturation, lightness)
}

// hash folds the input into 32 bits. The multiply/xor finisher spreads
// the short, similar-looking concept codes (0100, 0101, ...) across the
// hue circle; a plain polynomial hash would cluster them.
func hash(input string) int32 {
	var h int32
	for _, r := range input {
		h = 31*h + int32(r)
	}
	h ^= int32(uint32(h) >> 16)
	h *= -2048144789
	h ^= int32(uint32(h) >> 13)
	h *= -1028477387
	h ^= int32(uint32(h) >> 16)
	return h
}

func abs(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
