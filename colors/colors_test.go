package colors_test

import (
	"regexp"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upcn/formu/colors"
)

var hslRE = regexp.MustCompile(`^hsl\((\d+), (\d+)%, (\d+)%\)$`)

func parseHSL(t *testing.T, s string) (hue, saturation, lightness int) {
	t.Helper()
	m := hslRE.FindStringSubmatch(s)
	require.NotNil(t, m, "not an hsl() triple: %q", s)
	hue, _ = strconv.Atoi(m[1])
	saturation, _ = strconv.Atoi(m[2])
	lightness, _ = strconv.Atoi(m[3])
	return hue, saturation, lightness
}

func TestDerive_Deterministic(t *testing.T) {
	// GIVEN: A concept code
	// WHEN: Deriving its colors repeatedly
	// THEN: Every call returns the same pair

	first := colors.Derive("0100")
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, colors.Derive("0100"))
	}
}

func TestDerive_BlankInput_NeutralGray(t *testing.T) {
	// GIVEN: Empty or whitespace-only input
	// WHEN: Deriving colors
	// THEN: The neutral gray pair is returned

	for _, input := range []string{"", "   ", "\t"} {
		pair := colors.Derive(input)
		assert.Equal(t, "hsl(0, 0%, 90%)", pair.Background, "input %q", input)
		assert.Equal(t, "hsl(0, 0%, 60%)", pair.Border, "input %q", input)
	}
}

func TestBackgroundAndBorder_ShareHue(t *testing.T) {
	// GIVEN: Any non-blank input
	// WHEN: Deriving both colors
	// THEN: Background and border sit on the same hue

	for _, input := range []string{"0100", "8999", "SC01000200", "BASICO", "IMPO0450"} {
		bgHue, _, _ := parseHSL(t, colors.Background(input))
		borderHue, _, _ := parseHSL(t, colors.Border(input))
		assert.Equal(t, bgHue, borderHue, "hue mismatch for %q", input)
	}
}

func TestBackground_StaysLight(t *testing.T) {
	// Backgrounds must stay pastel so black node labels remain readable.

	for _, input := range []string{"0001", "0100", "4050", "8999", "ANTIG", "SUELDO"} {
		hue, saturation, lightness := parseHSL(t, colors.Background(input))
		assert.Less(t, hue, 360, "input %q", input)
		assert.GreaterOrEqual(t, saturation, 65, "input %q", input)
		assert.Less(t, saturation, 85, "input %q", input)
		assert.GreaterOrEqual(t, lightness, 80, "input %q", input)
		assert.Less(t, lightness, 90, "input %q", input)
	}
}

func TestBorder_StaysDarkerThanBackground(t *testing.T) {
	for _, input := range []string{"0001", "0100", "4050", "8999", "ANTIG", "SUELDO"} {
		_, saturation, lightness := parseHSL(t, colors.Border(input))
		assert.GreaterOrEqual(t, saturation, 50, "input %q", input)
		assert.Less(t, saturation, 70, "input %q", input)
		assert.GreaterOrEqual(t, lightness, 40, "input %q", input)
		assert.Less(t, lightness, 55, "input %q", input)

		_, _, bgLightness := parseHSL(t, colors.Background(input))
		assert.Less(t, lightness, bgLightness, "border should be darker for %q", input)
	}
}
