package recipe

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var amountRe = regexp.MustCompile(`^([\d\s/.\-]+)(.*)`)

// commonFractions are tried in order when formatting a scaled amount.
var commonFractions = []struct {
	value float64
	text  string
}{
	{0.25, "1/4"},
	{0.33, "1/3"},
	{0.5, "1/2"},
	{0.66, "2/3"},
	{0.75, "3/4"},
}

const fractionTolerance = 0.05

// ScaleIngredient multiplies the leading amount of an ingredient line. Integers,
// decimals, fractions ("1/2"), mixed numbers ("1 1/2") and ranges ("1-2") are
// understood; lines without a leading amount and section headers are returned as is.
func ScaleIngredient(ingredient string, multiplier float64) string {
	if multiplier == 1 || IsSection(ingredient) {
		return ingredient
	}
	m := amountRe.FindStringSubmatch(ingredient)
	if m == nil {
		return ingredient
	}
	amount, rest := m[1], m[2]
	tail := ingredient[len(m[0]):]

	if strings.Contains(amount, "-") && !strings.Contains(amount, "/") {
		parts := strings.Split(amount, "-")
		scaled := make([]string, 0, len(parts))
		for _, p := range parts {
			v, ok := parseAmount(p)
			if !ok {
				scaled = nil
				break
			}
			scaled = append(scaled, FormatAmount(v*multiplier))
		}
		if scaled != nil {
			return strings.Join(scaled, "-") + spaced(rest) + tail
		}
	}

	v, ok := parseAmount(amount)
	if !ok {
		return ingredient
	}
	return FormatAmount(v*multiplier) + spaced(rest) + tail
}

// ScaleIngredients applies ScaleIngredient to every line.
func ScaleIngredients(ingredients []string, multiplier float64) []string {
	out := make([]string, len(ingredients))
	for i, line := range ingredients {
		out[i] = ScaleIngredient(line, multiplier)
	}
	return out
}

// spaced puts back the separator the amount pattern swallowed before a unit word.
func spaced(rest string) string {
	if rest == "" || strings.HasPrefix(rest, " ") {
		return rest
	}
	c := rest[0]
	if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
		return " " + rest
	}
	return rest
}

func parseAmount(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if fields := strings.Fields(s); len(fields) == 2 {
		whole, ok1 := parseAmount(fields[0])
		frac, ok2 := parseAmount(fields[1])
		return whole + frac, ok1 && ok2
	}
	if num, den, found := strings.Cut(s, "/"); found {
		n, err1 := strconv.ParseFloat(strings.TrimSpace(num), 64)
		d, err2 := strconv.ParseFloat(strings.TrimSpace(den), 64)
		if err1 != nil || err2 != nil || d == 0 {
			return 0, false
		}
		return n / d, true
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// FormatAmount renders a quantity, preferring common kitchen fractions.
func FormatAmount(v float64) string {
	if v == math.Trunc(v) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	whole := math.Floor(v)
	decimal := v - whole
	for _, f := range commonFractions {
		if math.Abs(decimal-f.value) < fractionTolerance {
			if whole > 0 {
				return strconv.FormatFloat(whole, 'f', -1, 64) + " " + f.text
			}
			return f.text
		}
	}
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}
