package scraper

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var nonPriceChars = regexp.MustCompile(`[^\d.,]`)

// minorUnitThreshold is the point above which a parsed value is suspected
// of being expressed in cents rather than currency units. VTEX script
// state frequently carries prices both ways. Tunable heuristic, not an
// invariant; covered by tests.
var minorUnitThreshold = decimal.NewFromInt(10000)

// ParsePrice normalizes a raw price-bearing text fragment ("R$ 1.234,56",
// "39,60", "39.600") into a canonical decimal amount. It is total and
// deterministic: any input yields either a value or false, never a panic.
//
// Separator disambiguation: when both comma and dot appear, the one
// appearing last is the decimal separator and the other is a thousands
// group. A lone comma is always decimal. A lone dot depends on the digit
// count after it: two digits is a decimal; three digits after a short
// (≤3-digit) integer part is a mangled decimal, a known upstream
// rendering defect where a two-digit fraction gains an extra digit, so
// the fraction is truncated to two digits; three digits after a longer
// integer part is a thousands group and the dot is stripped.
func ParsePrice(text string) (decimal.Decimal, bool) {
	cleaned := nonPriceChars.ReplaceAllString(strings.TrimSpace(text), "")
	if cleaned == "" {
		return decimal.Decimal{}, false
	}

	hasComma := strings.Contains(cleaned, ",")
	hasDot := strings.Contains(cleaned, ".")

	switch {
	case hasComma && hasDot:
		if strings.LastIndex(cleaned, ",") > strings.LastIndex(cleaned, ".") {
			// Brazilian grouping: 1.234,56
			cleaned = strings.ReplaceAll(cleaned, ".", "")
			cleaned = strings.ReplaceAll(cleaned, ",", ".")
		} else {
			// US grouping: 1,234.56
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}

	case hasComma:
		cleaned = strings.ReplaceAll(cleaned, ",", ".")

	case hasDot:
		parts := strings.Split(cleaned, ".")
		if len(parts) == 2 && len(parts[1]) == 3 {
			if len(parts[0]) <= 3 {
				// Mangled decimal: 39.600 is 39.60 with a stray digit.
				cleaned = parts[0] + "." + parts[1][:2]
			} else {
				cleaned = parts[0] + parts[1]
			}
		}
	}

	value, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return value, true
}

// PriceRange is the window of plausible prices for one deployment,
// in local currency units.
type PriceRange struct {
	Min decimal.Decimal
	Max decimal.Decimal
}

// Plausible reports whether p falls strictly inside the range. Values on
// or outside the bounds are treated as unit prices, shipping fees, or
// parsing noise.
func (r PriceRange) Plausible(p decimal.Decimal) bool {
	return p.GreaterThan(r.Min) && p.LessThan(r.Max)
}

// CorrectMinorUnits undoes a cents-vs-currency confusion: when p is
// implausibly large and dividing by 100 lands inside the plausible
// range, the quotient is returned. Otherwise p comes back unchanged.
func (r PriceRange) CorrectMinorUnits(p decimal.Decimal) decimal.Decimal {
	if p.GreaterThan(minorUnitThreshold) {
		if q := p.Div(decimal.NewFromInt(100)); r.Plausible(q) {
			return q
		}
	}
	return p
}
