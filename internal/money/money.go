// Package money normalizes amount strings from heterogeneous bank exports
// into kuruş (cents).
package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount parses an amount string into kuruş. All characters except
// digits, comma, dot, and minus are stripped first, so currency symbols and
// grouping survive sloppy exports. When a decimal comma is present, dots are
// treated as thousands separators: "1.234,56 TL" -> 123456, "-588,74" ->
// -58874, "12.34" -> 1234.
func ParseAmount(s string) (int64, error) {
	var b strings.Builder

	for _, r := range s {
		if (r >= '0' && r <= '9') || r == ',' || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}

	clean := b.String()
	if clean == "" {
		return 0, fmt.Errorf("no numeric content in %q", s)
	}

	if strings.Contains(clean, ",") {
		clean = strings.ReplaceAll(clean, ".", "")
		clean = strings.ReplaceAll(clean, ",", ".")
	}

	d, err := decimal.NewFromString(clean)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}

	return d.Mul(decimal.NewFromInt(100)).Round(0).IntPart(), nil
}

// Format renders kuruş as a decimal string with two fraction digits.
func Format(cents int64) string {
	return decimal.NewFromInt(cents).Div(decimal.NewFromInt(100)).StringFixed(2)
}
