package transform

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount splits a currency string like "1.234 HBD" into its
// numeric value and symbol. An empty string parses as zero with no
// symbol.
func ParseAmount(s string) (decimal.Decimal, string, error) {
	fields := strings.Fields(strings.TrimSpace(s))
	if len(fields) == 0 {
		return decimal.Zero, "", nil
	}
	if len(fields) != 2 {
		return decimal.Zero, "", fmt.Errorf("malformed amount %q", s)
	}
	value, err := decimal.NewFromString(fields[0])
	if err != nil {
		return decimal.Zero, "", fmt.Errorf("malformed amount %q: %w", s, err)
	}
	return value, fields[1], nil
}

// FormatAmount renders a value at the chain's fixed 3-decimal
// precision with a symbol suffix, e.g. "1.234 HBD"
func FormatAmount(value decimal.Decimal, symbol string) string {
	return value.StringFixed(3) + " " + symbol
}
