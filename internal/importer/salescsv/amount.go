package salescsv

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/tally/internal/sale"
)

// parseAmount parses a number written with the given decimal separator.
// The other separator is treated as a thousands separator.
// Examples with ',': "1.234,56" -> 1234.56, "10,5" -> 10.5.
// Examples with '.': "1,234.56" -> 1234.56, "150" -> 150.
func parseAmount(s string, decimalSep byte) (decimal.Decimal, error) {
	thousands := ","
	if decimalSep == ',' {
		thousands = "."
	}

	clean := strings.ReplaceAll(strings.TrimSpace(s), thousands, "")
	clean = strings.ReplaceAll(clean, " ", "")

	if decimalSep == ',' {
		clean = strings.ReplaceAll(clean, ",", ".")
	}

	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, err
	}

	if !sale.InRange(d) {
		return decimal.Zero, fmt.Errorf("%q is out of range", s)
	}

	return d, nil
}
