package helpers

import (
	"fmt"
	"math"
	"strings"
)

// FormatMoney formats an amount with thousand separators and two decimals,
// prefixed by the currency code when known (e.g. "USD 1,234.50")
func FormatMoney(amount float64, currency string) string {
	negative := amount < 0
	cents := int64(math.Round(math.Abs(amount) * 100))
	whole, frac := cents/100, cents%100

	str := fmt.Sprintf("%d", whole)
	length := len(str)

	var b strings.Builder
	for i, digit := range str {
		if i > 0 && (length-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(digit)
	}
	result := fmt.Sprintf("%s.%02d", b.String(), frac)
	if negative {
		result = "-" + result
	}
	if currency == "" {
		return result
	}
	return currency + " " + result
}

// FormatLargeNumber renders values like market cap as 2.95T, 512.30B, 7.10M
func FormatLargeNumber(v float64) string {
	abs := math.Abs(v)
	switch {
	case abs >= 1e12:
		return fmt.Sprintf("%.2fT", v/1e12)
	case abs >= 1e9:
		return fmt.Sprintf("%.2fB", v/1e9)
	case abs >= 1e6:
		return fmt.Sprintf("%.2fM", v/1e6)
	default:
		return fmt.Sprintf("%.0f", v)
	}
}

// FormatPercent renders a percent value with an explicit sign, e.g. "+20.00%"
func FormatPercent(v float64) string {
	return fmt.Sprintf("%+.2f%%", v)
}
