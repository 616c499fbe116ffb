// Package currency renders settlement prices for display, e.g. "TWD 10,500".
package currency

import (
	"math"
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var printer = message.NewPrinter(language.English)

// Format groups thousands with commas and shows as many decimals as the
// currency uses for cash: none for TWD and JPY, two for USD.
func Format(amount float64, code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	scale := Scale(code)

	factor := math.Pow10(scale)
	rounded := math.Round(amount*factor) / factor

	negative := rounded < 0
	if negative {
		rounded = -rounded
	}

	result := code + " " + printer.Sprint(number.Decimal(rounded, number.Scale(scale)))
	if negative {
		result = "-" + result
	}

	return result
}

// Scale is the number of cash decimals for an ISO 4217 code, 0 if unknown.
func Scale(code string) int {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return 0
	}
	scale, _ := currency.Cash.Rounding(unit)
	return scale
}
