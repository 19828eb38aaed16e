// Package format renders money and dates the way the Portuguese
// locale expects, for both the terminal views and the CSV export.
package format

import (
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var printer = message.NewPrinter(language.EuropeanPortuguese)

// Money renders a value as "1 234,56 €".
func Money(v decimal.Decimal) string {
	f, _ := v.Float64()
	return printer.Sprintf("%v €", number.Decimal(f, number.MinFractionDigits(2), number.MaxFractionDigits(2)))
}

// Amount renders a bare value with two decimals and a comma separator,
// "1234,56", the form used in CSV cells.
func Amount(v decimal.Decimal) string {
	s := v.StringFixed(2)

	out := []rune(s)
	for i, r := range out {
		if r == '.' {
			out[i] = ','
		}
	}

	return string(out)
}

// Date renders a calendar date as "02/01/2006".
func Date(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	return t.Format("02/01/2006")
}

// DateTime renders an instant as "02/01/2006 15:04".
func DateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	return t.Format("02/01/2006 15:04")
}
