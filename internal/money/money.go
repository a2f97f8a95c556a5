// Package money renders decimal amounts at the presentation edge.
// Arithmetic stays in decimal.Decimal everywhere else.
package money

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// DefaultCurrency is used when a quote did not report one.
const DefaultCurrency = "USD"

// Fixed is the wire form of an amount: rounded half away from zero to 2 places.
func Fixed(d decimal.Decimal) string { return d.StringFixed(2) }

// Format renders d with the currency's symbol, separators and fraction digits,
// e.g. "$1,234.50". Unknown codes fall back to a plain two-digit amount.
func Format(d decimal.Decimal, currency string) string {
	if currency == "" {
		currency = DefaultCurrency
	}
	if money.GetCurrency(currency) == nil {
		return Fixed(d) + " " + currency
	}
	// money.New never returns a nil currency, GetCurrency may
	cur := money.New(0, currency).Currency()
	minor := d.Round(int32(cur.Fraction)).Shift(int32(cur.Fraction))
	return cur.Formatter().Format(minor.IntPart())
}

// Signed is Format with an explicit "+" on positive amounts.
func Signed(d decimal.Decimal, currency string) string {
	if d.IsPositive() {
		return "+" + Format(d, currency)
	}
	return Format(d, currency)
}
