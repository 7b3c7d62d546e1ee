// Package render formats allocation plans as markdown tables
package render

import (
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Money formats amount in currency using the currency's symbol and minor units.
// Unknown currency codes fall back to the amount with two decimals and the raw code.
func Money(amount decimal.Decimal, currency string) string {
	code := strings.ToUpper(currency)
	cur := money.GetCurrency(code)
	if cur == nil {
		return amount.StringFixed(2) + " " + currency
	}

	minor := amount.Round(int32(cur.Fraction)).Shift(int32(cur.Fraction))
	return money.New(minor.IntPart(), code).Display()
}
