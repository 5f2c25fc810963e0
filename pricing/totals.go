// Package pricing derives the tax breakdown of a sale. Prices are tax-inclusive:
// the tax is backed out of the total rather than added on top.
package pricing

import "github.com/shopspring/decimal"

// TaxRate is the sales tax contained in every price (IGV, 18%).
var TaxRate = decimal.RequireFromString("0.18")

// Totaler is anything with a grand total, such as a cart.
type Totaler interface {
	Total() decimal.Decimal
}

// Totals is the breakdown of a tax-inclusive grand total. Tax + Net == Grand.
type Totals struct {
	Grand decimal.Decimal
	Tax   decimal.Decimal
	Net   decimal.Decimal
}

// For computes the breakdown of t's current total.
func For(t Totaler) Totals {
	return Breakdown(t.Total())
}

// Breakdown splits grand into net amount and tax.
func Breakdown(grand decimal.Decimal) Totals {
	net := grand.Div(decimal.NewFromInt(1).Add(TaxRate))
	return Totals{
		Grand: grand,
		Tax:   grand.Sub(net),
		Net:   net,
	}
}

// Rounded returns the breakdown at two decimals. Net is rounded and tax takes
// the remainder so the parts still add up to the rounded grand total.
func (t Totals) Rounded() Totals {
	grand := t.Grand.Round(2)
	net := t.Net.Round(2)
	return Totals{
		Grand: grand,
		Tax:   grand.Sub(net),
		Net:   net,
	}
}
