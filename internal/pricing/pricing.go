// Package pricing is the single place order totals are computed.
package pricing

import "github.com/shopspring/decimal"

// Line is anything with a quantity and a per-unit price after discount.
type Line interface {
	LineQuantity() int
	LineUnitPrice() float64
}

// ComputeOrderTotal returns Σ quantity × priceAfterDiscount.
// Summation is exact, so the result does not depend on item order.
func ComputeOrderTotal[L Line](lines []L) float64 {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(decimal.NewFromFloat(l.LineUnitPrice()).Mul(decimal.NewFromInt(int64(l.LineQuantity()))))
	}
	return total.InexactFloat64()
}

// Subtotal returns Σ quantity × listPrice, used to show the savings line.
func Subtotal[L interface {
	Line
	LineListPrice() float64
}](lines []L) float64 {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(decimal.NewFromFloat(l.LineListPrice()).Mul(decimal.NewFromInt(int64(l.LineQuantity()))))
	}
	return total.InexactFloat64()
}

// DiscountPercent is the rounded percentage between list and final price.
func DiscountPercent(price, final float64) int {
	if price <= 0 || final >= price {
		return 0
	}
	p := decimal.NewFromFloat(price)
	off := p.Sub(decimal.NewFromFloat(final)).Div(p).Mul(decimal.NewFromInt(100))
	return int(off.Round(0).IntPart())
}
