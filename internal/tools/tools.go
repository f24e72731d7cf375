package tools

import "github.com/shopspring/decimal"

// RoundCents rounds a dollar amount to whole cents through decimal
// arithmetic, avoiding float drift like 500.00000000000006.
func RoundCents(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// Notional returns quantity × price rounded to cents.
func Notional(quantity, price float64) float64 {
	q := decimal.NewFromFloat(quantity)
	p := decimal.NewFromFloat(price)
	return q.Mul(p).Round(2).InexactFloat64()
}

// Fee returns gross × rate without rounding. Regulatory fees are tiny
// fractions of a cent and are kept exact until they are settled.
func Fee(gross, rate float64) float64 {
	g := decimal.NewFromFloat(gross)
	r := decimal.NewFromFloat(rate)
	f, _ := g.Mul(r).Float64()
	return f
}
