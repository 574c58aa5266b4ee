package util

import (
	"github.com/shopspring/decimal"
)

func MinDecimal(val0 decimal.Decimal, vals ...decimal.Decimal) decimal.Decimal {
	min := val0
	for _, v := range vals {
		if v.LessThan(min) {
			min = v
		}
	}
	return min
}

// OppositeSign reports whether one of x and y is positive and the other
// negative.
func OppositeSign(x, y decimal.Decimal) bool {
	return x.Sign()*y.Sign() < 0
}

// Prorate returns total * part / whole, or zero when whole is zero.
func Prorate(total, part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	if part.Equal(whole) {
		return total
	}
	return total.Mul(part).Div(whole)
}
