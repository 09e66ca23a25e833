// Package num holds the rounding rules shared by the pricing and
// accounting code.
package num

import (
	"math"

	"github.com/shopspring/decimal"
)

// CashPlaces is the number of decimals kept for every cash amount.
const CashPlaces = 2

// Round rounds x half away from zero to the given number of decimal places.
// NaN and infinities are returned unchanged.
func Round(x float64, places int) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	f, _ := decimal.NewFromFloat(x).Round(int32(places)).Float64()
	return f
}

// Cash rounds x to CashPlaces.
func Cash(x float64) float64 {
	return Round(x, CashPlaces)
}

// Sum adds xs in decimal arithmetic and rounds the result to places, so a
// sum of rounded cash amounts stays exact.
func Sum(places int, xs ...float64) float64 {
	total := decimal.Zero
	for _, x := range xs {
		total = total.Add(decimal.NewFromFloat(x))
	}
	f, _ := total.Round(int32(places)).Float64()
	return f
}
