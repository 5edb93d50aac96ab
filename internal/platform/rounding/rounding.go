package rounding

import (
	"math"
	"math/big"

	"github.com/shopspring/decimal"
)

// exactDigits covers the full decimal expansion of any float64.
const exactDigits = 1074

// HalfEven rounds the exact binary value of v to places decimals. Exact ties
// go to the even digit, so 2.25 becomes 2.2 while 1.005 (stored just below
// the tie) becomes 1.0. NaN and infinities are returned unchanged.
func HalfEven(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	exact, err := decimal.NewFromString(new(big.Float).SetFloat64(v).Text('f', exactDigits))
	if err != nil {
		return v
	}
	return exact.RoundBank(places).InexactFloat64()
}
