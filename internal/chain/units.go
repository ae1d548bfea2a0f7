package chain

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// ToDisplay converts a smallest-unit amount to display units.
func ToDisplay(amount int64, decimals int32) decimal.Decimal {
	return decimal.New(amount, -decimals)
}

// DisplayFloat is ToDisplay as a JSON-friendly float.
func DisplayFloat(amount int64, decimals int32) float64 {
	return ToDisplay(amount, decimals).InexactFloat64()
}

// FromDisplay converts display units to the smallest unit, rounding half away from zero.
func FromDisplay(amount decimal.Decimal, decimals int32) (int64, error) {
	scaled := amount.Shift(decimals).Round(0)
	if scaled.GreaterThan(decimal.NewFromInt(math.MaxInt64)) || scaled.LessThan(decimal.NewFromInt(math.MinInt64)) {
		return 0, fmt.Errorf("amount %s out of range", amount)
	}
	return scaled.IntPart(), nil
}
