package polymarketlike

import (
	"math"
	"math/big"
	"strconv"
)

func bigFromInt64(v int64) *big.Int {
	return big.NewInt(v)
}

// roundingConfig returns the (size, amount) decimal precision for a given
// tick size, matching the venue's published rounding table.
func roundingConfig(tickSize float64) (sizePrecision, amountPrecision int) {
	switch tickSize {
	case 0.1:
		return 2, 3
	case 0.01:
		return 2, 4
	case 0.001:
		return 2, 5
	case 0.0001:
		return 2, 6
	default:
		return 2, 4
	}
}

func roundAmount(value float64, decimals int) float64 {
	mult := math.Pow(10, float64(decimals))

	return math.Round(value*mult) / mult
}

func usdToRawAmount(usd float64) string {
	raw := int64(usd * 1_000_000)

	return strconv.FormatInt(raw, 10)
}
