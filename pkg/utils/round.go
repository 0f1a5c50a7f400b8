package utils

import "github.com/shopspring/decimal"

// Round rounds v half away from zero to the given number of decimal places.
// The decimal conversion avoids float artifacts like 0.285 -> 0.28
func Round(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}
