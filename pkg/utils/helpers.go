package utils

import (
	"fmt"
	"math"
)

// Clamp limits a value between min and max
func Clamp(value, min, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// RoundTo rounds a float to specified decimal places
func RoundTo(value float64, places int) float64 {
	factor := math.Pow(10, float64(places))
	return math.Round(value*factor) / factor
}

// FormatPrice renders a price as "$23.45 MXN"
func FormatPrice(value float64, currency string) string {
	return fmt.Sprintf("$%.2f %s", RoundTo(value, 2), currency)
}
