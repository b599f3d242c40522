// Package money holds rounding helpers for decimal currency amounts.
package money

import "math"

const minorUnitsPerMajor = 100

// Round2 rounds an amount to two decimal places, half away from zero.
func Round2(amount float64) float64 {
	return math.Round(amount*minorUnitsPerMajor) / minorUnitsPerMajor
}

// ToMinorUnits converts an amount to the smallest currency unit (paise, cents).
func ToMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * minorUnitsPerMajor))
}

// FromMinorUnits converts the smallest currency unit back to a decimal amount.
func FromMinorUnits(minor int64) float64 {
	return float64(minor) / minorUnitsPerMajor
}

// Equal compares two amounts at two-decimal precision.
func Equal(a, b float64) bool {
	return ToMinorUnits(a) == ToMinorUnits(b)
}
