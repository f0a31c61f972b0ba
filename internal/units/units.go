// Package units converts raw Strava units (meters, seconds, kilocalories)
// into the imperial values shown in reports.
//
// Every total is computed by summing raw units first and converting once;
// rounding per activity and then summing drifts from the aggregate.
package units

import "math"

const (
	// MetersToMiles converts meters to statute miles
	MetersToMiles = 0.000621371
	// MetersToFeet converts meters to feet
	MetersToFeet = 3.28084
	// SecondsToHours converts seconds to hours
	SecondsToHours = 1.0 / 3600.0
)

// Round rounds v to the given number of decimal places, half away from zero.
func Round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}

// Miles converts meters to miles rounded to one decimal.
func Miles(meters float64) float64 {
	return Round(meters*MetersToMiles, 1)
}

// Feet converts meters to feet rounded to the nearest foot.
func Feet(meters float64) int64 {
	return int64(math.Round(meters * MetersToFeet))
}

// Hours converts seconds to hours rounded to one decimal (summary precision).
func Hours(seconds int64) float64 {
	return Round(float64(seconds)*SecondsToHours, 1)
}

// ActivityHours converts seconds to hours rounded to two decimals
// (per-activity precision).
func ActivityHours(seconds int64) float64 {
	return Round(float64(seconds)*SecondsToHours, 2)
}

// Calories rounds kilocalories to the nearest integer.
func Calories(kcal float64) int64 {
	return int64(math.Round(kcal))
}
