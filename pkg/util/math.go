package util

import (
	"math"
	"sort"
)

// RoundTo rounds v to the given number of decimal places.
func RoundTo(v float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(v*p) / p
}

// Clamp limits v to the [lo, hi] range.
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// TrimmedMean averages vals after dropping the top and bottom fraction.
// With three or fewer samples it falls back to a plain mean. The input
// slice is not modified.
func TrimmedMean(vals []float64, fraction float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)

	drop := 0
	if n := len(sorted); n > 3 {
		drop = int(float64(n) * fraction)
		if drop < 1 {
			drop = 1
		}
		if n <= 2*drop {
			drop = 0
		}
	}
	kept := sorted[drop : len(sorted)-drop]

	var sum float64
	for _, v := range kept {
		sum += v
	}
	return sum / float64(len(kept))
}
