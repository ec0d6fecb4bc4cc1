// Package coordkey provides the single canonical coordinate-key helper.
//
// The source system this was distilled from defined four different
// functions for the same six-decimal "lat_lng" cache key (spec.md §9,
// Design Notes: "Duplicate coordinate-key helpers"). This package exists
// so every cache and lookup in the module shares one implementation.
package coordkey

import "fmt"

// Precision is the fixed decimal precision (~11cm) used at rest and in
// cache keys throughout the module.
const Precision = 6

// Of formats a coordinate pair into the canonical "lat_lng" cache key.
func Of(lat, lng float64) string {
	return fmt.Sprintf("%.6f_%.6f", lat, lng)
}

// Round rounds a coordinate to the fixed six-decimal precision, with
// halves rounded away from zero.
func Round(v float64) float64 {
	scaled := v * 1e6
	if scaled >= 0 {
		scaled += 0.5
	} else {
		scaled -= 0.5
	}
	return float64(int64(scaled)) / 1e6
}
