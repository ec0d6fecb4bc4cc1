// Package snapshot implements the Snapshot Store (spec.md C1): an
// immutable record of a driver's GPS fix plus its resolved address,
// timezone, and optional weather context.
package snapshot

import (
	"fmt"
	"time"

	"github.com/ridewave/triad/internal/coordkey"
)

// Weather is an optional, best-effort enrichment of a Snapshot.
type Weather struct {
	ConditionCode string  `json:"condition_code"`
	TemperatureC  float64 `json:"temperature_c"`
	Description   string  `json:"description"`
}

// Snapshot is the immutable GPS+context record described in spec.md §3.
type Snapshot struct {
	SnapshotID string    `json:"snapshot_id"`
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	CapturedAt time.Time `json:"captured_at"`

	// Resolved at write time, synchronously (address/timezone) or
	// best-effort (weather).
	Timezone string   `json:"timezone"`
	City     string   `json:"city"`
	Region   string   `json:"region"`
	Country  string   `json:"country"` // ISO 3166-1 alpha-2, at rest
	Weather  *Weather `json:"weather,omitempty"`

	DeviceID string            `json:"device_id,omitempty"`
	Context  map[string]string `json:"context,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// CoordKey returns the canonical six-decimal "lat_lng" cache key for this
// Snapshot's coordinates (spec.md §9, "Duplicate coordinate-key helpers").
func (s *Snapshot) CoordKey() string {
	return coordkey.Of(s.Lat, s.Lng)
}

// Validate enforces the coordinate bounds from spec.md §4.1: lat in
// [-90,90], lng in [-180,180]. Precision is neither checked nor altered.
func Validate(lat, lng float64) error {
	if lat < -90 || lat > 90 {
		return fmt.Errorf("latitude %f out of range [-90,90]", lat)
	}
	if lng < -180 || lng > 180 {
		return fmt.Errorf("longitude %f out of range [-180,180]", lng)
	}
	return nil
}

// CountryDisplayName derives a human-readable country name from the
// ISO 3166-1 alpha-2 code stored at rest (spec.md §9, "Country field
// inconsistency": codes at rest, names derived at read time).
func CountryDisplayName(iso2 string) string {
	if name, ok := countryNames[iso2]; ok {
		return name
	}
	return iso2
}

// countryNames is a small, deliberately partial lookup table: it covers
// the countries exercised by this module's test scenarios (spec.md §8)
// plus a handful of common ones. Unknown codes fall back to the code
// itself rather than failing the read.
var countryNames = map[string]string{
	"US": "United States",
	"GB": "United Kingdom",
	"FR": "France",
	"CA": "Canada",
	"MX": "Mexico",
	"DE": "Germany",
	"ES": "Spain",
	"IT": "Italy",
	"AU": "Australia",
	"JP": "Japan",
}
