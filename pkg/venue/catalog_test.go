package venue

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHaversineKm_SamePointIsZero(t *testing.T) {
	assert.InDelta(t, 0.0, HaversineKm(40.7128, -74.0060, 40.7128, -74.0060), 1e-9)
}

func TestHaversineKm_KnownDistance(t *testing.T) {
	// New York to Los Angeles, roughly 3940km.
	d := HaversineKm(40.7128, -74.0060, 34.0522, -118.2437)
	assert.InDelta(t, 3940, d, 50)
}

func TestHaversineKm_AntipodalCrossContinental(t *testing.T) {
	// Equator/prime-meridian point to its antipode should be ~half the
	// earth's circumference (~20015km).
	d := HaversineKm(0, 0, 0, 180)
	assert.InDelta(t, 20015, d, 5)
}

func TestWithinProximity_ExcludesBeyondCap(t *testing.T) {
	cat := &Catalog{Venues: []Venue{
		{Name: "close", Lat: 40.7128, Lng: -74.0060},
		{Name: "far", Lat: 34.0522, Lng: -118.2437},
	}}

	nearby := cat.WithinProximity(40.7128, -74.0060)
	assert.Len(t, nearby, 1)
	assert.Equal(t, "close", nearby[0].Name)
}

func TestWithinProximity_EmptyCatalogPassesThrough(t *testing.T) {
	cat := &Catalog{}
	assert.Nil(t, cat.WithinProximity(0, 0))
}

func TestWithinProximity_ZeroZeroBoundary(t *testing.T) {
	cat := &Catalog{Venues: []Venue{{Name: "origin", Lat: 0, Lng: 0}}}
	nearby := cat.WithinProximity(0, 0)
	assert.Len(t, nearby, 1)
}
