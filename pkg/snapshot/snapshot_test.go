package snapshot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate_AcceptsBoundaryCoordinates(t *testing.T) {
	assert.NoError(t, Validate(90, 180))
	assert.NoError(t, Validate(-90, -180))
	assert.NoError(t, Validate(0, 0))
}

func TestValidate_RejectsOutOfRangeLatitude(t *testing.T) {
	assert.Error(t, Validate(90.0001, 0))
	assert.Error(t, Validate(-90.0001, 0))
}

func TestValidate_RejectsOutOfRangeLongitude(t *testing.T) {
	assert.Error(t, Validate(0, 180.0001))
	assert.Error(t, Validate(0, -180.0001))
}

func TestCoordKey_SixDecimalPrecision(t *testing.T) {
	s := &Snapshot{Lat: 40.7128, Lng: -74.0060}
	assert.Equal(t, "40.712800_-74.006000", s.CoordKey())
}

func TestCountryDisplayName_KnownCode(t *testing.T) {
	assert.Equal(t, "United States", CountryDisplayName("US"))
}

func TestCountryDisplayName_UnknownCodeFallsBackToCode(t *testing.T) {
	assert.Equal(t, "ZZ", CountryDisplayName("ZZ"))
}
