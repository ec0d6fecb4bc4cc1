package triad

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTableHolidayLookup_KnownDates(t *testing.T) {
	lookup := TableHolidayLookup{}

	cases := []struct {
		date     time.Time
		expected bool
	}{
		{time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), true},
		{time.Date(2026, 7, 4, 0, 0, 0, 0, time.UTC), true},
		{time.Date(2026, 11, 11, 0, 0, 0, 0, time.UTC), true},
		{time.Date(2026, 12, 25, 0, 0, 0, 0, time.UTC), true},
		{time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC), false},
	}

	for _, c := range cases {
		got, err := lookup.IsHoliday(c.date, "US")
		assert.NoError(t, err)
		assert.Equal(t, c.expected, got, c.date.String())
	}
}

func TestTableHolidayLookup_RegionAgnostic(t *testing.T) {
	lookup := TableHolidayLookup{}
	date := time.Date(2026, 12, 25, 0, 0, 0, 0, time.UTC)

	forUS, _ := lookup.IsHoliday(date, "US")
	forEmpty, _ := lookup.IsHoliday(date, "")
	assert.Equal(t, forUS, forEmpty)
}
