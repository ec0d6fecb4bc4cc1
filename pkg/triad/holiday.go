package triad

import "time"

// HolidayLookup answers whether a date is a holiday in a resolved region.
// Phase 1 uses TableHolidayLookup unless Config.Holidays supplies another
// implementation; no external calendar lookup is included in this module.
type HolidayLookup interface {
	IsHoliday(date time.Time, region string) (bool, error)
}

// fixedHolidays covers the handful of dates that are holidays across most
// of the regions this deployment targets (US federal observances). This
// is intentionally small: it exists so Phase 1 never blocks on a network
// call for the common case, not as a complete calendar.
var fixedHolidays = map[string]bool{
	"01-01": true, // New Year's Day
	"07-04": true, // Independence Day
	"11-11": true, // Veterans Day
	"12-25": true, // Christmas Day
}

// TableHolidayLookup is the deterministic, network-free fallback.
type TableHolidayLookup struct{}

// IsHoliday reports whether date falls on one of the fixed calendar days.
// region is accepted for interface symmetry with calendar-backed
// implementations but unused here — the fixed table is region-agnostic.
func (TableHolidayLookup) IsHoliday(date time.Time, region string) (bool, error) {
	key := date.Format("01-02")
	return fixedHolidays[key], nil
}
