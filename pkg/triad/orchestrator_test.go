package triad

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ridewave/triad/pkg/enrichment"
	"github.com/ridewave/triad/pkg/modeladapter"
	"github.com/ridewave/triad/pkg/snapshot"
	"github.com/ridewave/triad/pkg/venue"
)

func TestParamsFingerprint_DeterministicForSameInputs(t *testing.T) {
	a := paramsFingerprint(modeladapter.RoleStrategist, "gpt-5")
	b := paramsFingerprint(modeladapter.RoleStrategist, "gpt-5")
	assert.Equal(t, a, b)
}

func TestParamsFingerprint_DiffersByModelID(t *testing.T) {
	a := paramsFingerprint(modeladapter.RoleStrategist, "gpt-5")
	b := paramsFingerprint(modeladapter.RoleStrategist, "claude-opus")
	assert.NotEqual(t, a, b)
}

func TestParamsFingerprint_DiffersByRole(t *testing.T) {
	a := paramsFingerprint(modeladapter.RoleStrategist, "gpt-5")
	b := paramsFingerprint(modeladapter.RolePlanner, "gpt-5")
	assert.NotEqual(t, a, b)
}

func TestWeatherText_NilWeatherReportsUnknown(t *testing.T) {
	s := &snapshot.Snapshot{}
	assert.Equal(t, "unknown", weatherText(s))
}

func TestWeatherText_UsesDescription(t *testing.T) {
	s := &snapshot.Snapshot{Weather: &snapshot.Weather{Description: "light rain"}}
	assert.Equal(t, "light rain", weatherText(s))
}

func TestVenueNames_EmptyListReportsGenerateFromScratch(t *testing.T) {
	assert.Equal(t, "(none in catalog; generate from scratch)", venueNames(nil))
}

func TestVenueNames_JoinsWithCommaSpace(t *testing.T) {
	vs := []venue.Venue{{Name: "Union Station"}, {Name: "The Loop"}}
	assert.Equal(t, "Union Station, The Loop", venueNames(vs))
}

func TestBusinessHoursText_OpenNow(t *testing.T) {
	assert.Equal(t, "open now", businessHoursText(&enrichment.BusinessHours{OpenNow: true}))
}

func TestBusinessHoursText_ClosedNow(t *testing.T) {
	assert.Equal(t, "closed now", businessHoursText(&enrichment.BusinessHours{OpenNow: false}))
}

func TestParsePlannerVenues_ValidJSON(t *testing.T) {
	text := `[{"Name":"Union Station","Lat":41.8789,"Lng":-87.6359,"Category":"transit"}]`
	out, err := parsePlannerVenues(text)
	assert.NoError(t, err)
	assert.Len(t, out, 1)
	assert.Equal(t, "Union Station", out[0].Name)
}

func TestParsePlannerVenues_RejectsGarbage(t *testing.T) {
	_, err := parsePlannerVenues("not json")
	assert.Error(t, err)
}

func TestJoinReasons_Empty(t *testing.T) {
	assert.Equal(t, "", joinReasons(nil))
}

func TestJoinReasons_JoinsWithSemicolon(t *testing.T) {
	assert.Equal(t, "missing drive time; stale hours", joinReasons([]string{"missing drive time", "stale hours"}))
}

func TestDraftsFromCandidates_HoursKnownLine(t *testing.T) {
	candidates := []VenueCandidate{
		{Name: "A", Rationale: "busy exit", HoursKnown: true, HoursText: "open now", DriveTimeSeconds: 600},
	}
	drafts := draftsFromCandidates(candidates, time.Now())
	assert.Len(t, drafts, 1)
	assert.Equal(t, "A", drafts[0].Name)
	assert.Contains(t, drafts[0].StaticLines, "hours: open now")
	assert.Contains(t, drafts[0].StaticLines, "drive time: 10 min")
}

func TestDraftsFromCandidates_UnknownHoursLine(t *testing.T) {
	candidates := []VenueCandidate{{Name: "B", Rationale: "airport surge"}}
	drafts := draftsFromCandidates(candidates, time.Now())
	assert.Contains(t, drafts[0].StaticLines, "hours: unknown")
}

func TestDefaultDeadlines_MatchBudgets(t *testing.T) {
	d := DefaultDeadlines()
	assert.Equal(t, 30*time.Second, d.Phase1)
	assert.Equal(t, 20*time.Second, d.Phase2)
	assert.Equal(t, 40*time.Second, d.Phase3)
	assert.Equal(t, 90*time.Second, d.Total)
}

func TestCatalogVenues_Adapts(t *testing.T) {
	vs := []venue.Venue{{Name: "Stadium", Lat: 1, Lng: 2, Category: "sports", PlaceID: "p1"}}
	out := CatalogVenues(vs)
	assert.Len(t, out, 1)
	assert.Equal(t, "Stadium", out[0].Name)
	assert.Equal(t, "p1", out[0].PlaceID)
}
