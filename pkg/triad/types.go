// Package triad implements the TRIAD Orchestrator (spec.md C6): the
// three-phase concurrent scheduler that fans out to the Strategist,
// Planner, and Validator roles, fuses their output with the deterministic
// enrichers, and drives a Job through its phase state machine. Grounded
// on the teacher's AIOrchestrator (orchestration/orchestrator.go):
// structured fan-out/fan-in per phase, a metrics+history ring buffer, and
// a Logger-centric call record — generalized here to three *fixed* phases
// instead of a dynamically generated routing plan, since spec.md §4.6
// fixes the pipeline shape.
package triad

import (
	"time"

	"github.com/ridewave/triad/pkg/blocks"
	"github.com/ridewave/triad/pkg/venue"
)

// StrategyArtifact carries the Strategist's Phase 1 narrative with its
// model id and latency; Run builds it once Phase 2 has finished. The
// Phase 2 plans are not part of it.
type StrategyArtifact struct {
	Narrative         string
	ModelID           string
	ParamsFingerprint string
	PromptVersion     string
	LatencyMS         int64
}

// PhaseOneResult holds Phase 1's three concurrent outputs. Briefing and
// IsHoliday are optional degradations; Narrative is fatal if empty
// (spec.md §4.6).
type PhaseOneResult struct {
	Narrative          string
	NarrativeModelID   string
	NarrativeLatencyMS int64
	Briefing           string
	IsHoliday          bool
}

// PhaseTwoResult holds the two Planner-role consolidations.
type PhaseTwoResult struct {
	DailyPlan     string
	ImmediatePlan string
}

// VenueCandidate is the Planner's raw suggestion before enrichment
// (spec.md §3 "Venue Candidate").
type VenueCandidate struct {
	Name            string
	Lat             float64
	Lng             float64
	Category        string
	EstimatedEarnings string
	Rationale       string

	// DriveTimeSeconds, HoursKnown and HoursText are filled by C4 during
	// Phase 3 enrichment. PlaceID is set when the candidate is built, not
	// by enrichment; ReliabilityScore is not set by the Orchestrator.
	DriveTimeSeconds int
	HoursKnown       bool
	HoursText        string
	PlaceID          string
	ReliabilityScore float64
}

// EnrichmentOutcome records whether a single candidate's enrichment
// succeeded, for the "drop venue if more than half of enrichments fail"
// rule (spec.md §7).
type EnrichmentOutcome struct {
	Candidate VenueCandidate
	Failed    bool
}

// CatalogVenues adapts venue.Venue into a starting VenueCandidate set for
// the Planner prompt (spec.md §4.5: catalog shortlist feeds, but does not
// replace, Planner generation).
func CatalogVenues(vs []venue.Venue) []VenueCandidate {
	out := make([]VenueCandidate, len(vs))
	for i, v := range vs {
		out[i] = VenueCandidate{Name: v.Name, Lat: v.Lat, Lng: v.Lng, Category: v.Category, PlaceID: v.PlaceID}
	}
	return out
}

// ValidatorVerdict is the Validator's structural verdict over the
// assembled artifact (spec.md §4.3).
type ValidatorVerdict struct {
	Valid   bool
	Reasons []string
}

// Result is the Orchestrator's output on success.
type Result struct {
	Strategy  StrategyArtifact
	Venues    []VenueCandidate
	Verdict   ValidatorVerdict
	Blocks    []blocks.Block
	StartedAt time.Time
	EndedAt   time.Time
}
