// Package trigger holds the small value type shared between snapshot
// validation and job-enqueue trigger detection.
//
// spec.md §9 (Design Notes) calls out a near-cycle in the source system
// between location validation and strategy-trigger detection, worked
// around there with a dynamic import. Here the cycle is split instead:
// this leaf package has no dependency on pkg/snapshot or pkg/job, and
// neither of those imports it; pkg/transport builds a Descriptor from a
// validated snapshot for trigger detection, so neither imports the other.
package trigger

import "time"

// Reason names why a Job is being triggered for a Snapshot.
type Reason string

const (
	// ReasonNewSnapshot is a fresh snapshot with no prior job.
	ReasonNewSnapshot Reason = "new_snapshot"
	// ReasonRetry is a re-enqueue after a terminal, cooled-down job.
	ReasonRetry Reason = "retry"
	// ReasonDuplicate is a no-op trigger: an in-flight or recent job
	// already covers this snapshot and the caller gets that handle back.
	ReasonDuplicate Reason = "duplicate"
)

// Descriptor is the minimal fact needed to decide whether, and how, a Job
// should be created for a Snapshot — independent of how the Snapshot was
// validated and independent of how the Job Registry persists state.
type Descriptor struct {
	SnapshotID string
	Lat        float64
	Lng        float64
	CapturedAt time.Time
	Reason     Reason
}
