// Package job implements the Job Registry (spec.md C2): an idempotent,
// single-writer job row keyed by snapshot, and the phase state machine
// driven by the TRIAD Orchestrator.
package job

import (
	"fmt"
	"time"
)

// Status is a Job's lifecycle state (spec.md §3).
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusSucceeded  Status = "succeeded"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

// IsTerminal reports whether a status ends the Job's lifecycle.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusSucceeded, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

// Phase is the Orchestrator phase a Job currently occupies (spec.md §4.6).
type Phase string

const (
	PhaseIdle Phase = "idle"
	PhaseP1   Phase = "p1"
	PhaseP2   Phase = "p2"
	PhaseP3   Phase = "p3"
	PhaseDone Phase = "done"
)

// phaseOrder defines the only legal forward sequence; there are no
// back-transitions (spec.md §4.6 "State machine").
var phaseOrder = map[Phase]int{
	PhaseIdle: 0,
	PhaseP1:   1,
	PhaseP2:   2,
	PhaseP3:   3,
	PhaseDone: 4,
}

// CanAdvance reports whether transitioning from `from` to `to` is legal:
// strictly forward, one step at a time, no skips, no reversals
// (spec.md §8, Testable Properties).
func CanAdvance(from, to Phase) bool {
	fo, ok1 := phaseOrder[from]
	to_, ok2 := phaseOrder[to]
	if !ok1 || !ok2 {
		return false
	}
	return to_ == fo+1
}

// Timings records phase start/end timestamps for the current attempt.
type Timings struct {
	P1Start, P1End time.Time
	P2Start, P2End time.Time
	P3Start, P3End time.Time
}

// Job is one-to-one with a Snapshot (spec.md §3).
type Job struct {
	JobID         string
	SnapshotID    string
	Status        Status
	Attempt       int
	CorrelationID string
	Phase         Phase
	Timings       Timings

	ErrorCode    string
	ErrorMessage string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Advance validates and applies a phase transition in place. Callers are
// expected to persist the result via Registry.Advance immediately after.
func (j *Job) Advance(to Phase) error {
	if !CanAdvance(j.Phase, to) {
		return fmt.Errorf("illegal phase transition %s -> %s", j.Phase, to)
	}
	now := time.Now().UTC()
	switch to {
	case PhaseP1:
		j.Timings.P1Start = now
	case PhaseP2:
		j.Timings.P1End = now
		j.Timings.P2Start = now
	case PhaseP3:
		j.Timings.P2End = now
		j.Timings.P3Start = now
	case PhaseDone:
		j.Timings.P3End = now
	}
	j.Phase = to
	j.UpdatedAt = now
	return nil
}

// Outcome is the terminal result the Orchestrator reports to the
// Registry via Complete.
type Outcome struct {
	Status       Status // succeeded, failed, or cancelled
	ErrorCode    string
	ErrorMessage string
}
