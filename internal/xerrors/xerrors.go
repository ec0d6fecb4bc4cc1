// Package xerrors implements the TRIAD error taxonomy from spec.md §7.
//
// Every non-recoverable condition the Orchestrator surfaces carries one of
// the Code values below, following the teacher framework's split between a
// flat set of sentinel errors (for errors.Is comparisons) and a structured
// wrapper carrying machine-readable context (modeled on core.FrameworkError
// and core.ToolError in the teacher's gomind framework).
package xerrors

import (
	"errors"
	"fmt"
)

// Code is a taxonomy kind, not a Go type name — see spec.md §7.
type Code string

const (
	InvalidInput        Code = "invalid_input"
	GeocodeFailed        Code = "geocode_failed"
	StorageUnavailable   Code = "storage_unavailable"
	ModelMismatch        Code = "model_mismatch"
	StrategistFailed     Code = "strategist_failed"
	PlannerFailed        Code = "planner_failed"
	ValidatorFailed      Code = "validator_failed"
	PlannerThrottled     Code = "planner_throttled"
	EnrichmentFailed     Code = "enrichment_failed"
	ValidationFailed     Code = "validation_failed"
	BudgetExhausted      Code = "budget_exhausted"
	Cancelled            Code = "cancelled"
)

// Retryable reports whether a caller may reasonably re-enqueue after
// receiving this code, independent of any specific TriadError instance.
func (c Code) Retryable() bool {
	switch c {
	case PlannerThrottled, StorageUnavailable:
		return true
	default:
		return false
	}
}

// TriadError is the structured error carried by every failed Job.
// It implements error and supports errors.Is/As via Unwrap.
type TriadError struct {
	Code    Code
	Op      string // e.g. "orchestrator.phase1", "registry.enqueue"
	Message string
	Err     error // underlying cause, if any
}

func (e *TriadError) Error() string {
	if e.Op != "" {
		if e.Err != nil {
			return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
		}
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *TriadError) Unwrap() error { return e.Err }

// Is allows errors.Is(err, xerrors.New(code, "", "")) to match by Code alone.
func (e *TriadError) Is(target error) bool {
	t, ok := target.(*TriadError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// New constructs a TriadError.
func New(code Code, op, message string) *TriadError {
	return &TriadError{Code: code, Op: op, Message: message}
}

// Wrap constructs a TriadError around an existing error.
func Wrap(code Code, op, message string, err error) *TriadError {
	return &TriadError{Code: code, Op: op, Message: message, Err: err}
}

// CodeOf extracts the Code from err if it (transitively) wraps a
// *TriadError, and reports ok=false otherwise.
func CodeOf(err error) (Code, bool) {
	var te *TriadError
	if errors.As(err, &te) {
		return te.Code, true
	}
	return "", false
}

// Sentinel errors for plain comparison where a full TriadError would be
// overkill (internal control flow, not surfaced across the Job boundary).
var (
	ErrNoCandidates   = errors.New("no venue candidates produced")
	ErrEmptyArtifact  = errors.New("block artifact is empty")
	ErrDeadlineExceeded = errors.New("phase deadline exceeded")
)
