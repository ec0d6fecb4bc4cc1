package triad

import (
	"sync"
	"time"

	"github.com/ridewave/triad/pkg/job"
)

// ExecutionRecord is one completed attempt, kept for operator visibility.
// Adapted from the teacher's ExecutionRecord/addToHistory
// (orchestration/orchestrator.go) — a bounded ring buffer rather than an
// unbounded slice, since a long-running process must not accumulate
// history forever.
type ExecutionRecord struct {
	JobID      string
	SnapshotID string
	Attempt    int
	Status     job.Status
	Duration   time.Duration
	ErrorCode  string
	RecordedAt time.Time
}

// Metrics is the Orchestrator's running counters, read by an operator
// dashboard or health endpoint.
type Metrics struct {
	TotalJobs      uint64
	SucceededJobs  uint64
	FailedJobs     uint64
	CancelledJobs  uint64
	TotalDuration  time.Duration
}

// HistorySize bounds the in-memory execution history.
const HistorySize = 200

// Tracker owns Metrics and a bounded ExecutionRecord history under a
// single mutex, mirroring the teacher's historyMutex/metricsMutex split
// but collapsed into one lock since the two are always updated together
// here.
type Tracker struct {
	mu      sync.RWMutex
	metrics Metrics
	history []ExecutionRecord
}

// NewTracker constructs an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{history: make([]ExecutionRecord, 0, HistorySize)}
}

// Record appends a completed attempt and updates aggregate Metrics,
// trimming the oldest entry once History exceeds HistorySize.
func (t *Tracker) Record(rec ExecutionRecord) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.metrics.TotalJobs++
	t.metrics.TotalDuration += rec.Duration
	switch rec.Status {
	case job.StatusSucceeded:
		t.metrics.SucceededJobs++
	case job.StatusFailed:
		t.metrics.FailedJobs++
	case job.StatusCancelled:
		t.metrics.CancelledJobs++
	}

	t.history = append(t.history, rec)
	if len(t.history) > HistorySize {
		t.history = t.history[1:]
	}
}

// Snapshot returns a copy of the current Metrics.
func (t *Tracker) Snapshot() Metrics {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.metrics
}

// History returns a copy of the current execution history.
func (t *Tracker) History() []ExecutionRecord {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]ExecutionRecord, len(t.history))
	copy(out, t.history)
	return out
}
