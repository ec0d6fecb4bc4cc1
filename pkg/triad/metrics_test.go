package triad

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ridewave/triad/pkg/job"
)

func TestTracker_RecordUpdatesCounters(t *testing.T) {
	tr := NewTracker()
	tr.Record(ExecutionRecord{JobID: "1", Status: job.StatusSucceeded, Duration: time.Second})
	tr.Record(ExecutionRecord{JobID: "2", Status: job.StatusFailed, Duration: 2 * time.Second})
	tr.Record(ExecutionRecord{JobID: "3", Status: job.StatusCancelled, Duration: time.Second})

	m := tr.Snapshot()
	assert.Equal(t, uint64(3), m.TotalJobs)
	assert.Equal(t, uint64(1), m.SucceededJobs)
	assert.Equal(t, uint64(1), m.FailedJobs)
	assert.Equal(t, uint64(1), m.CancelledJobs)
	assert.Equal(t, 4*time.Second, m.TotalDuration)
}

func TestTracker_HistoryBoundedAtHistorySize(t *testing.T) {
	tr := NewTracker()
	for i := 0; i < HistorySize+10; i++ {
		tr.Record(ExecutionRecord{JobID: "job", Status: job.StatusSucceeded})
	}

	assert.Len(t, tr.History(), HistorySize)
}

func TestTracker_HistoryReturnsDefensiveCopy(t *testing.T) {
	tr := NewTracker()
	tr.Record(ExecutionRecord{JobID: "1", Status: job.StatusSucceeded})

	h := tr.History()
	h[0].JobID = "mutated"

	assert.Equal(t, "1", tr.History()[0].JobID)
}
