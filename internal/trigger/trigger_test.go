package trigger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDescriptor_CarriesReason(t *testing.T) {
	d := Descriptor{
		SnapshotID: "snap-1", Lat: 40.7128, Lng: -74.0060,
		CapturedAt: time.Now(), Reason: ReasonNewSnapshot,
	}
	assert.Equal(t, ReasonNewSnapshot, d.Reason)
}

func TestReason_Values(t *testing.T) {
	assert.Equal(t, Reason("new_snapshot"), ReasonNewSnapshot)
	assert.Equal(t, Reason("retry"), ReasonRetry)
	assert.Equal(t, Reason("duplicate"), ReasonDuplicate)
}
