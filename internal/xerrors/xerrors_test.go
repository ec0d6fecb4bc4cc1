package xerrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCode_Retryable(t *testing.T) {
	assert.True(t, PlannerThrottled.Retryable())
	assert.True(t, StorageUnavailable.Retryable())
	assert.False(t, PlannerFailed.Retryable())
	assert.False(t, ValidationFailed.Retryable())
	assert.False(t, Cancelled.Retryable())
}

func TestTriadError_Is_MatchesByCodeAlone(t *testing.T) {
	err := Wrap(PlannerFailed, "orchestrator.phase3", "no usable venues", errors.New("boom"))
	assert.True(t, errors.Is(err, New(PlannerFailed, "", "")))
	assert.False(t, errors.Is(err, New(ValidatorFailed, "", "")))
}

func TestTriadError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := Wrap(StorageUnavailable, "registry.enqueue", "retry exhausted", cause)
	assert.ErrorIs(t, err, cause)
}

func TestCodeOf(t *testing.T) {
	err := New(GeocodeFailed, "snapshot.resolve", "timed out")
	code, ok := CodeOf(err)
	assert.True(t, ok)
	assert.Equal(t, GeocodeFailed, code)

	_, ok = CodeOf(errors.New("plain error"))
	assert.False(t, ok)
}

func TestCodeOf_UnwrapsWrappedChain(t *testing.T) {
	inner := New(EnrichmentFailed, "triad.enrich", "too many failures")
	outer := errors.New("wrapper: " + inner.Error())
	_, ok := CodeOf(outer)
	assert.False(t, ok, "plain fmt-wrapped strings are not chain-wrapped, only %w is")

	chained := errorsWrap(inner)
	code, ok := CodeOf(chained)
	assert.True(t, ok)
	assert.Equal(t, EnrichmentFailed, code)
}

func errorsWrap(err error) error {
	return &wrapped{err}
}

type wrapped struct{ err error }

func (w *wrapped) Error() string { return "wrapped: " + w.err.Error() }
func (w *wrapped) Unwrap() error { return w.err }

func TestErrorMessageFormatting(t *testing.T) {
	withOpAndCause := Wrap(PlannerFailed, "op", "message", errors.New("cause"))
	assert.Equal(t, "op: message: cause", withOpAndCause.Error())

	withOpOnly := New(PlannerFailed, "op", "message")
	assert.Equal(t, "op: message", withOpOnly.Error())
}
