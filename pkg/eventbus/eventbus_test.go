package eventbus

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublish_MonotonicSequencePerJob(t *testing.T) {
	b := New()
	ch, unsubscribe := b.Subscribe("job-1")
	defer unsubscribe()

	b.Publish("job-1", "phase_change", nil)
	b.Publish("job-1", "stage_complete", nil)

	first := <-ch
	second := <-ch
	assert.Equal(t, uint64(1), first.Sequence)
	assert.Equal(t, uint64(2), second.Sequence)
}

func TestPublish_SequencesAreIndependentPerJob(t *testing.T) {
	b := New()
	chA, unsubA := b.Subscribe("job-a")
	defer unsubA()
	chB, unsubB := b.Subscribe("job-b")
	defer unsubB()

	b.Publish("job-a", "phase_change", nil)
	b.Publish("job-b", "phase_change", nil)
	b.Publish("job-a", "phase_change", nil)

	assert.Equal(t, uint64(1), (<-chA).Sequence)
	assert.Equal(t, uint64(1), (<-chB).Sequence)
	assert.Equal(t, uint64(2), (<-chA).Sequence)
}

func TestPublish_DropsOnFullBufferRatherThanBlocking(t *testing.T) {
	b := New()
	_, unsubscribe := b.Subscribe("job-1")
	defer unsubscribe()

	for i := 0; i < bufferSize+5; i++ {
		b.Publish("job-1", "tick", i)
	}

	assert.Equal(t, uint64(5), b.Dropped())
}

func TestSubscribe_UnsubscribeClosesChannel(t *testing.T) {
	b := New()
	ch, unsubscribe := b.Subscribe("job-1")
	unsubscribe()

	_, open := <-ch
	assert.False(t, open)
}

func TestPublish_NoSubscribersDoesNotPanic(t *testing.T) {
	b := New()
	assert.NotPanics(t, func() {
		b.Publish("ghost-job", "phase_change", nil)
	})
}

func TestForget_ResetsSequenceCounter(t *testing.T) {
	b := New()
	b.Publish("job-1", "phase_change", nil)
	b.Publish("job-1", "phase_change", nil)

	b.Forget("job-1")

	ch, unsubscribe := b.Subscribe("job-1")
	defer unsubscribe()
	b.Publish("job-1", "phase_change", nil)

	assert.Equal(t, uint64(1), (<-ch).Sequence)
}
