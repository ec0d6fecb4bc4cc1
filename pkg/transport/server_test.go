package transport

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCancelRegistry_CancelInvokesStoredFunc(t *testing.T) {
	reg := newCancelRegistry()
	_, cancel := context.WithCancel(context.Background())
	called := false
	reg.store("job-1", func() { called = true; cancel() })

	found := reg.cancel("job-1")

	assert.True(t, found)
	assert.True(t, called)
}

func TestCancelRegistry_CancelUnknownJobIsNoop(t *testing.T) {
	reg := newCancelRegistry()
	found := reg.cancel("missing")
	assert.False(t, found)
}

func TestCancelRegistry_ForgetRemovesEntry(t *testing.T) {
	reg := newCancelRegistry()
	reg.store("job-1", func() {})
	reg.forget("job-1")

	found := reg.cancel("job-1")

	assert.False(t, found)
}

func TestCancelRegistry_CancelIsOneShot(t *testing.T) {
	reg := newCancelRegistry()
	calls := 0
	reg.store("job-1", func() { calls++ })

	reg.cancel("job-1")
	reg.cancel("job-1")

	assert.Equal(t, 1, calls)
}
