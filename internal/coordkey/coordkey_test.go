package coordkey

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOf(t *testing.T) {
	assert.Equal(t, "40.712800_-74.006000", Of(40.7128, -74.0060))
	assert.Equal(t, "0.000000_0.000000", Of(0, 0))
}

func TestOf_StableAcrossEquivalentFloats(t *testing.T) {
	a := Of(1.0/3.0, 2.0/3.0)
	b := Of(0.333333333333, 0.666666666667)
	assert.Equal(t, a, b)
}

func TestRound(t *testing.T) {
	assert.InDelta(t, 40.7128, Round(40.71280001), 1e-9)
	assert.InDelta(t, -74.006, Round(-74.0060004), 1e-9)
}
