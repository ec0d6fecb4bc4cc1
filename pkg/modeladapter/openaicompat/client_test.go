package openaicompat

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ridewave/triad/internal/xerrors"
)

func TestIsReasoningModel_MatchesKnownPrefixes(t *testing.T) {
	assert.True(t, IsReasoningModel("gpt-5"))
	assert.True(t, IsReasoningModel("gpt-5-mini"))
	assert.True(t, IsReasoningModel("o1"))
	assert.True(t, IsReasoningModel("o1-preview"))
	assert.True(t, IsReasoningModel("o3-mini"))
	assert.True(t, IsReasoningModel("o4-mini"))
}

func TestIsReasoningModel_CaseInsensitive(t *testing.T) {
	assert.True(t, IsReasoningModel("GPT-5"))
	assert.True(t, IsReasoningModel("O1-Preview"))
}

func TestIsReasoningModel_RejectsNonReasoningModels(t *testing.T) {
	assert.False(t, IsReasoningModel("gpt-4o"))
	assert.False(t, IsReasoningModel("gpt-3.5-turbo"))
	assert.False(t, IsReasoningModel(""))
}

func TestClassifyError_ThrottledMapsToPlannerThrottled(t *testing.T) {
	err := classifyError(&throttledError{status: 429, body: "rate limited"})
	code, ok := xerrors.CodeOf(err)
	assert.True(t, ok)
	assert.Equal(t, xerrors.PlannerThrottled, code)
}

func TestClassifyError_OtherErrorsMapToPlannerFailed(t *testing.T) {
	err := classifyError(errors.New("connection reset"))
	code, ok := xerrors.CodeOf(err)
	assert.True(t, ok)
	assert.Equal(t, xerrors.PlannerFailed, code)
}
