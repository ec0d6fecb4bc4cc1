package modeladapter

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ridewave/triad/internal/xerrors"
)

func TestRole_Budget(t *testing.T) {
	assert.Equal(t, 12e9, float64(RoleStrategist.Budget()))
	assert.Equal(t, 45e9, float64(RolePlanner.Budget()))
	assert.Equal(t, 15e9, float64(RoleValidator.Budget()))
	assert.Equal(t, 10e9, float64(Role("unknown").Budget()))
}

func TestCheckModel_MatchPasses(t *testing.T) {
	assert.NoError(t, CheckModel("anthropic.call", "claude-3-7", "claude-3-7"))
}

func TestCheckModel_MismatchIsModelMismatchCode(t *testing.T) {
	err := CheckModel("anthropic.call", "claude-3-7", "claude-3-5")
	assert.Error(t, err)
	code, ok := xerrors.CodeOf(err)
	assert.True(t, ok)
	assert.Equal(t, xerrors.ModelMismatch, code)
}

func TestCheckModel_EmptyWantOrGotSkipsCheck(t *testing.T) {
	assert.NoError(t, CheckModel("op", "", "claude-3-5"))
	assert.NoError(t, CheckModel("op", "claude-3-5", ""))
}

func TestWrapRoleError_MapsRoleToTaxonomyCode(t *testing.T) {
	cause := errors.New("timeout")

	cases := []struct {
		role Role
		want xerrors.Code
	}{
		{RoleStrategist, xerrors.StrategistFailed},
		{RolePlanner, xerrors.PlannerFailed},
		{RoleValidator, xerrors.ValidatorFailed},
	}
	for _, c := range cases {
		err := WrapRoleError(c.role, "op", cause)
		code, ok := xerrors.CodeOf(err)
		assert.True(t, ok)
		assert.Equal(t, c.want, code)
		assert.ErrorIs(t, err, cause)
	}
}
