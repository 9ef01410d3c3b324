package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSteps() []Step {
	return []Step{
		{Name: "Junior Personnel Officer", Order: 1, Role: RoleJPO, Active: true},
		{Name: "Assistant Personnel Officer", Order: 2, Role: RoleAPO, Active: true},
		{Name: "Deputy Personnel Officer", Order: 3, Role: RoleDPO, Active: true},
		{Name: "FA & CAO", Order: 4, Role: RoleFACAO, Active: true},
		{Name: "Divisional Engineer", Order: 5, Role: RoleDE, Active: true},
		{Name: "SE / CGM", Order: 6, Role: RoleSECGM, CanReject: true, Active: true},
		{Name: "Director", Order: 7, Role: RoleDirector, CanReject: true, CanApproveFinal: true, Active: true},
	}
}

func TestNewStepRegistryRejectsDuplicateActiveOrder(t *testing.T) {
	_, err := NewStepRegistry([]Step{
		{Name: "A", Order: 1, Role: RoleJPO, Active: true},
		{Name: "B", Order: 1, Role: RoleAPO, Active: true},
	})
	require.ErrorIs(t, err, ErrInvalidStepConfig)
}

func TestNewStepRegistryAllowsInactiveDuplicateOrder(t *testing.T) {
	// A disabled step may share an order with its active replacement.
	r, err := NewStepRegistry([]Step{
		{Name: "Old", Order: 1, Role: RoleJPO, Active: false},
		{Name: "New", Order: 1, Role: RoleAPO, Active: true},
	})
	require.NoError(t, err)

	first, ok := r.FirstActive()
	require.True(t, ok)
	assert.Equal(t, "New", first.Name)
}

func TestNewStepRegistryRejectsBadOrderAndRole(t *testing.T) {
	_, err := NewStepRegistry([]Step{{Name: "A", Order: 0, Role: RoleJPO, Active: true}})
	assert.ErrorIs(t, err, ErrInvalidStepConfig)

	_, err = NewStepRegistry([]Step{{Name: "A", Order: 1, Role: RoleHospital, Active: true}})
	assert.ErrorIs(t, err, ErrInvalidStepConfig)
}

func TestNextActiveAfterSkipsDisabledSteps(t *testing.T) {
	steps := testSteps()
	steps[1].Active = false // APO disabled
	r, err := NewStepRegistry(steps)
	require.NoError(t, err)

	next, ok := r.NextActiveAfter(1)
	require.True(t, ok)
	assert.Equal(t, 3, next.Order)
	assert.Equal(t, RoleDPO, next.Role)
}

func TestNextActiveAfterEndOfSequence(t *testing.T) {
	r, err := NewStepRegistry(testSteps())
	require.NoError(t, err)

	_, ok := r.NextActiveAfter(7)
	assert.False(t, ok)
}

func TestStepsForRoleMayReturnMultiple(t *testing.T) {
	r, err := NewStepRegistry([]Step{
		{Name: "First review", Order: 1, Role: RoleJPO, Active: true},
		{Name: "Director", Order: 2, Role: RoleDirector, Active: true},
		{Name: "Second review", Order: 3, Role: RoleJPO, Active: true},
	})
	require.NoError(t, err)

	got := r.StepsForRole(RoleJPO)
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].Order)
	assert.Equal(t, 3, got[1].Order)
	assert.Empty(t, r.StepsForRole(RoleAPO))
}

func TestByOrderIgnoresInactive(t *testing.T) {
	steps := testSteps()
	steps[0].Active = false
	r, err := NewStepRegistry(steps)
	require.NoError(t, err)

	_, ok := r.ByOrder(1)
	assert.False(t, ok)

	s, ok := r.ByOrder(2)
	require.True(t, ok)
	assert.Equal(t, RoleAPO, s.Role)
}
