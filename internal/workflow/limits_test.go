package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimitForDistinguishesAbsenceFromZero(t *testing.T) {
	table, err := NewLimitTable([]SanctionLimit{
		{Category: CategoryEmployee, LimitType: LimitMinor, Amount: 0},
	})
	require.NoError(t, err)

	amount, err := table.LimitFor(CategoryEmployee, LimitMinor)
	require.NoError(t, err)
	assert.Equal(t, int64(0), amount)

	_, err = table.LimitFor(CategoryEmployee, LimitMajor)
	assert.ErrorIs(t, err, ErrLimitNotConfigured)
}

func TestNewLimitTableRejectsDuplicatePair(t *testing.T) {
	_, err := NewLimitTable([]SanctionLimit{
		{Category: CategoryPensioner, LimitType: LimitMajor, Amount: 100},
		{Category: CategoryPensioner, LimitType: LimitMajor, Amount: 200},
	})
	assert.ErrorIs(t, err, ErrInvalidLimitConfig)
}

func TestLimitForLookup(t *testing.T) {
	table, err := NewLimitTable([]SanctionLimit{
		{Category: CategoryEmployee, LimitType: LimitMinor, Amount: 10000000},
		{Category: CategoryArtisan, LimitType: LimitSelfFunding, Amount: 2500000},
	})
	require.NoError(t, err)

	amount, err := table.LimitFor(CategoryArtisan, LimitSelfFunding)
	require.NoError(t, err)
	assert.Equal(t, int64(2500000), amount)
}
