package workflow

import "fmt"

// Category classifies the beneficiary of a claim.
type Category string

const (
	CategoryEmployee        Category = "EMPLOYEE"
	CategoryPensioner       Category = "PENSIONER"
	CategoryFamilyPensioner Category = "FAMILY_PENSIONER"
	CategoryArtisan         Category = "ARTISAN"
)

var validCategories = map[Category]bool{
	CategoryEmployee:        true,
	CategoryPensioner:       true,
	CategoryFamilyPensioner: true,
	CategoryArtisan:         true,
}

// IsValid reports whether c is a known beneficiary category.
func (c Category) IsValid() bool { return validCategories[c] }

// LimitType distinguishes the treatment class a limit applies to.
type LimitType string

const (
	LimitMinor       LimitType = "MINOR"
	LimitMajor       LimitType = "MAJOR"
	LimitSelfFunding LimitType = "SELF_FUNDING"
)

var validLimitTypes = map[LimitType]bool{
	LimitMinor:       true,
	LimitMajor:       true,
	LimitSelfFunding: true,
}

// IsValid reports whether l is a known limit type.
func (l LimitType) IsValid() bool { return validLimitTypes[l] }

// SanctionLimit is one configured threshold, in paise.
type SanctionLimit struct {
	Category  Category
	LimitType LimitType
	Amount    int64
}

type limitKey struct {
	category  Category
	limitType LimitType
}

// LimitTable is an immutable snapshot of sanction limits keyed by
// (category, limit type). Safe for unsynchronized concurrent reads.
type LimitTable struct {
	limits map[limitKey]int64
}

// NewLimitTable indexes the configured limits. A duplicate
// (category, limit type) pair is a configuration error.
func NewLimitTable(limits []SanctionLimit) (*LimitTable, error) {
	m := make(map[limitKey]int64, len(limits))
	for _, l := range limits {
		k := limitKey{l.Category, l.LimitType}
		if _, dup := m[k]; dup {
			return nil, fmt.Errorf("%w: duplicate limit for (%s, %s)", ErrInvalidLimitConfig, l.Category, l.LimitType)
		}
		m[k] = l.Amount
	}
	return &LimitTable{limits: m}, nil
}

// LimitFor returns the threshold for a (category, limit type) pair.
// Absence is ErrLimitNotConfigured, never a zero amount.
func (t *LimitTable) LimitFor(category Category, limitType LimitType) (int64, error) {
	amount, ok := t.limits[limitKey{category, limitType}]
	if !ok {
		return 0, fmt.Errorf("%w: (%s, %s)", ErrLimitNotConfigured, category, limitType)
	}
	return amount, nil
}
