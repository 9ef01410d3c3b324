package workflow

import "time"

// Claim is the per-bill sanction request moving through the workflow.
// All monetary amounts are in paise. A claim is mutated exclusively through
// the transition engine and never deleted; terminal claims are retained for
// audit.
type Claim struct {
	ID            string
	BillID        string
	HospitalName  string
	PatientName   string
	Category      Category
	LimitType     LimitType
	ClaimedAmount int64

	// SanctionedAmount is nil until an approver supplies an amount; it may
	// be revised at intermediate steps before final approval.
	SanctionedAmount *int64

	// CurrentStepOrder is nil only in terminal statuses.
	CurrentStepOrder *int

	// Assignee is the single identity currently responsible for the claim,
	// cleared on every forward so ownership never goes stale across steps.
	Assignee *string

	Status          Status
	IsLimitExceeded bool

	// Version increments on every accepted transition; the repository uses
	// it as a compare-and-swap guard against concurrent writers.
	Version int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Clone returns a deep copy; pointer fields are re-allocated so mutating
// the copy never leaks into the original.
func (c *Claim) Clone() *Claim {
	out := *c
	if c.SanctionedAmount != nil {
		v := *c.SanctionedAmount
		out.SanctionedAmount = &v
	}
	if c.CurrentStepOrder != nil {
		v := *c.CurrentStepOrder
		out.CurrentStepOrder = &v
	}
	if c.Assignee != nil {
		v := *c.Assignee
		out.Assignee = &v
	}
	return &out
}
