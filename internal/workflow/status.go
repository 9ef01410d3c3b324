package workflow

// Status is a claim's position in its lifecycle. APPROVED and REJECTED are
// terminal; every other status keeps the claim at a concrete step.
type Status string

const (
	StatusPending       Status = "PENDING"
	StatusInProgress    Status = "IN_PROGRESS"
	StatusApproved      Status = "APPROVED"
	StatusRejected      Status = "REJECTED"
	StatusClarification Status = "CLARIFICATION"
)

var validStatuses = map[Status]bool{
	StatusPending:       true,
	StatusInProgress:    true,
	StatusApproved:      true,
	StatusRejected:      true,
	StatusClarification: true,
}

var terminalStatuses = map[Status]bool{
	StatusApproved: true,
	StatusRejected: true,
}

func (s Status) String() string { return string(s) }

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool { return validStatuses[s] }

// IsTerminal reports whether the claim accepts no further transitions.
func (s Status) IsTerminal() bool { return terminalStatuses[s] }

// BillStatus is the downstream projection of a claim's status onto the
// linked bill. It is computed inside the transition, never written
// independently.
type BillStatus string

const (
	BillUnderReview   BillStatus = "UNDER_REVIEW"
	BillApproved      BillStatus = "APPROVED"
	BillRejected      BillStatus = "REJECTED"
	BillClarification BillStatus = "CLARIFICATION"
)

// BillStatusFor maps a claim status to its bill projection.
func BillStatusFor(s Status) BillStatus {
	switch s {
	case StatusApproved:
		return BillApproved
	case StatusRejected:
		return BillRejected
	case StatusClarification:
		return BillClarification
	default:
		return BillUnderReview
	}
}
