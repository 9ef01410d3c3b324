package workflow

import "time"

// AuditEntry is one immutable record in a claim's approval trail. Exactly
// one entry exists per accepted transition or allocation; rejected attempts
// write nothing. StepOrder and StepName capture the step the claim was at
// when the action was taken, not where it moved to.
type AuditEntry struct {
	ID            string
	ClaimID       string
	StepOrder     *int
	StepName      string
	Actor         string
	ActorRole     Role
	Action        Action
	Comments      string
	AmountAtStage *int64
	LimitExceeded bool
	Timestamp     time.Time
}
