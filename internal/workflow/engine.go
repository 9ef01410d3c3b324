package workflow

import (
	"errors"
	"fmt"
	"time"
)

// TransitionCommand is one requested action against a claim.
type TransitionCommand struct {
	Actor     string
	ActorRole Role
	Action    Action
	Comments  string

	// Amount, when present, overwrites the claim's sanctioned amount and
	// triggers the advisory limit check before the transition is accepted.
	Amount *int64
}

// Outcome is the full result of an accepted transition: the post-transition
// claim, the single audit entry to append, and the downstream bill-status
// projection. LimitWarning is set when the limit table had no entry for the
// claim's (category, limit type); absent configuration never blocks the
// workflow.
type Outcome struct {
	Claim        *Claim
	Entry        AuditEntry
	BillStatus   BillStatus
	LimitWarning string
}

// Engine validates and applies transitions against immutable configuration
// snapshots. It performs no I/O: Decide works on a copy of the claim and
// returns everything the caller must persist atomically, so a failed call
// leaves the stored claim untouched.
type Engine struct {
	steps  *StepRegistry
	limits *LimitTable
}

// NewEngine creates an engine over the given configuration snapshots.
func NewEngine(steps *StepRegistry, limits *LimitTable) *Engine {
	return &Engine{steps: steps, limits: limits}
}

// Steps exposes the step snapshot for queue and display purposes.
func (e *Engine) Steps() *StepRegistry { return e.steps }

// NewClaim initializes a claim at the first active step with status PENDING
// and no assignee. Fails only when no active step is configured.
func (e *Engine) NewClaim(c *Claim, now time.Time) error {
	first, ok := e.steps.FirstActive()
	if !ok {
		return fmt.Errorf("%w: no active steps", ErrInvalidStepConfig)
	}
	order := first.Order
	c.Status = StatusPending
	c.CurrentStepOrder = &order
	c.Assignee = nil
	c.SanctionedAmount = nil
	c.IsLimitExceeded = false
	c.Version = 1
	c.CreatedAt = now
	c.UpdatedAt = now
	return nil
}

// Decide evaluates cmd against the claim and returns the transition outcome.
// The input claim is never mutated. Evaluation order: terminal check, then
// the role gate, then the limit check on any supplied amount, then the
// per-action rules.
func (e *Engine) Decide(claim *Claim, cmd TransitionCommand, now time.Time) (*Outcome, error) {
	if claim.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: claim %s is %s", ErrAlreadyFinalized, claim.ID, claim.Status)
	}
	if !cmd.Action.IsTransition() {
		return nil, fmt.Errorf("unknown transition action %q", cmd.Action)
	}

	next := claim.Clone()

	// RESPOND is the claim owner answering a clarification; the owner never
	// holds a step role, so the step gate does not apply. The sanctioned
	// amount is approver territory: a response carrying one is rejected
	// rather than silently ignored.
	if cmd.Action == ActionRespond {
		if cmd.ActorRole != RoleHospital {
			return nil, fmt.Errorf("%w: only the submitting hospital may respond", ErrUnauthorized)
		}
		if claim.Status != StatusClarification {
			return nil, fmt.Errorf("%w: claim %s is not awaiting clarification", ErrUnauthorized, claim.ID)
		}
		if cmd.Amount != nil {
			return nil, fmt.Errorf("%w: a clarification response cannot carry an amount", ErrAmountNotAllowed)
		}
		next.Status = StatusInProgress
		next.Version++
		next.UpdatedAt = now
		return e.outcome(claim, next, cmd, "", now), nil
	}

	if claim.CurrentStepOrder == nil {
		return nil, fmt.Errorf("%w: claim %s has no current step", ErrAlreadyFinalized, claim.ID)
	}
	step, ok := e.steps.ByOrder(*claim.CurrentStepOrder)
	if !ok {
		return nil, fmt.Errorf("%w: no active step at order %d", ErrInvalidStepConfig, *claim.CurrentStepOrder)
	}
	if cmd.ActorRole != step.Role {
		return nil, fmt.Errorf("%w: step %d requires %s, actor holds %s",
			ErrUnauthorized, step.Order, step.Role, cmd.ActorRole)
	}

	var limitWarning string
	if cmd.Amount != nil {
		amount := *cmd.Amount
		next.SanctionedAmount = &amount

		threshold, err := e.limits.LimitFor(claim.Category, claim.LimitType)
		switch {
		case errors.Is(err, ErrLimitNotConfigured):
			// Advisory check only: missing configuration must not stall the
			// workflow, but the caller is told.
			next.IsLimitExceeded = false
			limitWarning = err.Error()
		case err != nil:
			return nil, err
		default:
			next.IsLimitExceeded = amount > threshold
		}
	}

	switch cmd.Action {
	case ActionForward:
		after, ok := e.steps.NextActiveAfter(step.Order)
		if !ok {
			return nil, fmt.Errorf("%w: step %d is the last active step", ErrNoNextStep, step.Order)
		}
		order := after.Order
		next.Status = StatusInProgress
		next.CurrentStepOrder = &order
		next.Assignee = nil // cleared for re-allocation at the next stage

	case ActionReject:
		if !step.CanReject {
			return nil, fmt.Errorf("%w: step %d (%s)", ErrRejectionNotAuthorized, step.Order, step.Role)
		}
		next.Status = StatusRejected
		next.CurrentStepOrder = nil

	case ActionApprove:
		if cmd.Amount == nil {
			return nil, ErrAmountRequired
		}
		next.Status = StatusApproved
		next.CurrentStepOrder = nil

	case ActionClarify:
		// Claim stays with the same approver awaiting the hospital response.
		next.Status = StatusClarification
	}

	next.Version++
	next.UpdatedAt = now
	return e.outcome(claim, next, cmd, limitWarning, now), nil
}

// outcome assembles the audit entry from the pre-transition step and the
// post-transition claim.
func (e *Engine) outcome(before, after *Claim, cmd TransitionCommand, limitWarning string, now time.Time) *Outcome {
	entry := AuditEntry{
		ClaimID:       after.ID,
		Actor:         cmd.Actor,
		ActorRole:     cmd.ActorRole,
		Action:        cmd.Action,
		Comments:      cmd.Comments,
		LimitExceeded: after.IsLimitExceeded,
		Timestamp:     now,
	}
	if after.SanctionedAmount != nil {
		// Own copy: the entry must stay fixed even if the returned claim
		// is mutated later.
		amount := *after.SanctionedAmount
		entry.AmountAtStage = &amount
	}
	if before.CurrentStepOrder != nil {
		order := *before.CurrentStepOrder
		entry.StepOrder = &order
		if step, ok := e.steps.ByOrder(order); ok {
			entry.StepName = step.Name
		}
	}
	return &Outcome{
		Claim:        after,
		Entry:        entry,
		BillStatus:   BillStatusFor(after.Status),
		LimitWarning: limitWarning,
	}
}
