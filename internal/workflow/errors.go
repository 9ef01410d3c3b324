package workflow

import "errors"

// Sentinel errors returned by the engine and allocation checks. The service
// layer wraps these with transport-level classification; callers inside the
// domain test with errors.Is.
var (
	// ErrUnauthorized: the actor's role does not match the current step's role.
	ErrUnauthorized = errors.New("actor role does not match current step role")

	// ErrAlreadyFinalized: the claim is in a terminal status.
	ErrAlreadyFinalized = errors.New("claim is already finalized")

	// ErrNoNextStep: FORWARD at the last active step; use APPROVE or REJECT.
	ErrNoNextStep = errors.New("no next workflow step; use APPROVE or REJECT at a final step")

	// ErrRejectionNotAuthorized: the current step lacks rejection authority.
	ErrRejectionNotAuthorized = errors.New("current step does not have rejection authority")

	// ErrAmountRequired: APPROVE needs a sanctioned amount.
	ErrAmountRequired = errors.New("sanctioned amount is required to approve")

	// ErrAmountNotAllowed: only a step approver may set the sanctioned amount.
	ErrAmountNotAllowed = errors.New("sanctioned amount cannot be set by this action")

	// ErrInvalidAssignee: the assignee does not hold the current step's role.
	ErrInvalidAssignee = errors.New("assignee does not hold the current step role")

	// ErrNotAllocatable: the claim is terminal or has no current step.
	ErrNotAllocatable = errors.New("claim cannot be allocated in its current state")

	// ErrLimitNotConfigured: no sanction limit exists for (category, limit type).
	ErrLimitNotConfigured = errors.New("sanction limit not configured")

	// ErrInvalidStepConfig: the step table violates its ordering invariants.
	ErrInvalidStepConfig = errors.New("invalid workflow step configuration")

	// ErrInvalidLimitConfig: duplicate (category, limit type) in the limit table.
	ErrInvalidLimitConfig = errors.New("invalid sanction limit configuration")
)
