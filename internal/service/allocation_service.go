package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tgnpdcl/be-wf-sanctions/internal/apperrors"
	"github.com/tgnpdcl/be-wf-sanctions/internal/workflow"
)

// AllocationService assigns claims to individual approvers and serves the
// per-approver work queue. At most one assignee holds a claim at a time;
// assignment is restricted to identities holding the role of the claim's
// current step. Clearing the assignee is never called directly — the
// transition engine does it on every forward.
type AllocationService struct {
	claims   ClaimStore
	identity IdentityClientInterface
	notifier Notifier
	engine   *EngineProvider
	locks    *ClaimLocks
	log      zerolog.Logger
}

// NewAllocationService creates a new AllocationService.
func NewAllocationService(
	claims ClaimStore,
	identity IdentityClientInterface,
	notifier Notifier,
	engine *EngineProvider,
	locks *ClaimLocks,
	log zerolog.Logger,
) *AllocationService {
	return &AllocationService{
		claims:   claims,
		identity: identity,
		notifier: notifier,
		engine:   engine,
		locks:    locks,
		log:      log,
	}
}

// AllocateRequest assigns a claim to an approver.
type AllocateRequest struct {
	ClaimID         string
	AssigneeID      string
	AllocatedBy     string
	AllocatedByRole workflow.Role
}

// Allocate sets the claim's assignee. Only CUSTOMER_ADMIN may allocate; the
// assignee must hold the role of the claim's current step. Re-allocating the
// same assignee is a no-op: the claim is returned unchanged and no audit
// entry is written.
func (s *AllocationService) Allocate(ctx context.Context, req *AllocateRequest) (*workflow.Claim, error) {
	if req.AssigneeID == "" {
		return nil, apperrors.InvalidInput("assignee_id", "assignee is required")
	}
	if req.AllocatedByRole != workflow.RoleCustomerAdmin {
		return nil, apperrors.New(apperrors.ErrCodeUnauthorized, "only the customer admin can allocate claims")
	}

	unlock := s.locks.Lock(req.ClaimID)
	defer unlock()

	claim, err := s.claims.GetByID(ctx, req.ClaimID)
	if err != nil {
		return nil, err
	}

	if claim.Status.IsTerminal() || claim.CurrentStepOrder == nil {
		return nil, apperrors.Wrap(workflow.ErrNotAllocatable, apperrors.ErrCodeConflict,
			fmt.Sprintf("claim %s is %s", claim.ID, claim.Status))
	}

	step, ok := s.engine.Current().Steps().ByOrder(*claim.CurrentStepOrder)
	if !ok {
		return nil, apperrors.New(apperrors.ErrCodeInternal,
			fmt.Sprintf("no active step at order %d", *claim.CurrentStepOrder))
	}

	roles, err := s.identity.GetUserRoles(ctx, req.AssigneeID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to resolve assignee roles")
	}
	if !holdsRole(roles, step.Role) {
		return nil, apperrors.Wrap(workflow.ErrInvalidAssignee, apperrors.ErrCodeValidation,
			fmt.Sprintf("assignee does not hold role %s", step.Role))
	}

	// Defined no-op: same assignee, no second audit entry.
	if claim.Assignee != nil && *claim.Assignee == req.AssigneeID {
		return claim, nil
	}

	order := step.Order
	entry := &workflow.AuditEntry{
		ID:        uuid.NewString(),
		ClaimID:   claim.ID,
		StepOrder: &order,
		StepName:  step.Name,
		Actor:     req.AllocatedBy,
		ActorRole: req.AllocatedByRole,
		Action:    workflow.ActionAllocate,
		Comments:  fmt.Sprintf("Claim allocated to %s", req.AssigneeID),
		Timestamp: time.Now().UTC(),
	}

	if err := s.claims.CommitAllocation(ctx, claim.ID, req.AssigneeID, claim.Version, entry); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("claim_id", claim.ID).
		Str("assignee", req.AssigneeID).
		Str("allocated_by", req.AllocatedBy).
		Int("step", step.Order).
		Msg("Claim allocated")

	s.notifier.PublishClaimEvent("claim_allocated", claim.ID, claim.BillID, req.AllocatedBy,
		[]string{req.AssigneeID}, map[string]interface{}{"step": step.Order, "role": step.Role.String()})

	return s.claims.GetByID(ctx, claim.ID)
}

// PendingQueue returns the claims visible to one approver: anything at an
// active step of their role that is assigned to them or not yet assigned,
// enabling pull-based self-assignment as a fallback to admin allocation.
func (s *AllocationService) PendingQueue(ctx context.Context, role workflow.Role, userID string) ([]*workflow.Claim, error) {
	if !role.IsApprover() {
		return nil, apperrors.InvalidInput("role", "role is not part of the approval workflow")
	}

	steps := s.engine.Current().Steps().StepsForRole(role)
	if len(steps) == 0 {
		// No step configured for this role; an empty queue, not an error.
		return nil, nil
	}

	orders := make([]int, len(steps))
	for i, st := range steps {
		orders[i] = st.Order
	}
	return s.claims.PendingForRole(ctx, orders, userID)
}

// Unfinished returns every non-terminal claim for the admin allocation view.
func (s *AllocationService) Unfinished(ctx context.Context) ([]*workflow.Claim, error) {
	return s.claims.ListUnfinished(ctx)
}

func holdsRole(roles []string, role workflow.Role) bool {
	for _, r := range roles {
		if r == role.String() {
			return true
		}
	}
	return false
}
