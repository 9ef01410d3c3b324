package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tgnpdcl/be-wf-sanctions/internal/apperrors"
	"github.com/tgnpdcl/be-wf-sanctions/internal/workflow"
)

// WorkflowService drives claims through the approval sequence. Every
// transition is a single atomic read-modify-write: the engine decides on a
// copy, the store commits state and audit entry together under a version
// guard, and only after commit is the notification published.
type WorkflowService struct {
	claims   ClaimStore
	audit    AuditStore
	identity IdentityClientInterface
	notifier Notifier
	engine   *EngineProvider
	locks    *ClaimLocks
	log      zerolog.Logger
}

// NewWorkflowService creates a new WorkflowService.
func NewWorkflowService(
	claims ClaimStore,
	audit AuditStore,
	identity IdentityClientInterface,
	notifier Notifier,
	engine *EngineProvider,
	locks *ClaimLocks,
	log zerolog.Logger,
) *WorkflowService {
	return &WorkflowService{
		claims:   claims,
		audit:    audit,
		identity: identity,
		notifier: notifier,
		engine:   engine,
		locks:    locks,
		log:      log,
	}
}

// CreateClaimRequest enters a bill's claim into the workflow.
type CreateClaimRequest struct {
	BillID        string
	HospitalName  string
	PatientName   string
	Category      workflow.Category
	LimitType     workflow.LimitType
	ClaimedAmount int64
}

// TransitionRequest is one requested action against a claim.
type TransitionRequest struct {
	ClaimID   string
	ActorID   string
	ActorRole workflow.Role
	Action    workflow.Action
	Comments  string
	Amount    *int64
}

// TransitionResult is the combined outcome of an accepted transition: the
// new claim state, the bill-status projection derived in the same atomic
// step, and any limit-configuration warning for the caller.
type TransitionResult struct {
	Claim        *workflow.Claim
	BillStatus   workflow.BillStatus
	LimitWarning string
}

// CreateClaim initializes a claim at the first active step with status
// PENDING and no assignee.
func (s *WorkflowService) CreateClaim(ctx context.Context, req *CreateClaimRequest) (*workflow.Claim, error) {
	if req.BillID == "" {
		return nil, apperrors.InvalidInput("bill_id", "bill id is required")
	}
	if req.ClaimedAmount <= 0 {
		return nil, apperrors.InvalidInput("claimed_amount", "claimed amount must be positive")
	}
	if !req.Category.IsValid() {
		return nil, apperrors.InvalidInput("category", "unknown beneficiary category")
	}
	if !req.LimitType.IsValid() {
		return nil, apperrors.InvalidInput("limit_type", "unknown limit type")
	}

	claim := &workflow.Claim{
		ID:            uuid.NewString(),
		BillID:        req.BillID,
		HospitalName:  req.HospitalName,
		PatientName:   req.PatientName,
		Category:      req.Category,
		LimitType:     req.LimitType,
		ClaimedAmount: req.ClaimedAmount,
	}

	engine := s.engine.Current()
	if err := engine.NewClaim(claim, time.Now().UTC()); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeValidation, "cannot initialize claim")
	}

	if err := s.claims.Create(ctx, claim); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("claim_id", claim.ID).
		Str("bill_id", claim.BillID).
		Int64("claimed_amount", claim.ClaimedAmount).
		Int("first_step", *claim.CurrentStepOrder).
		Msg("Claim entered workflow")

	first, _ := engine.Steps().ByOrder(*claim.CurrentStepOrder)
	s.notify(ctx, "claim_created", claim, "", first.Role, nil)

	return claim, nil
}

// Transition validates and applies one action against a claim. Concurrent
// attempts on the same claim are serialized; the loser of a cross-process
// race gets a CONFLICT from the version guard with nothing written.
func (s *WorkflowService) Transition(ctx context.Context, req *TransitionRequest) (*TransitionResult, error) {
	if !req.Action.IsTransition() {
		return nil, apperrors.InvalidInput("action", "unknown workflow action")
	}
	if !req.ActorRole.IsValid() {
		return nil, apperrors.InvalidInput("actor_role", "unknown role")
	}

	unlock := s.locks.Lock(req.ClaimID)
	defer unlock()

	claim, err := s.claims.GetByID(ctx, req.ClaimID)
	if err != nil {
		return nil, err
	}

	engine := s.engine.Current()
	outcome, err := engine.Decide(claim, workflow.TransitionCommand{
		Actor:     req.ActorID,
		ActorRole: req.ActorRole,
		Action:    req.Action,
		Comments:  req.Comments,
		Amount:    req.Amount,
	}, time.Now().UTC())
	if err != nil {
		return nil, classifyWorkflowError(err)
	}

	outcome.Entry.ID = uuid.NewString()
	if err := s.claims.CommitTransition(ctx, outcome.Claim, claim.Version, &outcome.Entry); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("claim_id", claim.ID).
		Str("action", req.Action.String()).
		Str("actor_id", req.ActorID).
		Str("actor_role", req.ActorRole.String()).
		Str("status", outcome.Claim.Status.String()).
		Bool("limit_exceeded", outcome.Claim.IsLimitExceeded).
		Msg("Claim transition applied")
	if outcome.LimitWarning != "" {
		s.log.Warn().
			Str("claim_id", claim.ID).
			Str("warning", outcome.LimitWarning).
			Msg("Limit check skipped")
	}

	s.publishTransitionEvent(ctx, req, outcome, engine)

	return &TransitionResult{
		Claim:        outcome.Claim,
		BillStatus:   outcome.BillStatus,
		LimitWarning: outcome.LimitWarning,
	}, nil
}

// GetClaim returns one claim by ID.
func (s *WorkflowService) GetClaim(ctx context.Context, claimID string) (*workflow.Claim, error) {
	return s.claims.GetByID(ctx, claimID)
}

// History returns a claim's full audit trail, oldest first.
func (s *WorkflowService) History(ctx context.Context, claimID string) ([]*workflow.AuditEntry, error) {
	if _, err := s.claims.GetByID(ctx, claimID); err != nil {
		return nil, err
	}
	return s.audit.HistoryFor(ctx, claimID)
}

// ReloadConfig swaps in freshly loaded step and limit snapshots. In-flight
// transitions keep the snapshot they started with.
func (s *WorkflowService) ReloadConfig(registry *workflow.StepRegistry, limits *workflow.LimitTable) {
	s.engine.Replace(workflow.NewEngine(registry, limits))
	s.log.Info().Msg("Workflow configuration reloaded")
}

// publishTransitionEvent resolves recipients and publishes the NATS event
// for an accepted transition. Best-effort only.
func (s *WorkflowService) publishTransitionEvent(ctx context.Context, req *TransitionRequest, outcome *workflow.Outcome, engine *workflow.Engine) {
	var (
		event     string
		recipRole workflow.Role
	)
	switch req.Action {
	case workflow.ActionForward:
		event = "claim_forwarded"
		if outcome.Claim.CurrentStepOrder != nil {
			if next, ok := engine.Steps().ByOrder(*outcome.Claim.CurrentStepOrder); ok {
				recipRole = next.Role
			}
		}
	case workflow.ActionApprove:
		event = "claim_approved"
		recipRole = workflow.RoleHospital
	case workflow.ActionReject:
		event = "claim_rejected"
		recipRole = workflow.RoleHospital
	case workflow.ActionClarify:
		event = "clarification_requested"
		recipRole = workflow.RoleHospital
	case workflow.ActionRespond:
		event = "clarification_responded"
		if outcome.Claim.CurrentStepOrder != nil {
			if step, ok := engine.Steps().ByOrder(*outcome.Claim.CurrentStepOrder); ok {
				recipRole = step.Role
			}
		}
	}

	s.notify(ctx, event, outcome.Claim, req.ActorID, recipRole, map[string]interface{}{
		"status":         outcome.Claim.Status.String(),
		"bill_status":    string(outcome.BillStatus),
		"limit_exceeded": outcome.Claim.IsLimitExceeded,
	})
}

// notify publishes one event with recipients resolved by role. Failures to
// resolve recipients degrade to an unaddressed event, never an error.
func (s *WorkflowService) notify(ctx context.Context, event string, claim *workflow.Claim, actorID string, recipRole workflow.Role, payload map[string]interface{}) {
	var recipients []string
	if recipRole != "" {
		users, err := s.identity.GetUsersWithRole(ctx, recipRole.String())
		if err != nil {
			s.log.Warn().Err(err).
				Str("role", recipRole.String()).
				Msg("Could not resolve notification recipients")
		} else {
			recipients = users
		}
	}
	s.notifier.PublishClaimEvent(event, claim.ID, claim.BillID, actorID, recipients, payload)
}

// classifyWorkflowError maps engine sentinels onto transport categories.
func classifyWorkflowError(err error) error {
	switch {
	case errors.Is(err, workflow.ErrUnauthorized),
		errors.Is(err, workflow.ErrRejectionNotAuthorized):
		return apperrors.Wrap(err, apperrors.ErrCodeUnauthorized, "action not authorized")
	case errors.Is(err, workflow.ErrAlreadyFinalized),
		errors.Is(err, workflow.ErrNoNextStep):
		return apperrors.Wrap(err, apperrors.ErrCodeConflict, "claim state does not permit this action")
	case errors.Is(err, workflow.ErrAmountRequired),
		errors.Is(err, workflow.ErrAmountNotAllowed):
		return apperrors.Wrap(err, apperrors.ErrCodeValidation, "invalid transition request")
	case errors.Is(err, workflow.ErrInvalidStepConfig):
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "workflow configuration error")
	default:
		return err
	}
}
