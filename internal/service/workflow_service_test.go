package service

import (
	"context"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tgnpdcl/be-wf-sanctions/internal/apperrors"
	"github.com/tgnpdcl/be-wf-sanctions/internal/workflow"
)

type fixture struct {
	store    *memoryStore
	identity *fakeIdentity
	notifier *fakeNotifier
	workflow *WorkflowService
	alloc    *AllocationService
}

func newFixture(t *testing.T, steps []workflow.Step, limits []workflow.SanctionLimit) *fixture {
	t.Helper()
	registry, err := workflow.NewStepRegistry(steps)
	require.NoError(t, err)
	table, err := workflow.NewLimitTable(limits)
	require.NoError(t, err)

	store := newMemoryStore()
	identity := &fakeIdentity{roles: map[string][]string{
		"jpo-1":   {"JPO"},
		"jpo-2":   {"JPO"},
		"apo-1":   {"APO"},
		"dir-1":   {"DIRECTOR"},
		"admin-1": {"CUSTOMER_ADMIN"},
		"hosp-1":  {"HOSPITAL"},
	}}
	notifier := &fakeNotifier{}
	engine := NewEngineProvider(workflow.NewEngine(registry, table))
	locks := NewClaimLocks()
	log := zerolog.Nop()

	return &fixture{
		store:    store,
		identity: identity,
		notifier: notifier,
		workflow: NewWorkflowService(store, store, identity, notifier, engine, locks, log),
		alloc:    NewAllocationService(store, identity, notifier, engine, locks, log),
	}
}

func twoSteps() []workflow.Step {
	return []workflow.Step{
		{Name: "JPO review", Order: 1, Role: workflow.RoleJPO, Active: true},
		{Name: "Director", Order: 2, Role: workflow.RoleDirector, CanReject: true, CanApproveFinal: true, Active: true},
	}
}

func (f *fixture) createClaim(t *testing.T) *workflow.Claim {
	t.Helper()
	claim, err := f.workflow.CreateClaim(context.Background(), &CreateClaimRequest{
		BillID:        "bill-1",
		HospitalName:  "City Hospital",
		PatientName:   "A Patient",
		Category:      workflow.CategoryEmployee,
		LimitType:     workflow.LimitMinor,
		ClaimedAmount: 5000000,
	})
	require.NoError(t, err)
	return claim
}

func intp(v int64) *int64 { return &v }

func TestCreateClaimValidation(t *testing.T) {
	f := newFixture(t, twoSteps(), nil)
	ctx := context.Background()

	_, err := f.workflow.CreateClaim(ctx, &CreateClaimRequest{ClaimedAmount: 100})
	assert.Equal(t, apperrors.ErrCodeValidation, apperrors.CodeOf(err))

	_, err = f.workflow.CreateClaim(ctx, &CreateClaimRequest{BillID: "b", ClaimedAmount: 0})
	assert.Equal(t, apperrors.ErrCodeValidation, apperrors.CodeOf(err))
}

func TestCreateClaimStartsPendingAndNotifies(t *testing.T) {
	f := newFixture(t, twoSteps(), nil)
	claim := f.createClaim(t)

	assert.Equal(t, workflow.StatusPending, claim.Status)
	assert.Equal(t, 1, *claim.CurrentStepOrder)
	assert.Contains(t, f.notifier.published(), "claim_created")
}

func TestTransitionAppendsExactlyOneAuditEntry(t *testing.T) {
	f := newFixture(t, twoSteps(), nil)
	claim := f.createClaim(t)
	ctx := context.Background()

	res, err := f.workflow.Transition(ctx, &TransitionRequest{
		ClaimID: claim.ID, ActorID: "jpo-1", ActorRole: workflow.RoleJPO,
		Action: workflow.ActionForward, Comments: "checked",
	})
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusInProgress, res.Claim.Status)
	assert.Equal(t, workflow.BillUnderReview, res.BillStatus)
	assert.Equal(t, 1, f.store.auditCount(claim.ID))

	history, err := f.workflow.History(ctx, claim.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, workflow.ActionForward, history[0].Action)
	assert.Equal(t, "jpo-1", history[0].Actor)
}

func TestRejectedTransitionLeavesNoTrace(t *testing.T) {
	f := newFixture(t, twoSteps(), nil)
	claim := f.createClaim(t)
	ctx := context.Background()

	_, err := f.workflow.Transition(ctx, &TransitionRequest{
		ClaimID: claim.ID, ActorID: "dir-1", ActorRole: workflow.RoleDirector,
		Action: workflow.ActionForward,
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeUnauthorized, apperrors.CodeOf(err))

	// Claim is byte-identical to its pre-call value; zero audit entries.
	stored, err := f.store.GetByID(ctx, claim.ID)
	require.NoError(t, err)
	assert.Equal(t, claim, stored)
	assert.Equal(t, 0, f.store.auditCount(claim.ID))
}

func TestTransitionErrorMapping(t *testing.T) {
	f := newFixture(t, twoSteps(), nil)
	claim := f.createClaim(t)
	ctx := context.Background()

	// Approve without amount.
	_, err := f.workflow.Transition(ctx, &TransitionRequest{
		ClaimID: claim.ID, ActorID: "jpo-1", ActorRole: workflow.RoleJPO,
		Action: workflow.ActionApprove,
	})
	assert.ErrorIs(t, err, workflow.ErrAmountRequired)
	assert.Equal(t, apperrors.ErrCodeValidation, apperrors.CodeOf(err))

	// Reject where the step has no authority.
	_, err = f.workflow.Transition(ctx, &TransitionRequest{
		ClaimID: claim.ID, ActorID: "jpo-1", ActorRole: workflow.RoleJPO,
		Action: workflow.ActionReject,
	})
	assert.ErrorIs(t, err, workflow.ErrRejectionNotAuthorized)
	assert.Equal(t, apperrors.ErrCodeUnauthorized, apperrors.CodeOf(err))
}

func TestFullLifecycleToApproval(t *testing.T) {
	f := newFixture(t, twoSteps(), []workflow.SanctionLimit{
		{Category: workflow.CategoryEmployee, LimitType: workflow.LimitMinor, Amount: 10000000},
	})
	claim := f.createClaim(t)
	ctx := context.Background()

	_, err := f.workflow.Transition(ctx, &TransitionRequest{
		ClaimID: claim.ID, ActorID: "jpo-1", ActorRole: workflow.RoleJPO,
		Action: workflow.ActionForward, Amount: intp(15000000),
	})
	require.NoError(t, err)

	res, err := f.workflow.Transition(ctx, &TransitionRequest{
		ClaimID: claim.ID, ActorID: "dir-1", ActorRole: workflow.RoleDirector,
		Action: workflow.ActionApprove, Amount: intp(9000000),
	})
	require.NoError(t, err)

	assert.Equal(t, workflow.StatusApproved, res.Claim.Status)
	assert.Nil(t, res.Claim.CurrentStepOrder)
	assert.Equal(t, int64(9000000), *res.Claim.SanctionedAmount)
	assert.Equal(t, workflow.BillApproved, res.BillStatus)
	assert.Equal(t, 2, f.store.auditCount(claim.ID))

	// First entry carries the advisory flag, final approval is within limit.
	history, err := f.workflow.History(ctx, claim.ID)
	require.NoError(t, err)
	assert.True(t, history[0].LimitExceeded)
	assert.False(t, history[1].LimitExceeded)

	assert.Contains(t, f.notifier.published(), "claim_approved")

	// Nothing more is accepted.
	_, err = f.workflow.Transition(ctx, &TransitionRequest{
		ClaimID: claim.ID, ActorID: "dir-1", ActorRole: workflow.RoleDirector,
		Action: workflow.ActionReject,
	})
	assert.ErrorIs(t, err, workflow.ErrAlreadyFinalized)
}

func TestMissingLimitSurfacesWarning(t *testing.T) {
	f := newFixture(t, twoSteps(), nil)
	claim := f.createClaim(t)

	res, err := f.workflow.Transition(context.Background(), &TransitionRequest{
		ClaimID: claim.ID, ActorID: "jpo-1", ActorRole: workflow.RoleJPO,
		Action: workflow.ActionForward, Amount: intp(15000000),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, res.LimitWarning)
	assert.False(t, res.Claim.IsLimitExceeded)
}

func TestClarificationRoundTripKeepsAssignee(t *testing.T) {
	f := newFixture(t, twoSteps(), nil)
	claim := f.createClaim(t)
	ctx := context.Background()

	_, err := f.alloc.Allocate(ctx, &AllocateRequest{
		ClaimID: claim.ID, AssigneeID: "jpo-1",
		AllocatedBy: "admin-1", AllocatedByRole: workflow.RoleCustomerAdmin,
	})
	require.NoError(t, err)

	res, err := f.workflow.Transition(ctx, &TransitionRequest{
		ClaimID: claim.ID, ActorID: "jpo-1", ActorRole: workflow.RoleJPO,
		Action: workflow.ActionClarify, Comments: "need lab reports",
	})
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusClarification, res.Claim.Status)
	require.NotNil(t, res.Claim.Assignee)
	assert.Equal(t, "jpo-1", *res.Claim.Assignee)

	res, err = f.workflow.Transition(ctx, &TransitionRequest{
		ClaimID: claim.ID, ActorID: "hosp-1", ActorRole: workflow.RoleHospital,
		Action: workflow.ActionRespond, Comments: "reports attached",
	})
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusInProgress, res.Claim.Status)
	assert.Equal(t, "jpo-1", *res.Claim.Assignee)
	assert.Contains(t, f.notifier.published(), "clarification_requested")
	assert.Contains(t, f.notifier.published(), "clarification_responded")
}

// Two concurrent FORWARD calls on the same claim: exactly one advances the
// step, the other observes the advanced state and fails cleanly.
func TestConcurrentForwardNeverDoubleAdvances(t *testing.T) {
	f := newFixture(t, twoSteps(), nil)
	claim := f.createClaim(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.workflow.Transition(ctx, &TransitionRequest{
				ClaimID: claim.ID, ActorID: "jpo-1", ActorRole: workflow.RoleJPO,
				Action: workflow.ActionForward,
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		}
	}
	assert.Equal(t, 1, succeeded)

	stored, err := f.store.GetByID(ctx, claim.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.CurrentStepOrder)
	assert.Equal(t, 2, *stored.CurrentStepOrder)
	assert.Equal(t, 1, f.store.auditCount(claim.ID))
}

func TestHistoryUnknownClaim(t *testing.T) {
	f := newFixture(t, twoSteps(), nil)
	_, err := f.workflow.History(context.Background(), "nope")
	assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.CodeOf(err))
}

func TestReloadConfigSwapsSnapshot(t *testing.T) {
	f := newFixture(t, twoSteps(), nil)
	claim := f.createClaim(t)
	ctx := context.Background()

	// Disable the director step; forwarding from step 1 now has no target.
	registry, err := workflow.NewStepRegistry([]workflow.Step{
		{Name: "JPO review", Order: 1, Role: workflow.RoleJPO, Active: true},
		{Name: "Director", Order: 2, Role: workflow.RoleDirector, CanReject: true, Active: false},
	})
	require.NoError(t, err)
	table, err := workflow.NewLimitTable(nil)
	require.NoError(t, err)
	f.workflow.ReloadConfig(registry, table)

	_, err = f.workflow.Transition(ctx, &TransitionRequest{
		ClaimID: claim.ID, ActorID: "jpo-1", ActorRole: workflow.RoleJPO,
		Action: workflow.ActionForward,
	})
	assert.ErrorIs(t, err, workflow.ErrNoNextStep)
}
