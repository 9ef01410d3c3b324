package service

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/tgnpdcl/be-wf-sanctions/internal/workflow"
)

// ClaimStore is the persistence surface the services need for claims.
// Implemented by repository.ClaimRepository; tests use in-memory fakes.
// Commit methods persist the state change and its audit entry atomically,
// guarded by the expected version.
type ClaimStore interface {
	Create(ctx context.Context, c *workflow.Claim) error
	GetByID(ctx context.Context, id string) (*workflow.Claim, error)
	CommitTransition(ctx context.Context, c *workflow.Claim, expectedVersion int64, entry *workflow.AuditEntry) error
	CommitAllocation(ctx context.Context, claimID, assignee string, expectedVersion int64, entry *workflow.AuditEntry) error
	PendingForRole(ctx context.Context, stepOrders []int, userID string) ([]*workflow.Claim, error)
	ListUnfinished(ctx context.Context) ([]*workflow.Claim, error)
}

// AuditStore reads the append-only audit trail.
type AuditStore interface {
	HistoryFor(ctx context.Context, claimID string) ([]*workflow.AuditEntry, error)
}

// IdentityClientInterface resolves users and roles from the identity service.
type IdentityClientInterface interface {
	GetUserRoles(ctx context.Context, userID string) ([]string, error)
	GetUsersWithRole(ctx context.Context, role string) ([]string, error)
}

// Notifier is the external notification sink. Implementations must be
// non-fatal: delivery failures never surface to workflow callers.
type Notifier interface {
	PublishClaimEvent(eventType, claimID, billID, actorID string, recipients []string, payload map[string]interface{})
}

// EngineProvider holds the current configuration snapshot behind an atomic
// pointer. Reads are lock-free; an administrative reload swaps the whole
// engine rather than mutating tables in place.
type EngineProvider struct {
	ptr atomic.Pointer[workflow.Engine]
}

// NewEngineProvider wraps an initial engine snapshot.
func NewEngineProvider(e *workflow.Engine) *EngineProvider {
	p := &EngineProvider{}
	p.ptr.Store(e)
	return p
}

// Current returns the active engine snapshot.
func (p *EngineProvider) Current() *workflow.Engine { return p.ptr.Load() }

// Replace atomically swaps in a new snapshot.
func (p *EngineProvider) Replace(e *workflow.Engine) { p.ptr.Store(e) }

// ClaimLocks serializes in-process operations per claim ID so a transition
// and an allocation on the same claim never interleave. Cross-process safety
// comes from the store's version guard; this lock keeps the common
// single-process case free of spurious version conflicts.
type ClaimLocks struct {
	mu    sync.Mutex
	locks map[string]*claimLock
}

type claimLock struct {
	mu   sync.Mutex
	refs int
}

// NewClaimLocks creates an empty lock set.
func NewClaimLocks() *ClaimLocks {
	return &ClaimLocks{locks: make(map[string]*claimLock)}
}

// Lock acquires the lock for a claim ID and returns its release func.
func (c *ClaimLocks) Lock(claimID string) func() {
	c.mu.Lock()
	l, ok := c.locks[claimID]
	if !ok {
		l = &claimLock{}
		c.locks[claimID] = l
	}
	l.refs++
	c.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		c.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(c.locks, claimID)
		}
		c.mu.Unlock()
	}
}
