package service

import (
	"context"
	"sync"

	"github.com/tgnpdcl/be-wf-sanctions/internal/apperrors"
	"github.com/tgnpdcl/be-wf-sanctions/internal/workflow"
)

// memoryStore is an in-memory ClaimStore + AuditStore honoring the same
// version guard as the Postgres repository.
type memoryStore struct {
	mu      sync.Mutex
	claims  map[string]*workflow.Claim
	entries []*workflow.AuditEntry
}

func newMemoryStore() *memoryStore {
	return &memoryStore{claims: make(map[string]*workflow.Claim)}
}

func (m *memoryStore) Create(_ context.Context, c *workflow.Claim) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.claims[c.ID]; exists {
		return apperrors.New(apperrors.ErrCodeConflict, "claim already exists")
	}
	m.claims[c.ID] = c.Clone()
	return nil
}

func (m *memoryStore) GetByID(_ context.Context, id string) (*workflow.Claim, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.claims[id]
	if !ok {
		return nil, apperrors.NotFound("claim", id)
	}
	return c.Clone(), nil
}

func (m *memoryStore) CommitTransition(_ context.Context, c *workflow.Claim, expectedVersion int64, entry *workflow.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.claims[c.ID]
	if !ok {
		return apperrors.NotFound("claim", c.ID)
	}
	if stored.Version != expectedVersion {
		return apperrors.New(apperrors.ErrCodeConflict, "claim was modified concurrently")
	}
	m.claims[c.ID] = c.Clone()
	m.entries = append(m.entries, entry)
	return nil
}

func (m *memoryStore) CommitAllocation(_ context.Context, claimID, assignee string, expectedVersion int64, entry *workflow.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.claims[claimID]
	if !ok {
		return apperrors.NotFound("claim", claimID)
	}
	if stored.Version != expectedVersion {
		return apperrors.New(apperrors.ErrCodeConflict, "claim was modified concurrently")
	}
	stored.Assignee = &assignee
	stored.Version++
	m.entries = append(m.entries, entry)
	return nil
}

func (m *memoryStore) PendingForRole(_ context.Context, stepOrders []int, userID string) ([]*workflow.Claim, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	orderSet := make(map[int]bool, len(stepOrders))
	for _, o := range stepOrders {
		orderSet[o] = true
	}
	var out []*workflow.Claim
	for _, c := range m.claims {
		if c.Status.IsTerminal() || c.CurrentStepOrder == nil || !orderSet[*c.CurrentStepOrder] {
			continue
		}
		if c.Assignee == nil || *c.Assignee == userID {
			out = append(out, c.Clone())
		}
	}
	return out, nil
}

func (m *memoryStore) ListUnfinished(_ context.Context) ([]*workflow.Claim, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*workflow.Claim
	for _, c := range m.claims {
		if !c.Status.IsTerminal() {
			out = append(out, c.Clone())
		}
	}
	return out, nil
}

func (m *memoryStore) HistoryFor(_ context.Context, claimID string) ([]*workflow.AuditEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*workflow.AuditEntry
	for _, e := range m.entries {
		if e.ClaimID == claimID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memoryStore) auditCount(claimID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.entries {
		if e.ClaimID == claimID {
			n++
		}
	}
	return n
}

// fakeIdentity maps user IDs to role sets.
type fakeIdentity struct {
	roles map[string][]string
}

func (f *fakeIdentity) GetUserRoles(_ context.Context, userID string) ([]string, error) {
	return f.roles[userID], nil
}

func (f *fakeIdentity) GetUsersWithRole(_ context.Context, role string) ([]string, error) {
	var out []string
	for user, held := range f.roles {
		for _, r := range held {
			if r == role {
				out = append(out, user)
			}
		}
	}
	return out, nil
}

// fakeNotifier records published events.
type fakeNotifier struct {
	mu     sync.Mutex
	events []string
}

func (f *fakeNotifier) PublishClaimEvent(eventType, _, _, _ string, _ []string, _ map[string]interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, eventType)
}

func (f *fakeNotifier) published() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.events))
	copy(out, f.events)
	return out
}
