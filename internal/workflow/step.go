package workflow

import (
	"fmt"
	"sort"
)

// Step is one ordered stage of the approval sequence.
type Step struct {
	Name            string
	Order           int
	Role            Role
	CanReject       bool
	CanApproveFinal bool
	Active          bool
}

// StepRegistry is an immutable snapshot of the configured workflow steps,
// sorted by ascending order. Disabled steps are retained for audit display
// but skipped when computing the next step. Safe for unsynchronized
// concurrent reads; reloads replace the whole snapshot.
type StepRegistry struct {
	steps  []Step // ascending order, active and inactive
	byRole map[Role][]Step
}

// NewStepRegistry validates and indexes the configured steps. Duplicate
// active orders and non-positive orders are configuration errors.
func NewStepRegistry(steps []Step) (*StepRegistry, error) {
	sorted := make([]Step, len(steps))
	copy(sorted, steps)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Order < sorted[j].Order })

	seen := make(map[int]bool, len(sorted))
	byRole := make(map[Role][]Step)
	for _, s := range sorted {
		if s.Order <= 0 {
			return nil, fmt.Errorf("%w: step %q has non-positive order %d", ErrInvalidStepConfig, s.Name, s.Order)
		}
		if !s.Role.IsApprover() {
			return nil, fmt.Errorf("%w: step %q bound to non-approver role %q", ErrInvalidStepConfig, s.Name, s.Role)
		}
		if s.Active {
			if seen[s.Order] {
				return nil, fmt.Errorf("%w: duplicate active order %d", ErrInvalidStepConfig, s.Order)
			}
			seen[s.Order] = true
			byRole[s.Role] = append(byRole[s.Role], s)
		}
	}

	return &StepRegistry{steps: sorted, byRole: byRole}, nil
}

// FirstActive returns the entry step of the workflow.
func (r *StepRegistry) FirstActive() (Step, bool) {
	for _, s := range r.steps {
		if s.Active {
			return s, true
		}
	}
	return Step{}, false
}

// NextActiveAfter returns the first active step with a strictly greater
// order, or false at the end of the sequence.
func (r *StepRegistry) NextActiveAfter(order int) (Step, bool) {
	for _, s := range r.steps {
		if s.Active && s.Order > order {
			return s, true
		}
	}
	return Step{}, false
}

// ByOrder returns the active step at the given order.
func (r *StepRegistry) ByOrder(order int) (Step, bool) {
	for _, s := range r.steps {
		if s.Active && s.Order == order {
			return s, true
		}
	}
	return Step{}, false
}

// StepsForRole returns the active steps bound to a role, ascending by order.
// A role may legitimately review at more than one point in the sequence.
func (r *StepRegistry) StepsForRole(role Role) []Step {
	out := make([]Step, len(r.byRole[role]))
	copy(out, r.byRole[role])
	return out
}

// Active returns all active steps ascending by order.
func (r *StepRegistry) Active() []Step {
	var out []Step
	for _, s := range r.steps {
		if s.Active {
			out = append(out, s)
		}
	}
	return out
}
