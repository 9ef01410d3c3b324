package repository

import (
	"context"

	"github.com/tgnpdcl/be-wf-sanctions/internal/apperrors"
	"github.com/tgnpdcl/be-wf-sanctions/internal/database"
	"github.com/tgnpdcl/be-wf-sanctions/internal/workflow"
)

// ConfigRepository loads the read-mostly workflow configuration tables.
// Steps and limits are maintained by an external administration tool; this
// service only reads them, at startup and on explicit reload.
type ConfigRepository struct {
	db *database.DB
}

// NewConfigRepository creates a new ConfigRepository.
func NewConfigRepository(db *database.DB) *ConfigRepository {
	return &ConfigRepository{db: db}
}

// LoadSteps builds a validated step registry snapshot from workflow_steps.
func (r *ConfigRepository) LoadSteps(ctx context.Context) (*workflow.StepRegistry, error) {
	query := `
		SELECT name, step_order, role_name, can_reject, can_approve_final, is_active
		FROM workflow_steps
		ORDER BY step_order ASC
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to load workflow steps")
	}
	defer rows.Close()

	var steps []workflow.Step
	for rows.Next() {
		var s workflow.Step
		if err := rows.Scan(&s.Name, &s.Order, &s.Role, &s.CanReject, &s.CanApproveFinal, &s.Active); err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to scan workflow step")
		}
		steps = append(steps, s)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to load workflow steps")
	}

	registry, err := workflow.NewStepRegistry(steps)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeValidation, "workflow step configuration is invalid")
	}
	return registry, nil
}

// LoadLimits builds a sanction limit snapshot from sanction_limits.
func (r *ConfigRepository) LoadLimits(ctx context.Context) (*workflow.LimitTable, error) {
	query := `
		SELECT category, limit_type, amount
		FROM sanction_limits
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to load sanction limits")
	}
	defer rows.Close()

	var limits []workflow.SanctionLimit
	for rows.Next() {
		var l workflow.SanctionLimit
		if err := rows.Scan(&l.Category, &l.LimitType, &l.Amount); err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to scan sanction limit")
		}
		limits = append(limits, l)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to load sanction limits")
	}

	table, err := workflow.NewLimitTable(limits)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeValidation, "sanction limit configuration is invalid")
	}
	return table, nil
}
