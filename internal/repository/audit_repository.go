package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/tgnpdcl/be-wf-sanctions/internal/apperrors"
	"github.com/tgnpdcl/be-wf-sanctions/internal/database"
	"github.com/tgnpdcl/be-wf-sanctions/internal/workflow"
)

// AuditRepository reads the append-only approval audit log. Entries are
// written by ClaimRepository inside the same transaction as the state change
// they record; the table carries a delete-prevention trigger, so no mutation
// surface is exposed here.
type AuditRepository struct {
	db *database.DB
}

// NewAuditRepository creates a new AuditRepository.
func NewAuditRepository(db *database.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// appendAuditTx inserts one audit entry within an open transaction. The seq
// column is a table-wide bigserial: it breaks timestamp ties in insertion
// order so a claim's history is always totally ordered.
func appendAuditTx(ctx context.Context, tx pgx.Tx, entry *workflow.AuditEntry) error {
	query := `
		INSERT INTO approval_audit_log
		    (id, claim_id, step_order, step_name,
		     actor, actor_role, action,
		     comments, amount_at_stage, limit_exceeded, created_at)
		VALUES ($1, $2, $3, $4,
		        $5, $6, $7,
		        $8, $9, $10, $11)
	`

	_, err := tx.Exec(ctx, query,
		entry.ID,
		entry.ClaimID,
		entry.StepOrder,
		entry.StepName,
		entry.Actor,
		entry.ActorRole,
		entry.Action,
		entry.Comments,
		entry.AmountAtStage,
		entry.LimitExceeded,
		entry.Timestamp,
	)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to append audit entry")
	}
	return nil
}

// HistoryFor returns a claim's full audit trail oldest-first, timestamp ties
// broken by insertion order.
func (r *AuditRepository) HistoryFor(ctx context.Context, claimID string) ([]*workflow.AuditEntry, error) {
	query := `
		SELECT id, claim_id, step_order, step_name,
		       actor, actor_role, action,
		       comments, amount_at_stage, limit_exceeded, created_at
		FROM approval_audit_log
		WHERE claim_id = $1
		ORDER BY created_at ASC, seq ASC
	`

	rows, err := r.db.Query(ctx, query, claimID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to get audit history")
	}
	defer rows.Close()

	var entries []*workflow.AuditEntry
	for rows.Next() {
		entry := &workflow.AuditEntry{}
		err := rows.Scan(
			&entry.ID,
			&entry.ClaimID,
			&entry.StepOrder,
			&entry.StepName,
			&entry.Actor,
			&entry.ActorRole,
			&entry.Action,
			&entry.Comments,
			&entry.AmountAtStage,
			&entry.LimitExceeded,
			&entry.Timestamp,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to scan audit entry")
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
