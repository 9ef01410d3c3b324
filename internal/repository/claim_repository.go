package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/tgnpdcl/be-wf-sanctions/internal/apperrors"
	"github.com/tgnpdcl/be-wf-sanctions/internal/database"
	"github.com/tgnpdcl/be-wf-sanctions/internal/workflow"
)

// ClaimRepository persists sanction claims. State changes and their audit
// entries are always written together in a single transaction, guarded by a
// version check so concurrent writers cannot double-apply a transition.
type ClaimRepository struct {
	db *database.DB
}

// NewClaimRepository creates a new ClaimRepository.
func NewClaimRepository(db *database.DB) *ClaimRepository {
	return &ClaimRepository{db: db}
}

const claimColumns = `
	id, bill_id, hospital_name, patient_name,
	category, limit_type,
	claimed_amount, sanctioned_amount,
	current_step_order, assignee,
	status, is_limit_exceeded, version,
	created_at, updated_at
`

// Create inserts a freshly initialized claim.
func (r *ClaimRepository) Create(ctx context.Context, c *workflow.Claim) error {
	query := `
		INSERT INTO sanction_claims
		    (id, bill_id, hospital_name, patient_name,
		     category, limit_type,
		     claimed_amount, sanctioned_amount,
		     current_step_order, assignee,
		     status, is_limit_exceeded, version,
		     created_at, updated_at)
		VALUES ($1, $2, $3, $4,
		        $5, $6,
		        $7, $8,
		        $9, $10,
		        $11::claim_status, $12, $13,
		        $14, $15)
	`

	_, err := r.db.Exec(ctx, query,
		c.ID,
		c.BillID,
		c.HospitalName,
		c.PatientName,
		c.Category,
		c.LimitType,
		c.ClaimedAmount,
		c.SanctionedAmount,
		c.CurrentStepOrder,
		c.Assignee,
		c.Status,
		c.IsLimitExceeded,
		c.Version,
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to create claim")
	}
	return nil
}

// GetByID retrieves a claim by its primary key.
func (r *ClaimRepository) GetByID(ctx context.Context, id string) (*workflow.Claim, error) {
	query := `SELECT ` + claimColumns + ` FROM sanction_claims WHERE id = $1`

	c, err := scanClaim(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound("claim", id)
	}
	return c, err
}

// CommitTransition atomically persists the post-transition claim and appends
// its audit entry. The update is guarded by expectedVersion: when another
// transition committed first, nothing is written and a CONFLICT is returned
// so the caller can re-read and observe the advanced state.
func (r *ClaimRepository) CommitTransition(
	ctx context.Context,
	c *workflow.Claim,
	expectedVersion int64,
	entry *workflow.AuditEntry,
) error {
	return r.db.InTransaction(ctx, func(tx pgx.Tx) error {
		query := `
			UPDATE sanction_claims
			SET sanctioned_amount  = $3,
			    current_step_order = $4,
			    assignee           = $5,
			    status             = $6::claim_status,
			    is_limit_exceeded  = $7,
			    version            = $8,
			    updated_at         = $9
			WHERE id = $1 AND version = $2
			RETURNING id
		`

		var returnedID string
		err := tx.QueryRow(ctx, query,
			c.ID,
			expectedVersion,
			c.SanctionedAmount,
			c.CurrentStepOrder,
			c.Assignee,
			c.Status,
			c.IsLimitExceeded,
			c.Version,
			c.UpdatedAt,
		).Scan(&returnedID)
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.New(apperrors.ErrCodeConflict, "claim was modified concurrently")
		}
		if err != nil {
			return apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to update claim")
		}

		return appendAuditTx(ctx, tx, entry)
	})
}

// CommitAllocation sets the assignee and appends the allocation audit entry
// in one transaction, with the same version guard as CommitTransition.
func (r *ClaimRepository) CommitAllocation(
	ctx context.Context,
	claimID, assignee string,
	expectedVersion int64,
	entry *workflow.AuditEntry,
) error {
	return r.db.InTransaction(ctx, func(tx pgx.Tx) error {
		query := `
			UPDATE sanction_claims
			SET assignee   = $3,
			    version    = version + 1,
			    updated_at = NOW()
			WHERE id = $1 AND version = $2
			RETURNING id
		`

		var returnedID string
		err := tx.QueryRow(ctx, query, claimID, expectedVersion, assignee).Scan(&returnedID)
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.New(apperrors.ErrCodeConflict, "claim was modified concurrently")
		}
		if err != nil {
			return apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to allocate claim")
		}

		return appendAuditTx(ctx, tx, entry)
	})
}

// PendingForRole returns claims sitting at any of the given step orders that
// are visible to userID: assigned to them, or not yet assigned at all.
func (r *ClaimRepository) PendingForRole(ctx context.Context, stepOrders []int, userID string) ([]*workflow.Claim, error) {
	query := `
		SELECT ` + claimColumns + `
		FROM sanction_claims
		WHERE current_step_order = ANY($1)
		  AND status IN ('PENDING', 'IN_PROGRESS', 'CLARIFICATION')
		  AND (assignee = $2 OR assignee IS NULL)
		ORDER BY created_at ASC
	`

	rows, err := r.db.Query(ctx, query, stepOrders, userID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to query pending claims")
	}
	defer rows.Close()

	return scanClaimRows(rows)
}

// ListUnfinished returns every non-terminal claim, newest first. Used by the
// admin allocation view.
func (r *ClaimRepository) ListUnfinished(ctx context.Context) ([]*workflow.Claim, error) {
	query := `
		SELECT ` + claimColumns + `
		FROM sanction_claims
		WHERE status NOT IN ('APPROVED', 'REJECTED')
		ORDER BY created_at DESC
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to list unfinished claims")
	}
	defer rows.Close()

	return scanClaimRows(rows)
}

// ── scan helpers ──────────────────────────────────────────────────────────────

type claimScanner interface {
	Scan(dest ...any) error
}

func scanClaim(row claimScanner) (*workflow.Claim, error) {
	c := &workflow.Claim{}
	err := row.Scan(
		&c.ID,
		&c.BillID,
		&c.HospitalName,
		&c.PatientName,
		&c.Category,
		&c.LimitType,
		&c.ClaimedAmount,
		&c.SanctionedAmount,
		&c.CurrentStepOrder,
		&c.Assignee,
		&c.Status,
		&c.IsLimitExceeded,
		&c.Version,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func scanClaimRows(rows pgx.Rows) ([]*workflow.Claim, error) {
	var claims []*workflow.Claim
	for rows.Next() {
		c, err := scanClaim(rows)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to scan claim")
		}
		claims = append(claims, c)
	}
	return claims, rows.Err()
}
