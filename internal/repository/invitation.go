package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/dimitrije/coachlink-api/internal/database"
	"github.com/dimitrije/coachlink-api/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const invitationColumns = `id, inviter_id, kind, code, restricted_email, status, expires_at,
	accepted_at, accepted_by_user_id, created_at, updated_at`

type InvitationRepository struct {
	db *database.DB
}

func NewInvitationRepository(db *database.DB) *InvitationRepository {
	return &InvitationRepository{db: db}
}

func scanInvitation(row pgx.Row) (*models.Invitation, error) {
	var inv models.Invitation
	err := row.Scan(
		&inv.ID, &inv.InviterID, &inv.Kind, &inv.Code, &inv.RestrictedEmail, &inv.Status, &inv.ExpiresAt,
		&inv.AcceptedAt, &inv.AcceptedByUserID, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// Create inserts a pending invitation and fills in its id and timestamps.
func (r *InvitationRepository) Create(ctx context.Context, inv *models.Invitation) error {
	err := r.db.Pool.QueryRow(ctx, `
		INSERT INTO invitations (inviter_id, kind, code, restricted_email, status, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`, inv.InviterID, inv.Kind, inv.Code, inv.RestrictedEmail, models.InvitationPending, inv.ExpiresAt).Scan(
		&inv.ID, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, pendingCodeIndex) {
			return ErrDuplicateCode
		}
		return fmt.Errorf("failed to create invitation: %w", err)
	}
	inv.Status = models.InvitationPending
	return nil
}

func (r *InvitationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Invitation, error) {
	inv, err := scanInvitation(r.db.Pool.QueryRow(ctx, `
		SELECT `+invitationColumns+`
		FROM invitations WHERE id = $1
	`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return inv, nil
}

// GetByCode returns the invitation holding code. A pending holder wins; otherwise the most
// recent terminal invitation that used the code is returned.
func (r *InvitationRepository) GetByCode(ctx context.Context, code string) (*models.Invitation, error) {
	inv, err := scanInvitation(r.db.Pool.QueryRow(ctx, `
		SELECT `+invitationColumns+`
		FROM invitations WHERE upper(code) = upper($1)
		ORDER BY (status = $2) DESC, created_at DESC
		LIMIT 1
	`, code, models.InvitationPending))
	if err != nil {
		return nil, notFound(err)
	}
	return inv, nil
}

// Transition applies t only if the invitation is still in t.From. It returns false when
// another writer changed the row first, and ErrDuplicateCode when moving back to pending
// would collide with a newer pending invitation holding the same code.
func (r *InvitationRepository) Transition(ctx context.Context, t models.InvitationTransition) (bool, error) {
	result, err := r.db.Pool.Exec(ctx, `
		UPDATE invitations
		SET status = $3, accepted_at = $4, accepted_by_user_id = $5, updated_at = NOW()
		WHERE id = $1 AND status = $2 AND ($6::uuid IS NULL OR accepted_by_user_id = $6)
	`, t.ID, t.From, t.To, t.AcceptedAt, t.AcceptedByUserID, t.ExpectAcceptedBy)
	if err != nil {
		if isUniqueViolation(err, pendingCodeIndex) {
			return false, ErrDuplicateCode
		}
		return false, fmt.Errorf("failed to transition invitation: %w", err)
	}
	return result.RowsAffected() == 1, nil
}

func (r *InvitationRepository) ListByInviter(ctx context.Context, inviterID uuid.UUID) ([]models.Invitation, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+invitationColumns+`
		FROM invitations WHERE inviter_id = $1
		ORDER BY created_at DESC
	`, inviterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invitations []models.Invitation
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, err
		}
		invitations = append(invitations, *inv)
	}
	return invitations, rows.Err()
}

// ExpirePending moves every pending invitation past its expiry to expired.
func (r *InvitationRepository) ExpirePending(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.Pool.Exec(ctx, `
		UPDATE invitations SET status = $1, updated_at = NOW()
		WHERE status = $2 AND expires_at < $3
	`, models.InvitationExpired, models.InvitationPending, now)
	if err != nil {
		return 0, fmt.Errorf("failed to expire invitations: %w", err)
	}
	return result.RowsAffected(), nil
}
