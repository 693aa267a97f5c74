package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/dimitrije/coachlink-api/internal/database"
	"github.com/dimitrije/coachlink-api/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const relationshipColumns = `id, party_a_id, party_b_id, kind, invitation_id, status, created_at, updated_at`

type RelationshipRepository struct {
	db *database.DB
}

func NewRelationshipRepository(db *database.DB) *RelationshipRepository {
	return &RelationshipRepository{db: db}
}

func scanRelationship(row pgx.Row) (*models.Relationship, error) {
	var rel models.Relationship
	err := row.Scan(
		&rel.ID, &rel.PartyAID, &rel.PartyBID, &rel.Kind, &rel.InvitationID,
		&rel.Status, &rel.CreatedAt, &rel.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rel, nil
}

// Link materialises an active relationship between p.PartyAID and p.PartyBID.
//
// The invitee's user row is locked for the duration of the transaction so that the
// exclusivity check and the insert cannot interleave with another link for the same
// invitee. ErrConflict is returned when p.Exclusive is set and the invitee already has an
// active relationship of the same kind with someone else. An existing active relationship
// between the same parties is returned with Created=false.
func (r *RelationshipRepository) Link(ctx context.Context, p models.LinkParams) (*models.LinkResult, error) {
	var result *models.LinkResult
	err := r.db.WithTx(ctx, func(tx pgx.Tx) error {
		var lockedID uuid.UUID
		if err := tx.QueryRow(ctx, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, p.PartyBID).Scan(&lockedID); err != nil {
			return notFound(err)
		}

		if p.Exclusive {
			var conflict bool
			err := tx.QueryRow(ctx, `
				SELECT EXISTS(
					SELECT 1 FROM relationships
					WHERE party_b_id = $1 AND kind = $2 AND status = $3 AND party_a_id <> $4
				)
			`, p.PartyBID, p.Kind, models.RelationshipActive, p.PartyAID).Scan(&conflict)
			if err != nil {
				return fmt.Errorf("failed to check conflicting relationships: %w", err)
			}
			if conflict {
				return ErrConflict
			}
		}

		existing, err := scanRelationship(tx.QueryRow(ctx, `
			SELECT `+relationshipColumns+`
			FROM relationships
			WHERE party_a_id = $1 AND party_b_id = $2 AND kind = $3 AND status = $4
		`, p.PartyAID, p.PartyBID, p.Kind, models.RelationshipActive))
		if err == nil {
			result = &models.LinkResult{Relationship: existing}
			return nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("failed to load existing relationship: %w", err)
		}

		created, err := scanRelationship(tx.QueryRow(ctx, `
			INSERT INTO relationships (party_a_id, party_b_id, kind, invitation_id, status)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING `+relationshipColumns+`
		`, p.PartyAID, p.PartyBID, p.Kind, p.InvitationID, models.RelationshipActive))
		if err != nil {
			return fmt.Errorf("failed to create relationship: %w", err)
		}
		result = &models.LinkResult{Relationship: created, Created: true}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *RelationshipRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Relationship, error) {
	rel, err := scanRelationship(r.db.Pool.QueryRow(ctx, `
		SELECT `+relationshipColumns+`
		FROM relationships WHERE id = $1
	`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return rel, nil
}

// ActiveBetween returns the active relationship of kind from partyA to partyB.
func (r *RelationshipRepository) ActiveBetween(ctx context.Context, partyA, partyB uuid.UUID, kind models.RelationshipKind) (*models.Relationship, error) {
	rel, err := scanRelationship(r.db.Pool.QueryRow(ctx, `
		SELECT `+relationshipColumns+`
		FROM relationships
		WHERE party_a_id = $1 AND party_b_id = $2 AND kind = $3 AND status = $4
	`, partyA, partyB, kind, models.RelationshipActive))
	if err != nil {
		return nil, notFound(err)
	}
	return rel, nil
}

// GetByInvitation returns the relationship created by redeeming invitationID, whatever
// its status now.
func (r *RelationshipRepository) GetByInvitation(ctx context.Context, invitationID uuid.UUID) (*models.Relationship, error) {
	rel, err := scanRelationship(r.db.Pool.QueryRow(ctx, `
		SELECT `+relationshipColumns+`
		FROM relationships WHERE invitation_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`, invitationID))
	if err != nil {
		return nil, notFound(err)
	}
	return rel, nil
}

// Transition moves a relationship from one status to another, returning false when the
// row was no longer in from.
func (r *RelationshipRepository) Transition(ctx context.Context, id uuid.UUID, from, to models.RelationshipStatus) (bool, error) {
	result, err := r.db.Pool.Exec(ctx, `
		UPDATE relationships SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
	`, id, from, to)
	if err != nil {
		return false, fmt.Errorf("failed to transition relationship: %w", err)
	}
	return result.RowsAffected() == 1, nil
}

// HasActiveAsInviter reports whether userID is party A of any active relationship.
func (r *RelationshipRepository) HasActiveAsInviter(ctx context.Context, userID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.Pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM relationships WHERE party_a_id = $1 AND status = $2)
	`, userID, models.RelationshipActive).Scan(&exists)
	return exists, err
}

// ListForUser returns every relationship userID is a party to, with the other party's
// profile attached as Counterpart.
func (r *RelationshipRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Relationship, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT r.id, r.party_a_id, r.party_b_id, r.kind, r.invitation_id, r.status, r.created_at, r.updated_at,
		       u.id, u.email, u.name, u.role, u.created_at, u.updated_at
		FROM relationships r
		JOIN users u ON u.id = CASE WHEN r.party_a_id = $1 THEN r.party_b_id ELSE r.party_a_id END
		WHERE r.party_a_id = $1 OR r.party_b_id = $1
		ORDER BY r.created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var relationships []models.Relationship
	for rows.Next() {
		var rel models.Relationship
		var user models.User
		if err := rows.Scan(
			&rel.ID, &rel.PartyAID, &rel.PartyBID, &rel.Kind, &rel.InvitationID, &rel.Status, &rel.CreatedAt, &rel.UpdatedAt,
			&user.ID, &user.Email, &user.Name, &user.Role, &user.CreatedAt, &user.UpdatedAt,
		); err != nil {
			return nil, err
		}
		rel.Counterpart = &user
		relationships = append(relationships, rel)
	}
	return relationships, rows.Err()
}
