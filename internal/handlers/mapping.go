package handlers

import (
	"github.com/dimitrije/coachlink-api/internal/models"
	"github.com/dimitrije/coachlink-api/pkg/dto"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

func toUserResponse(u *models.User) dto.UserResponse {
	return dto.UserResponse{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role}
}

func toPublicUser(u *models.User) *dto.PublicUserResponse {
	if u == nil {
		return nil
	}
	return &dto.PublicUserResponse{ID: u.ID, Name: u.Name}
}

func toInvitationResponse(inv models.Invitation) dto.InvitationResponse {
	return dto.InvitationResponse{
		ID:               inv.ID,
		Kind:             string(inv.Kind),
		Code:             inv.Code,
		RestrictedEmail:  inv.RestrictedEmail,
		Status:           string(inv.Status),
		ExpiresAt:        inv.ExpiresAt,
		AcceptedAt:       inv.AcceptedAt,
		AcceptedByUserID: inv.AcceptedByUserID,
		CreatedAt:        inv.CreatedAt,
		Inviter:          toPublicUser(inv.Inviter),
	}
}

func toInvitationResponses(invitations []models.Invitation) []dto.InvitationResponse {
	return lo.Map(invitations, func(inv models.Invitation, _ int) dto.InvitationResponse {
		return toInvitationResponse(inv)
	})
}

// toRelationshipResponse describes rel from viewer's side: role is "inviter" when the
// viewer is party A.
func toRelationshipResponse(rel models.Relationship, viewer uuid.UUID) dto.RelationshipResponse {
	return dto.RelationshipResponse{
		ID:           rel.ID,
		Kind:         string(rel.Kind),
		Status:       string(rel.Status),
		Role:         lo.Ternary(rel.PartyAID == viewer, "inviter", "invitee"),
		InvitationID: rel.InvitationID,
		Counterpart:  toPublicUser(rel.Counterpart),
		CreatedAt:    rel.CreatedAt,
		UpdatedAt:    rel.UpdatedAt,
	}
}

func toRelationshipResponses(relationships []models.Relationship, viewer uuid.UUID) []dto.RelationshipResponse {
	return lo.Map(relationships, func(rel models.Relationship, _ int) dto.RelationshipResponse {
		return toRelationshipResponse(rel, viewer)
	})
}
