package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateInvitationRequest struct {
	Kind            string `json:"kind"`
	RestrictedEmail string `json:"restricted_email"`
	TTLDays         int    `json:"ttl_days"`
}

type InvitationResponse struct {
	ID               uuid.UUID           `json:"id"`
	Kind             string              `json:"kind"`
	Code             string              `json:"code"`
	RestrictedEmail  *string             `json:"restricted_email,omitempty"`
	Status           string              `json:"status"`
	ExpiresAt        time.Time           `json:"expires_at"`
	AcceptedAt       *time.Time          `json:"accepted_at,omitempty"`
	AcceptedByUserID *uuid.UUID          `json:"accepted_by_user_id,omitempty"`
	CreatedAt        time.Time           `json:"created_at"`
	Inviter          *PublicUserResponse `json:"inviter,omitempty"`
}

// CodeValidationResponse describes a redeemable code to the prospective invitee. It
// carries no code and no invitation id.
type CodeValidationResponse struct {
	Kind            string              `json:"kind"`
	RestrictedEmail *string             `json:"restricted_email,omitempty"`
	ExpiresAt       time.Time           `json:"expires_at"`
	Inviter         *PublicUserResponse `json:"inviter,omitempty"`
}

type AcceptInvitationResponse struct {
	Relationship RelationshipResponse `json:"relationship"`
	Created      bool                 `json:"created"`
}
