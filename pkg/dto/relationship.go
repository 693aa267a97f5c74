package dto

import (
	"time"

	"github.com/google/uuid"
)

type ConnectRequest struct {
	Kind  string `json:"kind"`
	Email string `json:"email"`
}

type RelationshipResponse struct {
	ID           uuid.UUID           `json:"id"`
	Kind         string              `json:"kind"`
	Status       string              `json:"status"`
	Role         string              `json:"role"`
	InvitationID *uuid.UUID          `json:"invitation_id,omitempty"`
	Counterpart  *PublicUserResponse `json:"counterpart,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

type ConnectResponse struct {
	Relationship RelationshipResponse `json:"relationship"`
	Created      bool                 `json:"created"`
}
