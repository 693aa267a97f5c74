package models

import (
	"time"

	"github.com/google/uuid"
)

type RelationshipKind string

const (
	KindCoach  RelationshipKind = "coach"
	KindParent RelationshipKind = "parent"
)

func (k RelationshipKind) Valid() bool {
	return k == KindCoach || k == KindParent
}

// InviterRole is the user role that issues invitations of this kind.
func (k RelationshipKind) InviterRole() string {
	if k == KindParent {
		return RoleParent
	}
	return RoleTrainer
}

type RelationshipStatus string

const (
	RelationshipActive  RelationshipStatus = "active"
	RelationshipRemoved RelationshipStatus = "removed"
)

func (s RelationshipStatus) Valid() bool {
	return s == RelationshipActive || s == RelationshipRemoved
}

// Relationship links party A (coach or parent) to party B (trainee or athlete).
type Relationship struct {
	ID           uuid.UUID          `json:"id"`
	PartyAID     uuid.UUID          `json:"party_a_id"`
	PartyBID     uuid.UUID          `json:"party_b_id"`
	Kind         RelationshipKind   `json:"kind"`
	InvitationID *uuid.UUID         `json:"invitation_id,omitempty"`
	Status       RelationshipStatus `json:"status"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
	Counterpart  *User              `json:"counterpart,omitempty"`
}

func (r *Relationship) HasParty(userID uuid.UUID) bool {
	return r.PartyAID == userID || r.PartyBID == userID
}

// Counterparty returns the other side of the relationship from userID.
func (r *Relationship) Counterparty(userID uuid.UUID) uuid.UUID {
	if r.PartyAID == userID {
		return r.PartyBID
	}
	return r.PartyAID
}

// LinkParams describes a relationship to materialise. Exclusive enforces the
// one-active-relationship-per-invitee rule for Kind.
type LinkParams struct {
	PartyAID     uuid.UUID
	PartyBID     uuid.UUID
	Kind         RelationshipKind
	InvitationID *uuid.UUID
	Exclusive    bool
}

// LinkResult reports the relationship that now links the parties and whether this call
// created it.
type LinkResult struct {
	Relationship *Relationship
	Created      bool
}
