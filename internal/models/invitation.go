package models

import (
	"time"

	"github.com/google/uuid"
)

type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationRevoked  InvitationStatus = "revoked"
	InvitationExpired  InvitationStatus = "expired"
)

func (s InvitationStatus) Terminal() bool {
	return s == InvitationAccepted || s == InvitationRevoked || s == InvitationExpired
}

func (s InvitationStatus) Valid() bool {
	return s == InvitationPending || s.Terminal()
}

type Invitation struct {
	ID               uuid.UUID        `json:"id"`
	InviterID        uuid.UUID        `json:"inviter_id"`
	Kind             RelationshipKind `json:"kind"`
	Code             string           `json:"code"`
	RestrictedEmail  *string          `json:"restricted_email,omitempty"`
	Status           InvitationStatus `json:"status"`
	ExpiresAt        time.Time        `json:"expires_at"`
	AcceptedAt       *time.Time       `json:"accepted_at,omitempty"`
	AcceptedByUserID *uuid.UUID       `json:"accepted_by_user_id,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
	Inviter          *User            `json:"inviter,omitempty"`
}

// IsExpired reports whether the invitation is past its expiry at now. The stored
// status is only a hint; expires_at decides.
func (i *Invitation) IsExpired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}

// EffectiveStatus is the status a reader should observe at now.
func (i *Invitation) EffectiveStatus(now time.Time) InvitationStatus {
	if i.Status == InvitationPending && i.IsExpired(now) {
		return InvitationExpired
	}
	return i.Status
}

func (i *Invitation) AcceptedBy(userID uuid.UUID) bool {
	return i.Status == InvitationAccepted && i.AcceptedByUserID != nil && *i.AcceptedByUserID == userID
}

// InvitationTransition describes a compare-and-swap on an invitation's status. The swap
// applies only while the row still has status From (and, when set, was accepted by
// ExpectAcceptedBy).
type InvitationTransition struct {
	ID               uuid.UUID
	From             InvitationStatus
	To               InvitationStatus
	ExpectAcceptedBy *uuid.UUID
	AcceptedAt       *time.Time
	AcceptedByUserID *uuid.UUID
}
