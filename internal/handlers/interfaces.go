package handlers

import (
	"context"
	"time"

	"github.com/dimitrije/coachlink-api/internal/models"
	"github.com/dimitrije/coachlink-api/internal/services"
	"github.com/dimitrije/coachlink-api/internal/sse"
	"github.com/google/uuid"
)

// InvitationServiceInterface defines the methods used by handlers from InvitationService
type InvitationServiceInterface interface {
	CreateInvitation(ctx context.Context, identity services.Identity, input services.CreateInvitationInput) (*models.Invitation, error)
	ValidateCode(ctx context.Context, code string) (*models.Invitation, error)
	AcceptInvitation(ctx context.Context, code string, identity services.Identity) (*services.AcceptResult, error)
	RevokeInvitation(ctx context.Context, id uuid.UUID, identity services.Identity) error
	ListInvitations(ctx context.Context, identity services.Identity, status models.InvitationStatus) ([]models.Invitation, error)
	GetInvitation(ctx context.Context, id uuid.UUID, identity services.Identity) (*models.Invitation, error)
}

// RelationshipServiceInterface defines the methods used by handlers from RelationshipService
type RelationshipServiceInterface interface {
	RemoveRelationship(ctx context.Context, id uuid.UUID, identity services.Identity) error
	ListRelationships(ctx context.Context, identity services.Identity, status models.RelationshipStatus) ([]models.Relationship, error)
	ConnectByEmail(ctx context.Context, identity services.Identity, kind models.RelationshipKind, email string) (*models.LinkResult, error)
}

// UserServiceInterface defines the methods used by handlers from UserService
type UserServiceInterface interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	Update(ctx context.Context, id uuid.UUID, name string) (*models.User, error)
}

// InvitationMailer delivers codes for email-restricted invitations
type InvitationMailer interface {
	IsConfigured() bool
	SendInvitationCode(to, inviterName, kind, code string, expiresAt time.Time) error
}

// Notifier pushes an event to every open stream of userID
type Notifier interface {
	Publish(userID uuid.UUID, event sse.Event) bool
}
