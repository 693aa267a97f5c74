package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dimitrije/coachlink-api/internal/models"
	"github.com/dimitrije/coachlink-api/internal/repository"
	"github.com/google/uuid"
)

type InvitationStore interface {
	Create(ctx context.Context, inv *models.Invitation) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Invitation, error)
	GetByCode(ctx context.Context, code string) (*models.Invitation, error)
	Transition(ctx context.Context, t models.InvitationTransition) (bool, error)
	ListByInviter(ctx context.Context, inviterID uuid.UUID) ([]models.Invitation, error)
	ExpirePending(ctx context.Context, now time.Time) (int64, error)
}

type RelationshipStore interface {
	Link(ctx context.Context, p models.LinkParams) (*models.LinkResult, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Relationship, error)
	ActiveBetween(ctx context.Context, partyA, partyB uuid.UUID, kind models.RelationshipKind) (*models.Relationship, error)
	GetByInvitation(ctx context.Context, invitationID uuid.UUID) (*models.Relationship, error)
	Transition(ctx context.Context, id uuid.UUID, from, to models.RelationshipStatus) (bool, error)
	HasActiveAsInviter(ctx context.Context, userID uuid.UUID) (bool, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Relationship, error)
}

// UserDirectory resolves identities to profiles. Lookups return ErrNotFound for unknown
// users.
type UserDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	SetRole(ctx context.Context, id uuid.UUID, role string) error
}

// Observer receives domain events for metrics.
type Observer interface {
	InvitationIssued(kind models.RelationshipKind)
	RedemptionFailed(kind Kind)
	RelationshipLinked(kind models.RelationshipKind, created bool)
	InvitationsSwept(count int64)
}

type nopObserver struct{}

func (nopObserver) InvitationIssued(models.RelationshipKind)         {}
func (nopObserver) RedemptionFailed(Kind)                            {}
func (nopObserver) RelationshipLinked(models.RelationshipKind, bool) {}
func (nopObserver) InvitationsSwept(int64)                           {}

// Identity is the authenticated caller as asserted by the access token.
type Identity struct {
	UserID uuid.UUID
	Email  string
}

func (i Identity) IsZero() bool {
	return i.UserID == uuid.Nil
}

func getUser(ctx context.Context, users UserDirectory, id uuid.UUID) (*models.User, error) {
	user, err := users.GetByID(ctx, id)
	if err != nil {
		return nil, userLookupError(err)
	}
	return user, nil
}

func getUserByEmail(ctx context.Context, users UserDirectory, email string) (*models.User, error) {
	user, err := users.GetByEmail(ctx, email)
	if err != nil {
		return nil, userLookupError(err)
	}
	return user, nil
}

func userLookupError(err error) error {
	if errors.Is(err, repository.ErrNotFound) || errors.Is(err, ErrNotFound) {
		return newError(KindNotFound, "user not found")
	}
	return fmt.Errorf("failed to load user: %w", err)
}
