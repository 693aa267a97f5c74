package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dimitrije/coachlink-api/internal/models"
	"github.com/dimitrije/coachlink-api/internal/repository"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

type RelationshipOptions struct {
	Policy         InvitePolicy
	ExclusiveKinds []models.RelationshipKind
	Observer       Observer
}

type RelationshipService struct {
	relationships RelationshipStore
	users         UserDirectory
	policy        InvitePolicy
	exclusive     map[models.RelationshipKind]bool
	observer      Observer
}

func NewRelationshipService(relationships RelationshipStore, users UserDirectory, opts RelationshipOptions) *RelationshipService {
	s := &RelationshipService{
		relationships: relationships,
		users:         users,
		policy:        opts.Policy,
		exclusive:     make(map[models.RelationshipKind]bool),
		observer:      opts.Observer,
	}
	for _, kind := range opts.ExclusiveKinds {
		s.exclusive[kind] = true
	}
	if s.policy == nil {
		s.policy = BootstrapPolicy()
	}
	if s.observer == nil {
		s.observer = nopObserver{}
	}
	return s
}

// RemoveRelationship ends an active relationship. Either party may remove it. The
// invitation that created it is left accepted.
func (s *RelationshipService) RemoveRelationship(ctx context.Context, id uuid.UUID, identity Identity) (err error) {
	ctx, span := startSpan(ctx, "RelationshipService.RemoveRelationship", attribute.String("coachlink.relationship_id", id.String()))
	defer func() { endSpan(span, err) }()

	if identity.IsZero() {
		return ErrUnauthenticated
	}

	rel, err := s.relationships.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return newError(KindNotFound, "relationship not found")
		}
		return fmt.Errorf("failed to load relationship: %w", err)
	}
	if !rel.HasParty(identity.UserID) {
		return ErrUnauthorized
	}
	if rel.Status != models.RelationshipActive {
		return ErrRelationshipInactive
	}

	removed, err := s.relationships.Transition(ctx, rel.ID, models.RelationshipActive, models.RelationshipRemoved)
	if err != nil {
		return fmt.Errorf("failed to remove relationship: %w", err)
	}
	if !removed {
		return ErrRelationshipInactive
	}
	return nil
}

// ListRelationships returns the relationships the caller is a party to, each with the
// other party attached. An empty status lists everything.
func (s *RelationshipService) ListRelationships(ctx context.Context, identity Identity, status models.RelationshipStatus) ([]models.Relationship, error) {
	if identity.IsZero() {
		return nil, ErrUnauthenticated
	}

	all, err := s.relationships.ListForUser(ctx, identity.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list relationships: %w", err)
	}
	if status == "" {
		return all, nil
	}

	relationships := make([]models.Relationship, 0, len(all))
	for _, rel := range all {
		if rel.Status == status {
			relationships = append(relationships, rel)
		}
	}
	return relationships, nil
}

// ConnectByEmail links the caller directly to an existing user, skipping the invitation
// round trip. The same invite policy and exclusivity rules apply as for redemption.
func (s *RelationshipService) ConnectByEmail(ctx context.Context, identity Identity, kind models.RelationshipKind, email string) (result *models.LinkResult, err error) {
	ctx, span := startSpan(ctx, "RelationshipService.ConnectByEmail", attribute.String("coachlink.kind", string(kind)))
	defer func() { endSpan(span, err) }()

	if identity.IsZero() {
		return nil, ErrUnauthenticated
	}
	if kind == "" {
		kind = models.KindCoach
	}
	if !kind.Valid() {
		return nil, ErrInvalidKind
	}
	if !ValidEmail(email) {
		return nil, ErrInvalidEmailFormat
	}

	inviter, err := getUser(ctx, s.users, identity.UserID)
	if err != nil {
		return nil, err
	}
	allowed, err := s.policy(ctx, inviter, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate invite policy: %w", err)
	}
	if !allowed {
		return nil, newError(KindUnauthorized, "not allowed to connect "+string(kind)+" relationships")
	}

	invitee, err := getUserByEmail(ctx, s.users, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, newError(KindNotFound, "no user with that email")
		}
		return nil, err
	}
	if invitee.ID == inviter.ID {
		return nil, newError(KindUnauthorized, "cannot connect to yourself")
	}

	result, err = s.relationships.Link(ctx, models.LinkParams{
		PartyAID:  inviter.ID,
		PartyBID:  invitee.ID,
		Kind:      kind,
		Exclusive: s.exclusive[kind],
	})
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrConflictingRelationship
		}
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newError(KindNotFound, "no user with that email")
		}
		return nil, fmt.Errorf("failed to link relationship: %w", err)
	}

	result.Relationship.Counterpart = invitee
	s.observer.RelationshipLinked(kind, result.Created)
	return result, nil
}
