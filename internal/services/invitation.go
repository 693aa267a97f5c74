package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dimitrije/coachlink-api/internal/models"
	"github.com/dimitrije/coachlink-api/internal/repository"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const (
	DefaultTTLDays = 7
	MaxTTLDays     = 30
)

type InvitationOptions struct {
	Policy          InvitePolicy
	PromoteOnInvite bool
	ExclusiveKinds  []models.RelationshipKind
	DefaultTTLDays  int
	Codes           *CodeGenerator
	Observer        Observer
	Logger          *zap.SugaredLogger
	Now             func() time.Time
}

type InvitationService struct {
	invitations     InvitationStore
	relationships   RelationshipStore
	users           UserDirectory
	policy          InvitePolicy
	promoteOnInvite bool
	exclusive       map[models.RelationshipKind]bool
	defaultTTLDays  int
	codes           *CodeGenerator
	observer        Observer
	logger          *zap.SugaredLogger
	now             func() time.Time
}

func NewInvitationService(invitations InvitationStore, relationships RelationshipStore, users UserDirectory, opts InvitationOptions) *InvitationService {
	s := &InvitationService{
		invitations:     invitations,
		relationships:   relationships,
		users:           users,
		policy:          opts.Policy,
		promoteOnInvite: opts.PromoteOnInvite,
		exclusive:       make(map[models.RelationshipKind]bool),
		defaultTTLDays:  opts.DefaultTTLDays,
		codes:           opts.Codes,
		observer:        opts.Observer,
		logger:          opts.Logger,
		now:             opts.Now,
	}
	for _, kind := range opts.ExclusiveKinds {
		s.exclusive[kind] = true
	}
	if s.policy == nil {
		s.policy = BootstrapPolicy()
	}
	if s.defaultTTLDays == 0 {
		s.defaultTTLDays = DefaultTTLDays
	}
	if s.codes == nil {
		s.codes = NewCodeGenerator(nil)
	}
	if s.observer == nil {
		s.observer = nopObserver{}
	}
	if s.logger == nil {
		s.logger = zap.NewNop().Sugar()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// IsExclusive reports whether an invitee may hold only one active relationship of kind.
func (s *InvitationService) IsExclusive(kind models.RelationshipKind) bool {
	return s.exclusive[kind]
}

type CreateInvitationInput struct {
	Kind            models.RelationshipKind
	RestrictedEmail string
	TTLDays         int
}

// AcceptResult is the outcome of a successful redemption. Created is false when the
// relationship already existed.
type AcceptResult struct {
	Relationship *models.Relationship
	Inviter      *models.User
	Created      bool
}

func (s *InvitationService) CreateInvitation(ctx context.Context, identity Identity, input CreateInvitationInput) (inv *models.Invitation, err error) {
	ctx, span := startSpan(ctx, "InvitationService.CreateInvitation", attribute.String("coachlink.kind", string(input.Kind)))
	defer func() { endSpan(span, err) }()

	if identity.IsZero() {
		return nil, ErrUnauthenticated
	}
	if input.Kind == "" {
		input.Kind = models.KindCoach
	}
	if !input.Kind.Valid() {
		return nil, ErrInvalidKind
	}

	inviter, err := getUser(ctx, s.users, identity.UserID)
	if err != nil {
		return nil, err
	}

	allowed, err := s.policy(ctx, inviter, input.Kind)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate invite policy: %w", err)
	}
	if !allowed {
		return nil, newError(KindUnauthorized, "not allowed to issue "+string(input.Kind)+" invitations")
	}

	var restricted *string
	if input.RestrictedEmail != "" {
		if !ValidEmail(input.RestrictedEmail) {
			return nil, ErrInvalidEmailFormat
		}
		email := NormalizeEmail(input.RestrictedEmail)
		restricted = &email
	}

	ttl := input.TTLDays
	if ttl == 0 {
		ttl = s.defaultTTLDays
	}
	if ttl < 1 || ttl > MaxTTLDays {
		return nil, ErrInvalidTTL
	}

	inv = &models.Invitation{
		InviterID:       inviter.ID,
		Kind:            input.Kind,
		RestrictedEmail: restricted,
		ExpiresAt:       s.now().Add(time.Duration(ttl) * 24 * time.Hour),
	}
	_, err = s.codes.Generate(ctx, func(ctx context.Context, code string) (bool, error) {
		inv.Code = code
		err := s.invitations.Create(ctx, inv)
		if errors.Is(err, repository.ErrDuplicateCode) {
			return true, nil
		}
		return false, err
	})
	if err != nil {
		return nil, err
	}

	if s.promoteOnInvite && inviter.Role == models.RoleMember {
		role := input.Kind.InviterRole()
		if err := s.users.SetRole(ctx, inviter.ID, role); err != nil {
			s.logger.Errorw("failed to promote inviter", "user_id", inviter.ID, "role", role, "error", err)
		} else {
			inviter.Role = role
		}
	}

	inv.Inviter = inviter
	s.observer.InvitationIssued(inv.Kind)
	return inv, nil
}

// ValidateCode looks up a code without changing any state. Expiry is judged against
// expires_at, so a pending invitation past its expiry reports ErrInvitationExpired even
// when the sweep has not reached it yet.
func (s *InvitationService) ValidateCode(ctx context.Context, code string) (inv *models.Invitation, err error) {
	ctx, span := startSpan(ctx, "InvitationService.ValidateCode")
	defer func() { endSpan(span, err) }()

	inv, err = s.lookupCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if inv.Status != models.InvitationPending {
		return nil, notRedeemable(string(inv.Status))
	}
	if inv.IsExpired(s.now()) {
		return nil, ErrInvitationExpired
	}

	inviter, err := getUser(ctx, s.users, inv.InviterID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	inv.Inviter = inviter
	return inv, nil
}

func (s *InvitationService) lookupCode(ctx context.Context, code string) (*models.Invitation, error) {
	code = NormalizeCode(code)
	if !ValidCodeFormat(code) {
		return nil, ErrInvalidCodeFormat
	}
	inv, err := s.invitations.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCode
		}
		return nil, fmt.Errorf("failed to load invitation: %w", err)
	}
	return inv, nil
}

// AcceptInvitation redeems code for the caller.
//
// The invitation is claimed with a compare-and-swap before the relationship is linked, so
// of several concurrent redemptions exactly one proceeds to the link step. Once claimed,
// every failure other than a conflict on an unrestricted invitation hands the claim back
// so the invitation stays redeemable.
func (s *InvitationService) AcceptInvitation(ctx context.Context, code string, identity Identity) (result *AcceptResult, err error) {
	ctx, span := startSpan(ctx, "InvitationService.AcceptInvitation")
	defer func() {
		if kind := KindOf(err); kind != "" {
			s.observer.RedemptionFailed(kind)
		}
		endSpan(span, err)
	}()

	if identity.IsZero() {
		return nil, ErrUnauthenticated
	}

	inv, err := s.lookupCode(ctx, code)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("coachlink.invitation_id", inv.ID.String()))

	if inv.Status != models.InvitationPending {
		if inv.AcceptedBy(identity.UserID) {
			return s.existingLink(ctx, inv, identity.UserID)
		}
		return nil, notRedeemable(string(inv.Status))
	}

	now := s.now()
	if inv.IsExpired(now) {
		if _, err := s.invitations.Transition(ctx, models.InvitationTransition{
			ID:   inv.ID,
			From: models.InvitationPending,
			To:   models.InvitationExpired,
		}); err != nil {
			return nil, fmt.Errorf("failed to expire invitation: %w", err)
		}
		return nil, ErrInvitationExpired
	}

	if inv.RestrictedEmail != nil && !strings.EqualFold(*inv.RestrictedEmail, strings.TrimSpace(identity.Email)) {
		return nil, ErrEmailMismatch
	}
	if inv.InviterID == identity.UserID {
		return nil, newError(KindUnauthorized, "cannot redeem your own invitation")
	}

	claimed, err := s.invitations.Transition(ctx, models.InvitationTransition{
		ID:               inv.ID,
		From:             models.InvitationPending,
		To:               models.InvitationAccepted,
		AcceptedAt:       &now,
		AcceptedByUserID: &identity.UserID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to claim invitation: %w", err)
	}
	if !claimed {
		return nil, ErrConcurrentClaimLost
	}

	current, err := s.invitations.GetByID(ctx, inv.ID)
	if err != nil {
		s.releaseClaim(ctx, inv.ID, identity.UserID)
		return nil, fmt.Errorf("failed to re-read invitation: %w", err)
	}
	if !current.AcceptedBy(identity.UserID) {
		return nil, ErrConcurrentClaimLost
	}

	link, err := s.relationships.Link(ctx, models.LinkParams{
		PartyAID:     inv.InviterID,
		PartyBID:     identity.UserID,
		Kind:         inv.Kind,
		InvitationID: &inv.ID,
		Exclusive:    s.exclusive[inv.Kind],
	})
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			// A restricted invitation can only ever be redeemed by this invitee, so it
			// goes back to pending for when the conflict is resolved.
			if inv.RestrictedEmail != nil {
				s.releaseClaim(ctx, inv.ID, identity.UserID)
			}
			return nil, ErrConflictingRelationship
		}
		s.releaseClaim(ctx, inv.ID, identity.UserID)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to link relationship: %w", err)
	}

	s.observer.RelationshipLinked(inv.Kind, link.Created)
	return s.acceptResult(ctx, inv.InviterID, link.Relationship, link.Created)
}

// existingLink handles a repeat redemption by the invitee who already claimed the
// invitation. If the relationship it created has since been removed the invitation is
// spent; with no relationship at all the first redemption is still in flight.
func (s *InvitationService) existingLink(ctx context.Context, inv *models.Invitation, inviteeID uuid.UUID) (*AcceptResult, error) {
	rel, err := s.relationships.ActiveBetween(ctx, inv.InviterID, inviteeID, inv.Kind)
	if err == nil {
		return s.acceptResult(ctx, inv.InviterID, rel, false)
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to load relationship: %w", err)
	}

	linked, err := s.relationships.GetByInvitation(ctx, inv.ID)
	switch {
	case err == nil && linked.Status != models.RelationshipActive:
		return nil, notRedeemable(string(inv.Status))
	case err != nil && !errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("failed to load relationship: %w", err)
	}
	return nil, ErrConcurrentClaimLost
}

func (s *InvitationService) acceptResult(ctx context.Context, inviterID uuid.UUID, rel *models.Relationship, created bool) (*AcceptResult, error) {
	inviter, err := getUser(ctx, s.users, inviterID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	return &AcceptResult{Relationship: rel, Inviter: inviter, Created: created}, nil
}

// releaseClaim hands a claimed invitation back to pending. It runs detached from ctx's
// cancellation so an aborted request does not strand the claim.
func (s *InvitationService) releaseClaim(ctx context.Context, id, claimant uuid.UUID) {
	ctx = context.WithoutCancel(ctx)
	_, err := s.invitations.Transition(ctx, models.InvitationTransition{
		ID:               id,
		From:             models.InvitationAccepted,
		To:               models.InvitationPending,
		ExpectAcceptedBy: &claimant,
	})
	if errors.Is(err, repository.ErrDuplicateCode) {
		// The code went to a new pending invitation while this one was claimed. Lookups
		// now resolve to the newer holder, so this invitation can only be retired.
		s.logger.Warnw("invitation code reissued during claim, retiring invitation",
			"invitation_id", id, "claimant", claimant)
		_, err = s.invitations.Transition(ctx, models.InvitationTransition{
			ID:               id,
			From:             models.InvitationAccepted,
			To:               models.InvitationExpired,
			ExpectAcceptedBy: &claimant,
		})
	}
	if err != nil {
		// The invitation stays accepted without a relationship; the invitee's retry
		// reports ErrConcurrentClaimLost until an operator releases it.
		recordError(ctx, err)
		s.logger.Errorw("failed to release invitation claim", "invitation_id", id, "claimant", claimant, "error", err)
	}
}

func (s *InvitationService) RevokeInvitation(ctx context.Context, id uuid.UUID, identity Identity) (err error) {
	ctx, span := startSpan(ctx, "InvitationService.RevokeInvitation", attribute.String("coachlink.invitation_id", id.String()))
	defer func() { endSpan(span, err) }()

	if identity.IsZero() {
		return ErrUnauthenticated
	}

	inv, err := s.getInvitation(ctx, id)
	if err != nil {
		return err
	}
	if inv.InviterID != identity.UserID {
		return ErrUnauthorized
	}
	if inv.Status != models.InvitationPending {
		return notRedeemable(string(inv.Status))
	}
	if inv.IsExpired(s.now()) {
		if _, err := s.invitations.Transition(ctx, models.InvitationTransition{
			ID:   inv.ID,
			From: models.InvitationPending,
			To:   models.InvitationExpired,
		}); err != nil {
			return fmt.Errorf("failed to expire invitation: %w", err)
		}
		return ErrInvitationExpired
	}

	revoked, err := s.invitations.Transition(ctx, models.InvitationTransition{
		ID:   inv.ID,
		From: models.InvitationPending,
		To:   models.InvitationRevoked,
	})
	if err != nil {
		return fmt.Errorf("failed to revoke invitation: %w", err)
	}
	if !revoked {
		return ErrConcurrentClaimLost
	}
	return nil
}

// ListInvitations returns the caller's invitations newest first. Status is reported as
// of now, so an unswept pending invitation past its expiry is listed as expired. An empty
// status lists everything.
func (s *InvitationService) ListInvitations(ctx context.Context, identity Identity, status models.InvitationStatus) ([]models.Invitation, error) {
	if identity.IsZero() {
		return nil, ErrUnauthenticated
	}
	all, err := s.invitations.ListByInviter(ctx, identity.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}

	now := s.now()
	invitations := make([]models.Invitation, 0, len(all))
	for _, inv := range all {
		inv.Status = inv.EffectiveStatus(now)
		if status == "" || inv.Status == status {
			invitations = append(invitations, inv)
		}
	}
	return invitations, nil
}

func (s *InvitationService) GetInvitation(ctx context.Context, id uuid.UUID, identity Identity) (*models.Invitation, error) {
	if identity.IsZero() {
		return nil, ErrUnauthenticated
	}
	inv, err := s.getInvitation(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv.InviterID != identity.UserID {
		return nil, ErrUnauthorized
	}
	inv.Status = inv.EffectiveStatus(s.now())
	return inv, nil
}

func (s *InvitationService) getInvitation(ctx context.Context, id uuid.UUID) (*models.Invitation, error) {
	inv, err := s.invitations.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newError(KindNotFound, "invitation not found")
		}
		return nil, fmt.Errorf("failed to load invitation: %w", err)
	}
	return inv, nil
}

// SweepExpired marks every pending invitation past its expiry as expired. Readers never
// depend on it having run.
func (s *InvitationService) SweepExpired(ctx context.Context) (count int64, err error) {
	ctx, span := startSpan(ctx, "InvitationService.SweepExpired")
	defer func() { endSpan(span, err) }()

	count, err = s.invitations.ExpirePending(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("failed to expire invitations: %w", err)
	}
	span.SetAttributes(attribute.Int64("coachlink.expired", count))
	s.observer.InvitationsSwept(count)
	return count, nil
}
