package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dimitrije/coachlink-api/internal/models"
	"github.com/dimitrije/coachlink-api/internal/repository"
	"github.com/google/uuid"
)

// MemStore is an in-memory stand-in for the PostgreSQL repositories. It keeps the same
// compare-and-swap semantics and returns the same sentinel errors, so service tests can
// drive the invitation state machine (including concurrent redemptions) without a
// database.
type MemStore struct {
	mu            sync.Mutex
	users         map[uuid.UUID]models.User
	invitations   map[uuid.UUID]models.Invitation
	relationships map[uuid.UUID]models.Relationship
	seq           int

	// LinkErr, when set, is returned by Link before anything is written.
	LinkErr error
	// BeforeLink runs before Link takes the store lock.
	BeforeLink func()
}

func NewMemStore() *MemStore {
	return &MemStore{
		users:         make(map[uuid.UUID]models.User),
		invitations:   make(map[uuid.UUID]models.Invitation),
		relationships: make(map[uuid.UUID]models.Relationship),
	}
}

// tick returns a strictly increasing timestamp so ordering by created_at is stable.
func (s *MemStore) tick() time.Time {
	s.seq++
	return time.Unix(1_700_000_000, 0).Add(time.Duration(s.seq) * time.Millisecond)
}

func (s *MemStore) AddUser(email, name, role string) *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.tick()
	user := models.User{
		ID:        uuid.New(),
		Email:     strings.ToLower(email),
		Name:      name,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.users[user.ID] = user
	return &user
}

// PutInvitation stores inv as is, for tests that need a specific starting state.
func (s *MemStore) PutInvitation(inv models.Invitation) *models.Invitation {
	s.mu.Lock()
	defer s.mu.Unlock()
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}
	if inv.CreatedAt.IsZero() {
		inv.CreatedAt = s.tick()
		inv.UpdatedAt = inv.CreatedAt
	}
	s.invitations[inv.ID] = inv
	return &inv
}

func (s *MemStore) PutRelationship(rel models.Relationship) *models.Relationship {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rel.ID == uuid.Nil {
		rel.ID = uuid.New()
	}
	if rel.CreatedAt.IsZero() {
		rel.CreatedAt = s.tick()
		rel.UpdatedAt = rel.CreatedAt
	}
	s.relationships[rel.ID] = rel
	return &rel
}

func (s *MemStore) Invitation(id uuid.UUID) models.Invitation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.invitations[id]
}

func (s *MemStore) User(id uuid.UUID) models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users[id]
}

// ActiveRelationships returns the active relationships with partyB as invitee.
func (s *MemStore) ActiveRelationships(partyB uuid.UUID) []models.Relationship {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Relationship
	for _, rel := range s.relationships {
		if rel.PartyBID == partyB && rel.Status == models.RelationshipActive {
			out = append(out, rel)
		}
	}
	return out
}

func (s *MemStore) Invitations() *MemInvitations {
	return &MemInvitations{s: s}
}

func (s *MemStore) Relationships() *MemRelationships {
	return &MemRelationships{s: s}
}

func (s *MemStore) Users() *MemUsers {
	return &MemUsers{s: s}
}

type MemInvitations struct {
	s *MemStore
}

func (m *MemInvitations) Create(ctx context.Context, inv *models.Invitation) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, existing := range m.s.invitations {
		if existing.Status == models.InvitationPending && strings.EqualFold(existing.Code, inv.Code) {
			return repository.ErrDuplicateCode
		}
	}
	inv.ID = uuid.New()
	inv.Status = models.InvitationPending
	inv.CreatedAt = m.s.tick()
	inv.UpdatedAt = inv.CreatedAt
	m.s.invitations[inv.ID] = *inv
	return nil
}

func (m *MemInvitations) GetByID(ctx context.Context, id uuid.UUID) (*models.Invitation, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	inv, ok := m.s.invitations[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &inv, nil
}

// GetByCode prefers the pending holder of code, then the most recent invitation.
func (m *MemInvitations) GetByCode(ctx context.Context, code string) (*models.Invitation, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var best *models.Invitation
	for _, inv := range m.s.invitations {
		if !strings.EqualFold(inv.Code, code) {
			continue
		}
		inv := inv
		switch {
		case best == nil:
			best = &inv
		case (inv.Status == models.InvitationPending) != (best.Status == models.InvitationPending):
			if inv.Status == models.InvitationPending {
				best = &inv
			}
		case inv.CreatedAt.After(best.CreatedAt):
			best = &inv
		}
	}
	if best == nil {
		return nil, repository.ErrNotFound
	}
	return best, nil
}

func (m *MemInvitations) Transition(ctx context.Context, t models.InvitationTransition) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	inv, ok := m.s.invitations[t.ID]
	if !ok || inv.Status != t.From {
		return false, nil
	}
	if t.ExpectAcceptedBy != nil && (inv.AcceptedByUserID == nil || *inv.AcceptedByUserID != *t.ExpectAcceptedBy) {
		return false, nil
	}
	if t.To == models.InvitationPending {
		for id, other := range m.s.invitations {
			if id != inv.ID && other.Status == models.InvitationPending && strings.EqualFold(other.Code, inv.Code) {
				return false, repository.ErrDuplicateCode
			}
		}
	}
	inv.Status = t.To
	inv.AcceptedAt = t.AcceptedAt
	inv.AcceptedByUserID = t.AcceptedByUserID
	inv.UpdatedAt = m.s.tick()
	m.s.invitations[inv.ID] = inv
	return true, nil
}

func (m *MemInvitations) ListByInviter(ctx context.Context, inviterID uuid.UUID) ([]models.Invitation, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []models.Invitation
	for _, inv := range m.s.invitations {
		if inv.InviterID == inviterID {
			out = append(out, inv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MemInvitations) ExpirePending(ctx context.Context, now time.Time) (int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var count int64
	for id, inv := range m.s.invitations {
		if inv.Status == models.InvitationPending && inv.ExpiresAt.Before(now) {
			inv.Status = models.InvitationExpired
			m.s.invitations[id] = inv
			count++
		}
	}
	return count, nil
}

type MemRelationships struct {
	s *MemStore
}

// Link holds the store lock for the whole check-then-insert, which plays the part of
// the row lock on the invitee.
func (m *MemRelationships) Link(ctx context.Context, p models.LinkParams) (*models.LinkResult, error) {
	if m.s.BeforeLink != nil {
		m.s.BeforeLink()
	}
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.LinkErr != nil {
		return nil, m.s.LinkErr
	}
	if _, ok := m.s.users[p.PartyBID]; !ok {
		return nil, repository.ErrNotFound
	}
	for _, rel := range m.s.relationships {
		if rel.Status != models.RelationshipActive || rel.PartyBID != p.PartyBID || rel.Kind != p.Kind {
			continue
		}
		if rel.PartyAID == p.PartyAID {
			rel := rel
			return &models.LinkResult{Relationship: &rel}, nil
		}
		if p.Exclusive {
			return nil, repository.ErrConflict
		}
	}
	now := m.s.tick()
	rel := models.Relationship{
		ID:           uuid.New(),
		PartyAID:     p.PartyAID,
		PartyBID:     p.PartyBID,
		Kind:         p.Kind,
		InvitationID: p.InvitationID,
		Status:       models.RelationshipActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	m.s.relationships[rel.ID] = rel
	return &models.LinkResult{Relationship: &rel, Created: true}, nil
}

func (m *MemRelationships) GetByID(ctx context.Context, id uuid.UUID) (*models.Relationship, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	rel, ok := m.s.relationships[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &rel, nil
}

func (m *MemRelationships) ActiveBetween(ctx context.Context, partyA, partyB uuid.UUID, kind models.RelationshipKind) (*models.Relationship, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, rel := range m.s.relationships {
		if rel.PartyAID == partyA && rel.PartyBID == partyB && rel.Kind == kind && rel.Status == models.RelationshipActive {
			return &rel, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MemRelationships) GetByInvitation(ctx context.Context, invitationID uuid.UUID) (*models.Relationship, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var found *models.Relationship
	for _, rel := range m.s.relationships {
		if rel.InvitationID == nil || *rel.InvitationID != invitationID {
			continue
		}
		if found == nil || rel.CreatedAt.After(found.CreatedAt) {
			rel := rel
			found = &rel
		}
	}
	if found == nil {
		return nil, repository.ErrNotFound
	}
	return found, nil
}

func (m *MemRelationships) Transition(ctx context.Context, id uuid.UUID, from, to models.RelationshipStatus) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	rel, ok := m.s.relationships[id]
	if !ok || rel.Status != from {
		return false, nil
	}
	rel.Status = to
	rel.UpdatedAt = m.s.tick()
	m.s.relationships[id] = rel
	return true, nil
}

func (m *MemRelationships) HasActiveAsInviter(ctx context.Context, userID uuid.UUID) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, rel := range m.s.relationships {
		if rel.PartyAID == userID && rel.Status == models.RelationshipActive {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemRelationships) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Relationship, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []models.Relationship
	for _, rel := range m.s.relationships {
		if !rel.HasParty(userID) {
			continue
		}
		counterpart := m.s.users[rel.Counterparty(userID)]
		rel.Counterpart = &counterpart
		out = append(out, rel)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

type MemUsers struct {
	s *MemStore
}

func (m *MemUsers) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	user, ok := m.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &user, nil
}

func (m *MemUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, user := range m.s.users {
		if strings.EqualFold(user.Email, strings.TrimSpace(email)) {
			return &user, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MemUsers) SetRole(ctx context.Context, id uuid.UUID, role string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	user, ok := m.s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.Role = role
	m.s.users[id] = user
	return nil
}
