package handlers

import (
	"context"
	"time"

	"github.com/dimitrije/coachlink-api/internal/models"
	"github.com/dimitrije/coachlink-api/internal/services"
	"github.com/dimitrije/coachlink-api/internal/sse"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockUserService mocks the UserService
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) Update(ctx context.Context, id uuid.UUID, name string) (*models.User, error) {
	args := m.Called(ctx, id, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// MockInvitationService mocks the InvitationService
type MockInvitationService struct {
	mock.Mock
}

func (m *MockInvitationService) CreateInvitation(ctx context.Context, identity services.Identity, input services.CreateInvitationInput) (*models.Invitation, error) {
	args := m.Called(ctx, identity, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invitation), args.Error(1)
}

func (m *MockInvitationService) ValidateCode(ctx context.Context, code string) (*models.Invitation, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invitation), args.Error(1)
}

func (m *MockInvitationService) AcceptInvitation(ctx context.Context, code string, identity services.Identity) (*services.AcceptResult, error) {
	args := m.Called(ctx, code, identity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.AcceptResult), args.Error(1)
}

func (m *MockInvitationService) RevokeInvitation(ctx context.Context, id uuid.UUID, identity services.Identity) error {
	args := m.Called(ctx, id, identity)
	return args.Error(0)
}

func (m *MockInvitationService) ListInvitations(ctx context.Context, identity services.Identity, status models.InvitationStatus) ([]models.Invitation, error) {
	args := m.Called(ctx, identity, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Invitation), args.Error(1)
}

func (m *MockInvitationService) GetInvitation(ctx context.Context, id uuid.UUID, identity services.Identity) (*models.Invitation, error) {
	args := m.Called(ctx, id, identity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invitation), args.Error(1)
}

// MockRelationshipService mocks the RelationshipService
type MockRelationshipService struct {
	mock.Mock
}

func (m *MockRelationshipService) RemoveRelationship(ctx context.Context, id uuid.UUID, identity services.Identity) error {
	args := m.Called(ctx, id, identity)
	return args.Error(0)
}

func (m *MockRelationshipService) ListRelationships(ctx context.Context, identity services.Identity, status models.RelationshipStatus) ([]models.Relationship, error) {
	args := m.Called(ctx, identity, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Relationship), args.Error(1)
}

func (m *MockRelationshipService) ConnectByEmail(ctx context.Context, identity services.Identity, kind models.RelationshipKind, email string) (*models.LinkResult, error) {
	args := m.Called(ctx, identity, kind, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LinkResult), args.Error(1)
}

// MockMailer mocks the EmailService
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) IsConfigured() bool {
	return m.Called().Bool(0)
}

func (m *MockMailer) SendInvitationCode(to, inviterName, kind, code string, expiresAt time.Time) error {
	args := m.Called(to, inviterName, kind, code, expiresAt)
	return args.Error(0)
}

// MockNotifier mocks the event hub
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Publish(userID uuid.UUID, event sse.Event) bool {
	return m.Called(userID, event).Bool(0)
}
