package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/dimitrije/coachlink-api/internal/database"
	"github.com/dimitrije/coachlink-api/internal/models"
)

// Fixtures provides factory methods for creating test data
type Fixtures struct {
	db      *database.DB
	counter int
}

// NewFixtures creates a new fixtures factory
func NewFixtures(db *database.DB) *Fixtures {
	return &Fixtures{db: db}
}

// CreateUser creates a test member with default values
func (f *Fixtures) CreateUser(t *testing.T, opts ...UserOption) *models.User {
	t.Helper()
	f.counter++

	user := &models.User{
		Email: fmt.Sprintf("user%d@example.com", f.counter),
		Name:  fmt.Sprintf("Test User %d", f.counter),
		Role:  models.RoleMember,
	}

	for _, opt := range opts {
		opt(user)
	}

	err := f.db.Pool.QueryRow(context.Background(), `
		INSERT INTO users (email, name, role)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`, user.Email, user.Name, user.Role).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	return user
}

// UserOption configures a test user
type UserOption func(*models.User)

func WithEmail(email string) UserOption {
	return func(u *models.User) {
		u.Email = email
	}
}

func WithRole(role string) UserOption {
	return func(u *models.User) {
		u.Role = role
	}
}

// CreateInvitation inserts a pending coach invitation from inviter that expires in a week.
func (f *Fixtures) CreateInvitation(t *testing.T, inviter *models.User, opts ...InvitationOption) *models.Invitation {
	t.Helper()
	f.counter++

	inv := &models.Invitation{
		InviterID: inviter.ID,
		Kind:      models.KindCoach,
		Code:      fmt.Sprintf("FX%04d", f.counter),
		Status:    models.InvitationPending,
		ExpiresAt: time.Now().Add(7 * 24 * time.Hour),
	}

	for _, opt := range opts {
		opt(inv)
	}

	err := f.db.Pool.QueryRow(context.Background(), `
		INSERT INTO invitations (inviter_id, kind, code, restricted_email, status, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`, inv.InviterID, inv.Kind, inv.Code, inv.RestrictedEmail, inv.Status, inv.ExpiresAt).Scan(
		&inv.ID, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("failed to create invitation: %v", err)
	}

	return inv
}

// InvitationOption configures a test invitation
type InvitationOption func(*models.Invitation)

func WithCode(code string) InvitationOption {
	return func(inv *models.Invitation) {
		inv.Code = code
	}
}

func WithKind(kind models.RelationshipKind) InvitationOption {
	return func(inv *models.Invitation) {
		inv.Kind = kind
	}
}

func WithStatus(status models.InvitationStatus) InvitationOption {
	return func(inv *models.Invitation) {
		inv.Status = status
	}
}

func WithExpiry(expiresAt time.Time) InvitationOption {
	return func(inv *models.Invitation) {
		inv.ExpiresAt = expiresAt
	}
}

func WithRestrictedEmail(email string) InvitationOption {
	return func(inv *models.Invitation) {
		inv.RestrictedEmail = &email
	}
}
