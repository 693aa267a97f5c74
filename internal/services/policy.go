package services

import (
	"context"
	"fmt"

	"github.com/dimitrije/coachlink-api/internal/models"
	"github.com/google/uuid"
)

// InvitePolicy decides whether actor may issue invitations of kind.
type InvitePolicy func(ctx context.Context, actor *models.User, kind models.RelationshipKind) (bool, error)

const (
	PolicyBootstrap = "bootstrap"
	PolicyStrict    = "strict"
)

// BootstrapPolicy lets any user issue invitations, so a member can become a coach or
// parent by inviting their first trainee.
func BootstrapPolicy() InvitePolicy {
	return func(ctx context.Context, actor *models.User, kind models.RelationshipKind) (bool, error) {
		return true, nil
	}
}

type inviterHistory interface {
	HasActiveAsInviter(ctx context.Context, userID uuid.UUID) (bool, error)
}

// StrictPolicy requires the role matching kind (or admin), or an existing active
// relationship in which actor is the inviting party.
func StrictPolicy(history inviterHistory) InvitePolicy {
	return func(ctx context.Context, actor *models.User, kind models.RelationshipKind) (bool, error) {
		if actor.Role == models.RoleAdmin || actor.Role == kind.InviterRole() {
			return true, nil
		}
		return history.HasActiveAsInviter(ctx, actor.ID)
	}
}

// PolicyByName resolves a configured policy name.
func PolicyByName(name string, history inviterHistory) (InvitePolicy, error) {
	switch name {
	case "", PolicyBootstrap:
		return BootstrapPolicy(), nil
	case PolicyStrict:
		return StrictPolicy(history), nil
	}
	return nil, fmt.Errorf("unknown invite policy %q", name)
}
