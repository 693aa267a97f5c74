package models

import (
	"time"

	"github.com/google/uuid"
)

// User roles. A member can only redeem invitations unless an invite policy says otherwise.
const (
	RoleMember  = "member"
	RoleTrainer = "trainer"
	RoleParent  = "parent"
	RoleAdmin   = "admin"
)

type User struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func ValidRole(role string) bool {
	switch role {
	case RoleMember, RoleTrainer, RoleParent, RoleAdmin:
		return true
	}
	return false
}
