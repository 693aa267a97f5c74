package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dimitrije/coachlink-api/internal/database"
	"github.com/dimitrije/coachlink-api/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type UserService struct {
	db *database.DB
}

func NewUserService(db *database.DB) *UserService {
	return &UserService{db: db}
}

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(&user.ID, &user.Email, &user.Name, &user.Role, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *UserService) Create(ctx context.Context, email, name, role string) (*models.User, error) {
	if !ValidEmail(email) {
		return nil, ErrInvalidEmailFormat
	}
	if role == "" {
		role = models.RoleMember
	}
	user, err := scanUser(s.db.Pool.QueryRow(ctx, `
		INSERT INTO users (email, name, role)
		VALUES ($1, $2, $3)
		RETURNING id, email, name, role, created_at, updated_at
	`, NormalizeEmail(email), name, role))
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return scanUser(s.db.Pool.QueryRow(ctx, `
		SELECT id, email, name, role, created_at, updated_at
		FROM users WHERE id = $1
	`, id))
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return scanUser(s.db.Pool.QueryRow(ctx, `
		SELECT id, email, name, role, created_at, updated_at
		FROM users WHERE email = $1
	`, NormalizeEmail(email)))
}

func (s *UserService) Update(ctx context.Context, id uuid.UUID, name string) (*models.User, error) {
	return scanUser(s.db.Pool.QueryRow(ctx, `
		UPDATE users SET name = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING id, email, name, role, created_at, updated_at
	`, name, id))
}

func (s *UserService) SetRole(ctx context.Context, id uuid.UUID, role string) error {
	result, err := s.db.Pool.Exec(ctx, `
		UPDATE users SET role = $1, updated_at = NOW()
		WHERE id = $2
	`, role, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidEmail accepts local@domain where the domain contains a dot that is neither its
// first nor last character.
func ValidEmail(email string) bool {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at <= 0 || at != strings.Index(email, "@") || strings.ContainsAny(email, " \t\r\n") {
		return false
	}
	domain := email[at+1:]
	dot := strings.LastIndex(domain, ".")
	return dot > 0 && dot < len(domain)-1
}
