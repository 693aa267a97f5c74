package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dimitrije/coachlink-api/internal/database"
	"github.com/dimitrije/coachlink-api/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var userColumns = []string{"id", "email", "name", "role", "created_at", "updated_at"}

func setupUserService(t *testing.T) (*UserService, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	db := &database.DB{Pool: mock}
	return NewUserService(db), mock
}

func TestUserService_Create(t *testing.T) {
	svc, mock := setupUserService(t)
	ctx := context.Background()
	userID := uuid.New()
	now := time.Now()

	rows := pgxmock.NewRows(userColumns).
		AddRow(userID, "coach@example.com", "Coach", models.RoleTrainer, now, now)
	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs("coach@example.com", "Coach", models.RoleTrainer).
		WillReturnRows(rows)

	user, err := svc.Create(ctx, "  Coach@Example.com ", "Coach", models.RoleTrainer)

	require.NoError(t, err)
	assert.Equal(t, userID, user.ID)
	assert.Equal(t, "coach@example.com", user.Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserService_Create_DefaultsToMember(t *testing.T) {
	svc, mock := setupUserService(t)
	ctx := context.Background()
	now := time.Now()

	rows := pgxmock.NewRows(userColumns).
		AddRow(uuid.New(), "a@example.com", "A", models.RoleMember, now, now)
	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs("a@example.com", "A", models.RoleMember).
		WillReturnRows(rows)

	user, err := svc.Create(ctx, "a@example.com", "A", "")

	require.NoError(t, err)
	assert.Equal(t, models.RoleMember, user.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserService_Create_InvalidEmail(t *testing.T) {
	svc, mock := setupUserService(t)

	_, err := svc.Create(context.Background(), "not-an-email", "X", "")

	assert.ErrorIs(t, err, ErrInvalidEmailFormat)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserService_GetByID(t *testing.T) {
	svc, mock := setupUserService(t)
	ctx := context.Background()
	userID := uuid.New()
	now := time.Now()

	rows := pgxmock.NewRows(userColumns).
		AddRow(userID, "test@example.com", "Test User", models.RoleMember, now, now)
	mock.ExpectQuery(`SELECT .+ FROM users WHERE id`).
		WithArgs(userID).
		WillReturnRows(rows)

	user, err := svc.GetByID(ctx, userID)

	require.NoError(t, err)
	assert.Equal(t, userID, user.ID)
	assert.Equal(t, "Test User", user.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserService_GetByID_NotFound(t *testing.T) {
	svc, mock := setupUserService(t)
	ctx := context.Background()
	userID := uuid.New()

	mock.ExpectQuery(`SELECT .+ FROM users WHERE id`).
		WithArgs(userID).
		WillReturnError(pgx.ErrNoRows)

	_, err := svc.GetByID(ctx, userID)

	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserService_GetByEmail_Normalizes(t *testing.T) {
	svc, mock := setupUserService(t)
	ctx := context.Background()
	now := time.Now()

	rows := pgxmock.NewRows(userColumns).
		AddRow(uuid.New(), "athlete@example.com", "Athlete", models.RoleMember, now, now)
	mock.ExpectQuery(`SELECT .+ FROM users WHERE email`).
		WithArgs("athlete@example.com").
		WillReturnRows(rows)

	user, err := svc.GetByEmail(ctx, "Athlete@Example.COM")

	require.NoError(t, err)
	assert.Equal(t, "athlete@example.com", user.Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserService_Update(t *testing.T) {
	svc, mock := setupUserService(t)
	ctx := context.Background()
	userID := uuid.New()
	now := time.Now()

	rows := pgxmock.NewRows(userColumns).
		AddRow(userID, "test@example.com", "Renamed", models.RoleMember, now, now)
	mock.ExpectQuery(`UPDATE users SET name`).
		WithArgs("Renamed", userID).
		WillReturnRows(rows)

	user, err := svc.Update(ctx, userID, "Renamed")

	require.NoError(t, err)
	assert.Equal(t, "Renamed", user.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserService_SetRole(t *testing.T) {
	svc, mock := setupUserService(t)
	ctx := context.Background()
	userID := uuid.New()

	mock.ExpectExec(`UPDATE users SET role`).
		WithArgs(models.RoleTrainer, userID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := svc.SetRole(ctx, userID, models.RoleTrainer)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserService_SetRole_NotFound(t *testing.T) {
	svc, mock := setupUserService(t)
	ctx := context.Background()
	userID := uuid.New()

	mock.ExpectExec(`UPDATE users SET role`).
		WithArgs(models.RoleAdmin, userID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := svc.SetRole(ctx, userID, models.RoleAdmin)

	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserService_SetRole_DatabaseError(t *testing.T) {
	svc, mock := setupUserService(t)
	ctx := context.Background()
	userID := uuid.New()

	mock.ExpectExec(`UPDATE users SET role`).
		WithArgs(models.RoleAdmin, userID).
		WillReturnError(errors.New("connection reset"))

	err := svc.SetRole(ctx, userID, models.RoleAdmin)

	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestValidEmail(t *testing.T) {
	testCases := []struct {
		email string
		valid bool
	}{
		{"a@b.co", true},
		{"first.last@example.com", true},
		{" padded@example.com ", true},
		{"", false},
		{"no-at-sign.com", false},
		{"@example.com", false},
		{"a@nodot", false},
		{"a@.com", false},
		{"a@example.", false},
		{"a@b@example.com", false},
		{"sp ace@example.com", false},
	}

	for _, tc := range testCases {
		t.Run(tc.email, func(t *testing.T) {
			assert.Equal(t, tc.valid, ValidEmail(tc.email))
		})
	}
}
