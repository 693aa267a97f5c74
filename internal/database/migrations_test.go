package database

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMockDB(t *testing.T) (*DB, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })
	return &DB{Pool: mock}, mock
}

func TestMigrate_RunsInOrder(t *testing.T) {
	db, mock := setupMockDB(t)
	for _, m := range migrations {
		mock.ExpectExec(m).WillReturnResult(pgxmock.NewResult("CREATE", 0))
	}

	require.NoError(t, db.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate_StopsAtFailure(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectExec(migrations[0]).WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectExec(migrations[1]).WillReturnError(errors.New("permission denied"))

	err := db.Migrate(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "migration 2 failed")
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Code lookups compare upper(code), so every index serving them must be on the same
// expression.
func TestMigrations_CodeIndexesUseUpper(t *testing.T) {
	var codeIndexes []string
	for _, m := range migrations {
		if strings.HasPrefix(m, "CREATE") && strings.Contains(m, "INDEX") && strings.Contains(m, "ON invitations (") &&
			strings.Contains(m, "code") {
			codeIndexes = append(codeIndexes, m)
		}
	}

	require.Len(t, codeIndexes, 2)
	for _, m := range codeIndexes {
		assert.Contains(t, m, "(upper(code))", m)
	}
}
