package testutil

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/dimitrije/coachlink-api/internal/database"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const testDatabase = "coachlink_test"

// truncated lists every table the migrations create, children first.
var truncated = []string{"relationships", "invitations", "users"}

type TestDB struct {
	DB        *database.DB
	Container testcontainers.Container
}

func postgresRequest() testcontainers.ContainerRequest {
	return testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       testDatabase,
		},
		// Postgres logs readiness twice: once for the init server, once for the real one.
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
}

// SetupTestDB starts a throwaway Postgres and returns it migrated. It skips under -short.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: postgresRequest(),
		Started:          true,
	})
	require.NoError(t, err, "start postgres container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	endpoint, err := container.PortEndpoint(ctx, "5432/tcp", "")
	require.NoError(t, err, "resolve postgres endpoint")

	db, err := database.New(ctx, "postgres://test:test@"+endpoint+"/"+testDatabase+"?sslmode=disable")
	require.NoError(t, err, "connect to test database")
	t.Cleanup(db.Close)

	require.NoError(t, db.Migrate(ctx), "migrate test database")

	return &TestDB{DB: db, Container: container}
}

// CleanTables empties every table so subtests start from a blank schema.
func (tdb *TestDB) CleanTables(t *testing.T) {
	t.Helper()
	_, err := tdb.DB.Pool.Exec(context.Background(), "TRUNCATE TABLE "+strings.Join(truncated, ", ")+" CASCADE")
	require.NoError(t, err, "truncate tables")
}
