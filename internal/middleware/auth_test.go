package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dimitrije/coachlink-api/internal/services"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTService() *services.JWTService {
	return services.NewJWTService("test-secret-key", 15*time.Minute)
}

func generateTestToken(t *testing.T, jwtSvc *services.JWTService, userID uuid.UUID, email string) string {
	t.Helper()
	token, err := jwtSvc.GenerateAccessToken(userID, email)
	require.NoError(t, err)
	return token.Token
}

func protectedApp(validator TokenValidator, handler drift.HandlerFunc) http.Handler {
	app := drift.New()
	app.Use(Auth(validator))
	app.Get("/protected", handler)
	return app
}

func okHandler(c *drift.Context) {
	_ = c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func TestAuth_Rejects(t *testing.T) {
	jwtSvc := newTestJWTService()
	expired := services.NewJWTService("test-secret-key", time.Millisecond)
	expiredToken := generateTestToken(t, expired, uuid.New(), "test@example.com")
	foreignToken := generateTestToken(t, services.NewJWTService("other-secret", 15*time.Minute), uuid.New(), "test@example.com")
	time.Sleep(10 * time.Millisecond)

	testCases := []struct {
		name    string
		header  string
		message string
	}{
		{"missing header", "", "missing authorization header"},
		{"wrong scheme", "Token some-token", "invalid authorization header format"},
		{"bearer only", "Bearer", "invalid authorization header format"},
		{"garbage token", "Bearer not-a-jwt", "invalid or expired token"},
		{"expired token", "Bearer " + expiredToken, "invalid or expired token"},
		{"wrong secret", "Bearer " + foreignToken, "invalid or expired token"},
	}

	app := protectedApp(jwtSvc, okHandler)
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()

			app.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.message)
			assert.Contains(t, rec.Body.String(), `"code":"unauthenticated"`)
		})
	}
}

func TestAuth_ValidToken(t *testing.T) {
	jwtSvc := newTestJWTService()
	userID := uuid.New()
	email := "coach@example.com"
	token := generateTestToken(t, jwtSvc, userID, email)

	var identity services.Identity
	app := protectedApp(jwtSvc, func(c *drift.Context) {
		identity = GetIdentity(c)
		okHandler(c)
	})

	for _, scheme := range []string{"Bearer", "bearer", "BEARER"} {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", scheme+" "+token)
		rec := httptest.NewRecorder()

		app.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code, scheme)
		assert.Equal(t, services.Identity{UserID: userID, Email: email}, identity)
	}
}

func TestGetIdentity_NotSet(t *testing.T) {
	app := drift.New()

	var identity services.Identity
	app.Get("/test", func(c *drift.Context) {
		identity = GetIdentity(c)
		_ = c.JSON(http.StatusOK, nil)
	})

	app.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.True(t, identity.IsZero())
	assert.Equal(t, "", identity.Email)
}

func TestBearerToken(t *testing.T) {
	testCases := []struct {
		header string
		token  string
		ok     bool
	}{
		{"Bearer abc.def", "abc.def", true},
		{"bearer   abc.def ", "abc.def", true},
		{"Bearer ", "", false},
		{"Basic abc", "", false},
		{"abc.def", "", false},
		{"", "", false},
	}

	for _, tc := range testCases {
		token, reason := bearerToken(tc.header)
		assert.Equal(t, tc.token, token, tc.header)
		assert.Equal(t, tc.ok, reason == "", tc.header)
	}
}
