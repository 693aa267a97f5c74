package services

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTService_GenerateAccessToken(t *testing.T) {
	svc := NewJWTService("test-secret", 15*time.Minute)

	before := time.Now()
	token, err := svc.GenerateAccessToken(uuid.New(), "test@example.com")

	require.NoError(t, err)
	assert.NotEmpty(t, token.Token)
	assert.WithinDuration(t, before.Add(15*time.Minute), token.ExpiresAt, time.Second)
}

func TestJWTService_ValidateAccessToken_Valid(t *testing.T) {
	svc := NewJWTService("test-secret", 15*time.Minute)
	userID := uuid.New()
	email := "test@example.com"

	token, err := svc.GenerateAccessToken(userID, email)
	require.NoError(t, err)

	claims, err := svc.ValidateAccessToken(token.Token)

	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, email, claims.Email)
	assert.Equal(t, "coachlink-api", claims.Issuer)
	assert.Equal(t, Identity{UserID: userID, Email: email}, claims.Identity())
}

func TestJWTService_ValidateAccessToken_WrongSecret(t *testing.T) {
	svc1 := NewJWTService("secret-1", 15*time.Minute)
	svc2 := NewJWTService("secret-2", 15*time.Minute)

	token, err := svc1.GenerateAccessToken(uuid.New(), "test@example.com")
	require.NoError(t, err)

	_, err = svc2.ValidateAccessToken(token.Token)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse token")
}

func TestJWTService_ValidateAccessToken_Expired(t *testing.T) {
	svc := NewJWTService("test-secret", 1*time.Millisecond)

	token, err := svc.GenerateAccessToken(uuid.New(), "test@example.com")
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)

	_, err = svc.ValidateAccessToken(token.Token)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse token")
}

func TestJWTService_ValidateAccessToken_MalformedToken(t *testing.T) {
	svc := NewJWTService("test-secret", 15*time.Minute)

	testCases := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not-a-jwt-token"},
		{"partial jwt", "eyJhbGciOiJIUzI1NiJ9."},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.ValidateAccessToken(tc.token)
			assert.Error(t, err)
		})
	}
}

func signClaims(t *testing.T, method jwt.SigningMethod, key any, claims Claims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return signed
}

func TestJWTService_ValidateAccessToken_RejectsForeignClaims(t *testing.T) {
	svc := NewJWTService("test-secret", 15*time.Minute)
	expires := jwt.NewNumericDate(time.Now().Add(time.Hour))

	testCases := []struct {
		name  string
		token string
	}{
		{"other issuer", signClaims(t, jwt.SigningMethodHS256, []byte("test-secret"), Claims{
			UserID:           uuid.New(),
			RegisteredClaims: jwt.RegisteredClaims{Issuer: "someone-else", ExpiresAt: expires},
		})},
		{"HS512", signClaims(t, jwt.SigningMethodHS512, []byte("test-secret"), Claims{
			UserID:           uuid.New(),
			RegisteredClaims: jwt.RegisteredClaims{Issuer: tokenIssuer, ExpiresAt: expires},
		})},
		{"no expiry", signClaims(t, jwt.SigningMethodHS256, []byte("test-secret"), Claims{
			UserID:           uuid.New(),
			RegisteredClaims: jwt.RegisteredClaims{Issuer: tokenIssuer},
		})},
		{"no user id", signClaims(t, jwt.SigningMethodHS256, []byte("test-secret"), Claims{
			RegisteredClaims: jwt.RegisteredClaims{Issuer: tokenIssuer, ExpiresAt: expires},
		})},
		{"unsigned", signClaims(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, Claims{
			UserID:           uuid.New(),
			RegisteredClaims: jwt.RegisteredClaims{Issuer: tokenIssuer, ExpiresAt: expires},
		})},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.ValidateAccessToken(tc.token)
			assert.Error(t, err)
		})
	}
}
