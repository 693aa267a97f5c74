package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockLimiter struct {
	mock.Mock
}

func (m *mockLimiter) Allow(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

// rateLimitedRequest sends one authenticated request through the limiter and reports
// whether the route handler behind it ran.
func rateLimitedRequest(t *testing.T, l *mockLimiter, onLimited func()) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	reached := false
	jwtSvc := newTestJWTService()
	token := generateTestToken(t, jwtSvc, uuid.New(), "athlete@example.com")

	app := drift.New()
	app.Use(Auth(jwtSvc))
	app.Use(RateLimit(RateLimitConfig{Limiter: l, Window: 90 * time.Second, OnLimited: onLimited}))
	app.Get("/invitation-codes/:code", func(c *drift.Context) {
		reached = true
		okHandler(c)
	})

	req := httptest.NewRequest(http.MethodGet, "/invitation-codes/K7M2QX", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)
	return rec, reached
}

func TestRateLimit_Allows(t *testing.T) {
	l := new(mockLimiter)
	l.On("Allow", mock.Anything, mock.AnythingOfType("string")).Return(true, nil)

	rec, reached := rateLimitedRequest(t, l, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, reached)
	l.AssertExpectations(t)
}

func TestRateLimit_Rejects(t *testing.T) {
	l := new(mockLimiter)
	l.On("Allow", mock.Anything, mock.AnythingOfType("string")).Return(false, nil)
	limited := 0

	rec, reached := rateLimitedRequest(t, l, func() { limited++ })

	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.False(t, reached, "handler ran behind a rejected request")
	assert.Equal(t, "90", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), `"code":"rate_limited"`)
	assert.NotContains(t, rec.Body.String(), `"status":"ok"`)
	assert.Equal(t, 1, limited)
}

func TestRateLimit_FailsOpen(t *testing.T) {
	l := new(mockLimiter)
	l.On("Allow", mock.Anything, mock.AnythingOfType("string")).Return(false, errors.New("redis down"))

	rec, reached := rateLimitedRequest(t, l, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, reached)
}
