package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dimitrije/coachlink-api/internal/middleware"
	"github.com/dimitrije/coachlink-api/internal/sse"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func setupEventTest(t *testing.T) (http.Handler, *sse.Hub, *streamUser) {
	t.Helper()
	hub := sse.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	jwtSvc := newTestJWTService()
	handler := NewEventHandler(hub, zap.NewNop().Sugar())

	app := drift.New()
	app.Use(middleware.Auth(jwtSvc))
	app.Get("/events", handler.Connect)

	userID := uuid.New()
	return app, hub, &streamUser{UserID: userID, Token: generateTestToken(t, jwtSvc, userID, "coach@example.com")}
}

type streamUser struct {
	UserID uuid.UUID
	Token  string
}

func TestEventHandler_Connect_NotAuthenticated(t *testing.T) {
	app, _, _ := setupEventTest(t)

	rec := doRequest(t, app, http.MethodGet, "/events", "", nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestEventHandler_Connect_StreamsUserEvents(t *testing.T) {
	app, hub, fx := setupEventTest(t)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer "+fx.Token)
	rec := httptest.NewRecorder()

	go func() {
		time.Sleep(50 * time.Millisecond)
		hub.Publish(fx.UserID, sse.InvitationAccepted(sse.InvitationAcceptedEvent{InvitationID: uuid.New(), Kind: "coach"}))
		hub.Publish(uuid.New(), sse.RelationshipCreated(sse.RelationshipCreatedEvent{RelationshipID: uuid.New()}))
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	app.ServeHTTP(rec, req)

	body := rec.Body.String()
	assert.Contains(t, body, "connected")
	assert.Contains(t, body, sse.EventInvitationAccepted)
	assert.NotContains(t, body, sse.EventRelationshipCreated)
}
