package handlers

import (
	"github.com/dimitrije/coachlink-api/internal/middleware"
	"github.com/dimitrije/coachlink-api/internal/services"
	"github.com/dimitrije/coachlink-api/internal/sse"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"go.uber.org/zap"
)

type EventHandler struct {
	hub *sse.Hub
	log *zap.SugaredLogger
}

func NewEventHandler(hub *sse.Hub, log *zap.SugaredLogger) *EventHandler {
	return &EventHandler{hub: hub, log: log}
}

// Connect streams the caller's events until the client disconnects or the hub stops.
func (h *EventHandler) Connect(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		respondError(c, h.log, services.ErrUnauthenticated)
		return
	}

	sseCtx := c.SSE()

	clientID := uuid.New().String()
	client := &sse.Client{
		ID:     clientID,
		UserID: userID,
		Send:   make(chan []byte, 64),
	}

	h.hub.Register(client)
	defer h.hub.Unregister(client)

	if err := sseCtx.SendJSON(map[string]string{
		"type":      "connected",
		"client_id": clientID,
	}, "system", ""); err != nil {
		return
	}

	done := c.Request.Context().Done()
	for {
		select {
		case msg, ok := <-client.Send:
			if !ok {
				return
			}
			if err := sseCtx.Send(string(msg), "message", ""); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
