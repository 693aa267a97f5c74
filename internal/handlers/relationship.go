package handlers

import (
	"net/http"

	"github.com/dimitrije/coachlink-api/internal/middleware"
	"github.com/dimitrije/coachlink-api/internal/models"
	"github.com/dimitrije/coachlink-api/internal/sse"
	"github.com/dimitrije/coachlink-api/pkg/dto"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"go.uber.org/zap"
)

type RelationshipHandler struct {
	relationships RelationshipServiceInterface
	notifier      Notifier
	log           *zap.SugaredLogger
}

func NewRelationshipHandler(relationships RelationshipServiceInterface, notifier Notifier, log *zap.SugaredLogger) *RelationshipHandler {
	return &RelationshipHandler{relationships: relationships, notifier: notifier, log: log}
}

func (h *RelationshipHandler) List(c *drift.Context) {
	status := models.RelationshipStatus(c.QueryParam("status"))
	if status != "" && !status.Valid() {
		badRequest(c, "invalid status filter")
		return
	}

	identity := middleware.GetIdentity(c)
	relationships, err := h.relationships.ListRelationships(c.Request.Context(), identity, status)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	_ = c.JSON(http.StatusOK, toRelationshipResponses(relationships, identity.UserID))
}

func (h *RelationshipHandler) Connect(c *drift.Context) {
	var req dto.ConnectRequest
	if err := c.BindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if req.Email == "" {
		badRequest(c, "email is required")
		return
	}

	identity := middleware.GetIdentity(c)
	result, err := h.relationships.ConnectByEmail(c.Request.Context(), identity, models.RelationshipKind(req.Kind), req.Email)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
		if h.notifier != nil {
			rel := result.Relationship
			h.notifier.Publish(rel.PartyBID, sse.RelationshipCreated(sse.RelationshipCreatedEvent{
				RelationshipID: rel.ID,
				Kind:           string(rel.Kind),
				InviterID:      rel.PartyAID,
			}))
		}
	}
	_ = c.JSON(status, dto.ConnectResponse{
		Relationship: toRelationshipResponse(*result.Relationship, identity.UserID),
		Created:      result.Created,
	})
}

func (h *RelationshipHandler) Remove(c *drift.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "invalid relationship id")
		return
	}

	if err := h.relationships.RemoveRelationship(c.Request.Context(), id, middleware.GetIdentity(c)); err != nil {
		respondError(c, h.log, err)
		return
	}

	_ = c.JSON(http.StatusOK, map[string]string{"message": "relationship removed"})
}
