package handlers

import (
	"net/http"

	"github.com/dimitrije/coachlink-api/internal/middleware"
	"github.com/dimitrije/coachlink-api/internal/models"
	"github.com/dimitrije/coachlink-api/internal/services"
	"github.com/dimitrije/coachlink-api/internal/sse"
	"github.com/dimitrije/coachlink-api/pkg/dto"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"go.uber.org/zap"
)

type InvitationHandler struct {
	invitations InvitationServiceInterface
	mailer      InvitationMailer
	notifier    Notifier
	log         *zap.SugaredLogger
}

// NewInvitationHandler wires the invitation routes. mailer and notifier may be nil.
func NewInvitationHandler(invitations InvitationServiceInterface, mailer InvitationMailer, notifier Notifier, log *zap.SugaredLogger) *InvitationHandler {
	return &InvitationHandler{invitations: invitations, mailer: mailer, notifier: notifier, log: log}
}

func (h *InvitationHandler) Create(c *drift.Context) {
	var req dto.CreateInvitationRequest
	if err := c.BindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	inv, err := h.invitations.CreateInvitation(c.Request.Context(), middleware.GetIdentity(c), services.CreateInvitationInput{
		Kind:            models.RelationshipKind(req.Kind),
		RestrictedEmail: req.RestrictedEmail,
		TTLDays:         req.TTLDays,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	if inv.RestrictedEmail != nil && h.mailer != nil && h.mailer.IsConfigured() {
		inviterName := ""
		if inv.Inviter != nil {
			inviterName = inv.Inviter.Name
		}
		if err := h.mailer.SendInvitationCode(*inv.RestrictedEmail, inviterName, string(inv.Kind), inv.Code, inv.ExpiresAt); err != nil {
			h.log.Warnw("failed to email invitation code", "invitation_id", inv.ID, "error", err)
		}
	}

	_ = c.JSON(http.StatusCreated, toInvitationResponse(*inv))
}

func (h *InvitationHandler) List(c *drift.Context) {
	status := models.InvitationStatus(c.QueryParam("status"))
	if status != "" && !status.Valid() {
		badRequest(c, "invalid status filter")
		return
	}

	invitations, err := h.invitations.ListInvitations(c.Request.Context(), middleware.GetIdentity(c), status)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	_ = c.JSON(http.StatusOK, toInvitationResponses(invitations))
}

func (h *InvitationHandler) Get(c *drift.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "invalid invitation id")
		return
	}

	inv, err := h.invitations.GetInvitation(c.Request.Context(), id, middleware.GetIdentity(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	_ = c.JSON(http.StatusOK, toInvitationResponse(*inv))
}

func (h *InvitationHandler) Revoke(c *drift.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "invalid invitation id")
		return
	}

	if err := h.invitations.RevokeInvitation(c.Request.Context(), id, middleware.GetIdentity(c)); err != nil {
		respondError(c, h.log, err)
		return
	}

	_ = c.JSON(http.StatusOK, map[string]string{"message": "invitation revoked"})
}

func (h *InvitationHandler) Validate(c *drift.Context) {
	inv, err := h.invitations.ValidateCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	_ = c.JSON(http.StatusOK, dto.CodeValidationResponse{
		Kind:            string(inv.Kind),
		RestrictedEmail: inv.RestrictedEmail,
		ExpiresAt:       inv.ExpiresAt,
		Inviter:         toPublicUser(inv.Inviter),
	})
}

func (h *InvitationHandler) Accept(c *drift.Context) {
	identity := middleware.GetIdentity(c)
	result, err := h.invitations.AcceptInvitation(c.Request.Context(), c.Param("code"), identity)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	rel := *result.Relationship
	rel.Counterpart = result.Inviter
	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
		h.notifyAccepted(rel)
	}
	_ = c.JSON(status, dto.AcceptInvitationResponse{
		Relationship: toRelationshipResponse(rel, identity.UserID),
		Created:      result.Created,
	})
}

func (h *InvitationHandler) notifyAccepted(rel models.Relationship) {
	if h.notifier == nil || rel.InvitationID == nil {
		return
	}
	h.notifier.Publish(rel.PartyAID, sse.InvitationAccepted(sse.InvitationAcceptedEvent{
		InvitationID:   *rel.InvitationID,
		RelationshipID: rel.ID,
		Kind:           string(rel.Kind),
		InviteeID:      rel.PartyBID,
		AcceptedAt:     rel.CreatedAt,
	}))
}
