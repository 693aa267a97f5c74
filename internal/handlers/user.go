package handlers

import (
	"net/http"

	"github.com/dimitrije/coachlink-api/internal/middleware"
	"github.com/dimitrije/coachlink-api/internal/services"
	"github.com/dimitrije/coachlink-api/pkg/dto"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"go.uber.org/zap"
)

type UserHandler struct {
	userService UserServiceInterface
	log         *zap.SugaredLogger
}

func NewUserHandler(userService UserServiceInterface, log *zap.SugaredLogger) *UserHandler {
	return &UserHandler{userService: userService, log: log}
}

func (h *UserHandler) GetMe(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		respondError(c, h.log, services.ErrUnauthenticated)
		return
	}

	user, err := h.userService.GetByID(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	_ = c.JSON(http.StatusOK, toUserResponse(user))
}

func (h *UserHandler) UpdateMe(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		respondError(c, h.log, services.ErrUnauthenticated)
		return
	}

	var req dto.UpdateUserRequest
	if err := c.BindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	if req.Name == "" {
		badRequest(c, "name is required")
		return
	}

	user, err := h.userService.Update(c.Request.Context(), userID, req.Name)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	_ = c.JSON(http.StatusOK, toUserResponse(user))
}
