package handlers

import (
	"net/http"

	"github.com/dimitrije/coachlink-api/internal/services"
	"github.com/dimitrije/coachlink-api/pkg/dto"
	"github.com/m1z23r/drift/pkg/drift"
	"go.uber.org/zap"
)

var kindStatus = map[services.Kind]int{
	services.KindUnauthenticated:         http.StatusUnauthorized,
	services.KindUnauthorized:            http.StatusForbidden,
	services.KindEmailMismatch:           http.StatusForbidden,
	services.KindInvalidCodeFormat:       http.StatusBadRequest,
	services.KindInvalidEmailFormat:      http.StatusBadRequest,
	services.KindInvalidTTL:              http.StatusBadRequest,
	services.KindInvalidKind:             http.StatusBadRequest,
	services.KindInvalidCode:             http.StatusNotFound,
	services.KindNotFound:                http.StatusNotFound,
	services.KindNotRedeemable:           http.StatusConflict,
	services.KindConcurrentClaimLost:     http.StatusConflict,
	services.KindConflictingRelationship: http.StatusConflict,
	services.KindRelationshipInactive:    http.StatusConflict,
	services.KindExpired:                 http.StatusGone,
	services.KindCodeGenerationExhausted: http.StatusServiceUnavailable,
}

// StatusFor maps a service failure to its HTTP status. Untyped errors are 500.
func StatusFor(err error) int {
	if status, ok := kindStatus[services.KindOf(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func respondError(c *drift.Context, log *zap.SugaredLogger, err error) {
	kind := services.KindOf(err)
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		log.Errorw("request failed", "method", c.Request.Method, "path", c.Request.URL.Path, "error", err)
		_ = c.JSON(status, dto.ErrorResponse{Error: "internal server error", Code: "internal"})
		return
	}
	_ = c.JSON(status, dto.ErrorResponse{Error: err.Error(), Code: string(kind)})
}

func badRequest(c *drift.Context, message string) {
	_ = c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: message, Code: "bad_request"})
}
