package middleware

import (
	"net/http"
	"strings"

	"github.com/dimitrije/coachlink-api/internal/services"
	"github.com/dimitrije/coachlink-api/pkg/dto"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
)

const identityKey = "identity"

type TokenValidator interface {
	ValidateAccessToken(token string) (*services.Claims, error)
}

// Auth rejects requests without a valid bearer access token and puts the caller's
// Identity on the context for the handlers behind it.
func Auth(validator TokenValidator) drift.HandlerFunc {
	return func(c *drift.Context) {
		token, reason := bearerToken(c.GetHeader("Authorization"))
		if reason != "" {
			unauthenticated(c, reason)
			return
		}

		claims, err := validator.ValidateAccessToken(token)
		if err != nil {
			unauthenticated(c, "invalid or expired token")
			return
		}

		c.Set(identityKey, claims.Identity())
		c.Next()
	}
}

// bearerToken splits an Authorization header. A non-empty reason means the header is
// unusable.
func bearerToken(header string) (token, reason string) {
	if header == "" {
		return "", "missing authorization header"
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
		return "", "invalid authorization header format"
	}
	return strings.TrimSpace(token), ""
}

func unauthenticated(c *drift.Context, message string) {
	c.Abort()
	_ = c.JSON(http.StatusUnauthorized, dto.ErrorResponse{
		Error: message,
		Code:  string(services.KindUnauthenticated),
	})
}

// GetIdentity returns the caller asserted by the access token, or a zero Identity.
func GetIdentity(c *drift.Context) services.Identity {
	if v, ok := c.Get(identityKey); ok {
		if identity, ok := v.(services.Identity); ok {
			return identity
		}
	}
	return services.Identity{}
}

func GetUserID(c *drift.Context) uuid.UUID {
	return GetIdentity(c).UserID
}
