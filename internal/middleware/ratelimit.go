package middleware

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/dimitrije/coachlink-api/internal/limiter"
	"github.com/dimitrije/coachlink-api/pkg/dto"
	"github.com/m1z23r/drift/pkg/drift"
	"go.uber.org/zap"
)

type RateLimitConfig struct {
	Limiter limiter.Limiter
	Window  time.Duration
	// OnLimited is called for every rejected request.
	OnLimited func()
	Log       *zap.SugaredLogger
}

// RateLimit throttles code lookups per authenticated user. It must run after Auth. When
// the limiter itself fails the request is let through.
func RateLimit(cfg RateLimitConfig) drift.HandlerFunc {
	if cfg.Log == nil {
		cfg.Log = zap.NewNop().Sugar()
	}
	retryAfter := strconv.Itoa(int(math.Ceil(cfg.Window.Seconds())))

	return func(c *drift.Context) {
		userID := GetUserID(c)
		allowed, err := cfg.Limiter.Allow(c.Request.Context(), userID.String())
		if err != nil {
			cfg.Log.Warnw("attempt limiter unavailable, allowing request", "user_id", userID, "error", err)
			c.Next()
			return
		}
		if !allowed {
			if cfg.OnLimited != nil {
				cfg.OnLimited()
			}
			c.Abort()
			c.Response.Header().Set("Retry-After", retryAfter)
			_ = c.JSON(http.StatusTooManyRequests, dto.ErrorResponse{
				Error: "too many invitation code attempts, try again later",
				Code:  "rate_limited",
			})
			return
		}
		c.Next()
	}
}
