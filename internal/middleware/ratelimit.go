package middleware

import (
	"fmt"
	"net/http"
	"time"

	"anoa.com/skillquest/pkg/apperror"
	"anoa.com/skillquest/pkg/ratelimit"
	"anoa.com/skillquest/pkg/response"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RateLimit allows one request per user per window for action. Anonymous
// requests and Redis outages pass through. Server errors release the window.
func RateLimit(limiter *ratelimit.Limiter, action string, window time.Duration, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := response.GetUserID(c)
		if err != nil {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		allowed, err := limiter.Allow(ctx, userID, action, window)
		if err != nil {
			log.Warn("rate limit check failed", zap.String("action", action), zap.Error(err))
			c.Next()
			return
		}
		if !allowed {
			ttl, _ := limiter.TTL(ctx, userID, action)
			c.Header("Retry-After", fmt.Sprintf("%d", int(ttl.Seconds()+0.5)))
			response.ResponseError(c, apperror.New(http.StatusTooManyRequests, "too many requests, slow down", apperror.ErrRateLimitExceeded))
			c.Abort()
			return
		}
		c.Next()

		if c.Writer.Status() >= http.StatusInternalServerError {
			if err := limiter.Clear(ctx, userID, action); err != nil {
				log.Warn("failed to release rate limit", zap.String("action", action), zap.Error(err))
			}
		}
	}
}
