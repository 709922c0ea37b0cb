package ratelimit

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"scheduling-service/internal/apperrors"
	"scheduling-service/internal/logger"
)

// Middleware rejects requests over the limit with 429. When the limiter
// itself fails the request passes if failOpen is set.
func Middleware(limiter Limiter, log *logger.Logger, failOpen bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, err := limiter.Allow(c.Request.Context(), c.FullPath()+"|"+c.ClientIP())
		if err != nil {
			log.Warn("rate limiter error", "error", err)
			if failOpen {
				c.Next()
				return
			}
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "rate limiter unavailable"})
			return
		}
		if !allowed {
			appErr := apperrors.TooManyRequests()
			c.AbortWithStatusJSON(appErr.HTTPStatus, gin.H{"error": appErr.Message, "code": appErr.Code})
			return
		}
		c.Next()
	}
}
