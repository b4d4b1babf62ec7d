package handlers

import (
	"net/http"

	"linkvault/internal/services"

	"github.com/gin-gonic/gin"
)

// RateLimitMiddleware applies the per-IP token bucket to every request.
func (h *Handler) RateLimitMiddleware(limiter *services.IPRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		l := limiter.GetLimiter(ip)
		if !l.Allow() {
			h.metrics.IncRateLimited("global")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Rate limit exceeded. Please try again later.",
			})
			return
		}
		c.Next()
	}
}
