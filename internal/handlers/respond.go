package handlers

import (
	"net/http"
	"strconv"

	"linkvault/internal/apperr"
	"linkvault/internal/middleware"
	"linkvault/internal/services"

	"github.com/gin-gonic/gin"
)

func (h *Handler) respondError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.KindInternal {
		h.logger.ErrorContext(c.Request.Context(), "Request failed",
			"route", c.FullPath(),
			"error", err,
		)
	}
	c.AbortWithStatusJSON(apperr.HTTPStatus(kind), gin.H{"error": apperr.PublicMessage(err)})
}

func respondBadRequest(c *gin.Context, message string, details gin.H) {
	body := gin.H{"error": message}
	for k, v := range details {
		body[k] = v
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, body)
}

// actorFrom describes the caller for services and audit entries.
func actorFrom(c *gin.Context) services.Actor {
	actor := services.Actor{IP: c.ClientIP()}
	if id, ok := middleware.IdentityFrom(c); ok {
		actor.UserID = id.UserID
		actor.Email = id.Email
		actor.Role = id.Role
	}
	return actor
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondBadRequest(c, "Invalid id", nil)
		return 0, false
	}
	return uint(id), true
}

// queryInt returns the positive integer query value or def.
func queryInt(c *gin.Context, key string, def int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil || v <= 0 {
		return def
	}
	return v
}
