package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RedirectToURL answers with a 302 whose Location is the stored URL exactly
// as saved. c.Redirect is not used because it escapes the target.
func (h *Handler) RedirectToURL(c *gin.Context) {
	shortCode := c.Param("shortCode")

	dest, err := h.resolver.Resolve(c.Request.Context(), shortCode)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.Header("Location", dest)
	c.Header("Cache-Control", "no-store")
	c.Status(http.StatusFound)
}
