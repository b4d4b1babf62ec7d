package handlers

import (
	"net/http"
	"strings"

	"linkvault/internal/repository"
	"linkvault/internal/services"

	"github.com/gin-gonic/gin"
)

type urlRequest struct {
	OriginalURL string `json:"originalUrl" binding:"required"`
}

func (h *Handler) CreateURL(c *gin.Context) {
	var req urlRequest
	if !BindJSON(c, &req, "originalUrl required") {
		return
	}

	url, err := h.shortenerService.CreateShortURL(c.Request.Context(), actorFrom(c), req.OriginalURL)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, url)
}

// ListURLs returns the caller's own URLs, newest first.
func (h *Handler) ListURLs(c *gin.Context) {
	page := repository.NewPage(queryInt(c, "page", 1), queryInt(c, "pageSize", services.DefaultURLsPage), services.DefaultURLsPage)

	urls, total, err := h.shortenerService.ListURLs(c.Request.Context(), actorFrom(c), c.Query("search"), page)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"urls": urls, "total": total})
}

func (h *Handler) GetURL(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	url, err := h.shortenerService.GetURL(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, url)
}

func (h *Handler) UpdateURL(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req urlRequest
	if !BindJSON(c, &req, "originalUrl required") {
		return
	}

	url, err := h.shortenerService.UpdateURL(c.Request.Context(), actorFrom(c), id, req.OriginalURL)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, url)
}

func (h *Handler) DeleteURL(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.shortenerService.DeleteURL(c.Request.Context(), actorFrom(c), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetQRCode renders a QR code of the public short link. Supports
// ?format=png|svg, ?size=, ?fg= and ?bg= (hex colors).
func (h *Handler) GetQRCode(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	url, err := h.shortenerService.GetURL(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	link := h.qrService.ShortLink(url.ShortCode)
	opts := services.QROptions{
		Size:    queryInt(c, "size", 0),
		FgColor: c.Query("fg"),
		BgColor: c.Query("bg"),
	}

	if strings.EqualFold(c.Query("format"), "svg") {
		svg, err := h.qrService.SVG(link, opts)
		if err != nil {
			h.respondError(c, err)
			return
		}
		c.Data(http.StatusOK, "image/svg+xml", []byte(svg))
		return
	}

	png, err := h.qrService.PNG(link, opts)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}
