package handlers

import (
	"net/http"
	"time"

	"linkvault/internal/repository"

	"github.com/gin-gonic/gin"
)

const dateOnly = "2006-01-02"

// ListAuditLogs filters by page, pageSize, search, user, action, dateFrom and
// dateTo. Dates are RFC 3339 timestamps or plain dates; a plain dateTo covers
// the whole day.
func (h *Handler) ListAuditLogs(c *gin.Context) {
	filter := repository.AuditFilter{
		Search: c.Query("search"),
		User:   c.Query("user"),
		Action: c.Query("action"),
		Page:   repository.NewPage(queryInt(c, "page", 1), queryInt(c, "pageSize", repository.DefaultPageSize), repository.DefaultPageSize),
	}

	if raw := c.Query("dateFrom"); raw != "" {
		from, _, err := parseDate(raw)
		if err != nil {
			respondBadRequest(c, "Invalid dateFrom", nil)
			return
		}
		filter.From = &from
	}
	if raw := c.Query("dateTo"); raw != "" {
		to, dayOnly, err := parseDate(raw)
		if err != nil {
			respondBadRequest(c, "Invalid dateTo", nil)
			return
		}
		if dayOnly {
			to = to.AddDate(0, 0, 1)
		} else {
			to = to.Add(time.Nanosecond)
		}
		filter.Until = &to
	}

	logs, total, err := h.auditService.Query(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": logs, "total": total})
}

func parseDate(raw string) (time.Time, bool, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), false, nil
	}
	t, err := time.Parse(dateOnly, raw)
	if err != nil {
		return time.Time{}, false, err
	}
	return t, true, nil
}
