package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"booksearch/internal/models"
	"booksearch/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	errFromInvalid = "invalid 'from' time; use RFC3339 or YYYY-MM-DD"
	errToInvalid   = "invalid 'to' time; use RFC3339 or YYYY-MM-DD"

	layoutDateTime = "2006-01-02 15:04:05"
	layoutDate     = "2006-01-02"
)

// isDateOnly reports whether the query string represents a date without time component.
func isDateOnly(s string) bool {
	return !strings.ContainsAny(s, "T ")
}

// @Summary      List saved-book activity
// @Description  The caller's save/delete history, oldest first. A date-only 'to' covers that whole day.
// @Tags         activity
// @Produce      json
// @Param        from  query   string  false  "Start of range (RFC3339, 'YYYY-MM-DD HH:MM:SS', or 'YYYY-MM-DD')"  example(2025-08-01)
// @Param        to    query   string  false  "End of range (RFC3339, 'YYYY-MM-DD HH:MM:SS', or 'YYYY-MM-DD')"  example(2025-08-31)
// @Param        type  query   string  false  "Activity type"  Enums(BOOK_SAVED,BOOK_DELETED)
// @Success      200   {object}  map[string]interface{}  "count, activities"
// @Failure      400   {object}  ErrorResponse
// @Failure      401   {object}  ErrorResponse
// @Failure      503   {object}  ErrorResponse
// @Router       /api/v1/activity [get]
// @Security     BearerAuth
func (h *Handler) getActivity(c *gin.Context) {
	caller, ok := h.mustCaller(c)
	if !ok {
		return
	}
	var (
		from time.Time
		to   time.Time
		typ  = strings.ToUpper(strings.TrimSpace(c.Query("type")))
		err  error
	)
	if qs := c.Query("from"); qs != "" {
		from, err = parseQueryTime(qs)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: errFromInvalid, Code: "invalid_input"})
			return
		}
	}
	if qs := c.Query("to"); qs != "" {
		to, err = parseQueryTime(qs)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: errToInvalid, Code: "invalid_input"})
			return
		}
		if isDateOnly(qs) {
			to = to.Add(24*time.Hour - time.Nanosecond).UTC()
		}
	}

	activities, err := h.services.ActivityLog.List(c.Request.Context(), caller.UserID, service.LogFilter{
		From: from,
		To:   to,
		Type: typ,
	})
	if err != nil {
		h.respondError(c, "activity_list_failed", err, "from", from, "to", to, "type", typ)
		return
	}
	if activities == nil {
		activities = []models.Activity{}
	}
	c.JSON(http.StatusOK, gin.H{
		"count":      len(activities),
		"activities": activities,
	})
}

func parseQueryTime(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, layoutDateTime, layoutDate} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time format %q", s)
}
