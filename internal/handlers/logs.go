package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"home_climate/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	layoutDateTime = "2006-01-02 15:04:05"
	layoutDate     = "2006-01-02"
)

var queryTimeLayouts = []string{time.RFC3339, layoutDateTime, layoutDate}

// @Summary      List audit events
// @Description  Program and archive transitions filtered by time range and type. A date-only 'to' covers that whole day.
// @Tags         logs
// @Produce      json
// @Param        from  query   string  false  "Start of range (RFC3339, 'YYYY-MM-DD HH:MM:SS', or 'YYYY-MM-DD')"  example(2025-08-01)
// @Param        to    query   string  false  "End of range, inclusive"  example(2025-08-31)
// @Param        type  query   string  false  "Event type"  Enums(PROGRAM_ACTIVATED,PROGRAM_DEACTIVATED,PROGRAM_ROLLED_BACK,ARCHIVE_COMPACTED,ARCHIVE_CLEANED,ARCHIVE_FAILED)
// @Success      200   {object}  map[string]interface{}  "count, events"
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/logs [get]
// @Security     BearerAuth
func (h *Handler) getLogs(c *gin.Context) {
	from, err := queryBound(c, "from", false)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	to, err := queryBound(c, "to", true)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	filter := service.LogFilter{From: from, To: to, Type: strings.ToUpper(strings.TrimSpace(c.Query("type")))}
	events, err := h.services.EventLog.List(c.Request.Context(), filter)
	switch {
	case errors.Is(err, service.ErrInvalidTimeRange), errors.Is(err, service.ErrUnknownEventType):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case err != nil:
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to load logs", "logs_list_failed", err, "type", filter.Type)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(events), "events": events})
}

// queryBound parses an optional time query parameter. With endOfDay set, a
// date without a clock time is stretched to the last nanosecond of that day.
func queryBound(c *gin.Context, name string, endOfDay bool) (time.Time, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return time.Time{}, nil
	}
	for _, layout := range queryTimeLayouts {
		t, err := time.Parse(layout, raw)
		if err != nil {
			continue
		}
		if endOfDay && layout == layoutDate {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		return t.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("invalid %q time %q; use RFC3339, 'YYYY-MM-DD HH:MM:SS' or 'YYYY-MM-DD'", name, raw)
}
