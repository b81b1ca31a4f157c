package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"heat_controller/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	errFromInvalid = "invalid 'from' time; use RFC3339, 'YYYY-MM-DD HH:MM:SS', YYYY-MM-DD or epoch seconds"
	errToInvalid   = "invalid 'to' time; use RFC3339, 'YYYY-MM-DD HH:MM:SS', YYYY-MM-DD or epoch seconds"

	layoutDateTime = "2006-01-02 15:04:05"
	layoutDate     = "2006-01-02"
)

// isDateOnly reports whether the query string represents a date without time component.
func isDateOnly(s string) bool {
	_, err := time.Parse(layoutDate, s)
	return err == nil
}

func parseQueryTime(s string) (time.Time, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(n, 0).UTC(), nil
	}
	for _, layout := range []string{time.RFC3339, layoutDateTime, layoutDate} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf(
		"invalid time format %q, expected one of: "+
			"RFC3339 (e.g. 2025-08-27T15:04:05Z), "+
			"'YYYY-MM-DD HH:MM:SS', "+
			"'YYYY-MM-DD', "+
			"epoch seconds",
		s,
	)
}

// parseRange reads optional from/to. A date-only 'to' covers that whole day.
// On failure it has already written the 400 response.
func parseRange(c *gin.Context) (service.TimeRange, bool) {
	var r service.TimeRange
	var err error
	if qs := c.Query("from"); qs != "" {
		if r.From, err = parseQueryTime(qs); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": errFromInvalid})
			return r, false
		}
	}
	if qs := c.Query("to"); qs != "" {
		if r.To, err = parseQueryTime(qs); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": errToInvalid})
			return r, false
		}
		if isDateOnly(qs) {
			r.To = r.To.Add(24 * time.Hour)
		}
	}
	if !r.From.IsZero() && !r.To.IsZero() && r.From.After(r.To) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "'from' must be <= 'to'"})
		return r, false
	}
	return r, true
}

// @Summary      List cached lines
// @Description  Lines with from <= ts < to. A date-only 'to' includes that whole day.
// @Tags         history
// @Produce      json
// @Param        from  query     string  false  "Start (RFC3339, 'YYYY-MM-DD HH:MM:SS', 'YYYY-MM-DD' or epoch seconds)"  example(2025-08-01)
// @Param        to    query     string  false  "End, exclusive"  example(2025-08-31)
// @Success      200   {object}  map[string]interface{}  "count, lines"
// @Failure      400   {object}  map[string]string
// @Router       /api/v1/lines [get]
func (h *Handler) getLines(c *gin.Context) {
	r, ok := parseRange(c)
	if !ok {
		return
	}
	lines, err := h.services.History.Lines(c.Request.Context(), r)
	if err != nil {
		h.logAndJSONError(c, "failed to load lines", "lines_list_failed", err, "from", r.From, "to", r.To)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(lines), "lines": lines})
}

// @Summary      Purge cached lines
// @Description  Removes cached lines with from <= ts < to. Requires confirm=true.
// @Tags         history
// @Produce      json
// @Param        from     query     string  false  "Start"
// @Param        to       query     string  false  "End, exclusive; empty means through the newest line"
// @Param        confirm  query     bool    true   "Must be true"
// @Success      200      {object}  map[string]interface{}  "removed"
// @Failure      400      {object}  map[string]string
// @Failure      500      {object}  map[string]string
// @Router       /api/v1/lines [delete]
func (h *Handler) purgeLines(c *gin.Context) {
	r, ok := parseRange(c)
	if !ok {
		return
	}
	removed, err := h.services.History.Purge(c.Request.Context(), r, queryBool(c, "confirm"))
	if err != nil {
		h.logAndJSONError(c, "failed to purge lines", "lines_purge_failed", err, "from", r.From, "to", r.To)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

// @Summary      Relay timeline
// @Description  Relay-on intervals and boot markers touching [from, to).
// @Tags         history
// @Produce      json
// @Param        from  query     string  false  "Start"
// @Param        to    query     string  false  "End, exclusive"
// @Success      200   {object}  models.Timeline
// @Failure      400   {object}  map[string]string
// @Router       /api/v1/timeline [get]
func (h *Handler) getTimeline(c *gin.Context) {
	r, ok := parseRange(c)
	if !ok {
		return
	}
	tl, err := h.services.History.Timeline(c.Request.Context(), r)
	if err != nil {
		h.logAndJSONError(c, "failed to build timeline", "timeline_failed", err)
		return
	}
	c.JSON(http.StatusOK, tl)
}

// @Summary      Window statistics
// @Description  Active time, duty cycle and switch count over [from, to). Defaults: oldest cached line to now.
// @Tags         history
// @Produce      json
// @Param        from  query     string  false  "Start"
// @Param        to    query     string  false  "End, exclusive"
// @Success      200   {object}  models.StatWindow
// @Failure      400   {object}  map[string]string
// @Router       /api/v1/stats [get]
func (h *Handler) getStats(c *gin.Context) {
	r, ok := parseRange(c)
	if !ok {
		return
	}
	w, err := h.services.History.Stats(c.Request.Context(), r)
	if err != nil {
		h.logAndJSONError(c, "failed to compute stats", "stats_failed", err)
		return
	}
	c.JSON(http.StatusOK, w)
}

// @Summary      Standard period summary
// @Tags         history
// @Produce      json
// @Success      200  {object}  map[string]models.StatWindow
// @Router       /api/v1/stats/summary [get]
func (h *Handler) getSummary(c *gin.Context) {
	sum, err := h.services.History.Summary(c.Request.Context(), time.Now())
	if err != nil {
		h.logAndJSONError(c, "failed to compute summary", "summary_failed", err)
		return
	}
	c.JSON(http.StatusOK, sum)
}
