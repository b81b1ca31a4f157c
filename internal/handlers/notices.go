package handlers

import (
	"net/http"
	"strings"

	"heat_controller/internal/service"

	"github.com/gin-gonic/gin"
)

// @Summary      List notices
// @Description  Connectivity changes, resets and purges. Filter by date (RFC3339, 'YYYY-MM-DD HH:MM:SS', 'YYYY-MM-DD' or epoch seconds) and kind.
// @Tags         notices
// @Produce      json
// @Param        from  query     string  false  "Start of range"  example(2025-08-01)
// @Param        to    query     string  false  "End of range. Date-only covers the whole day."  example(2025-08-31)
// @Param        kind  query     string  false  "Notice kind"  Enums(CACHE_RESET,PREFS_RESET,CONNECTIVITY_LOST,CONNECTIVITY_RESTORED,PURGE)
// @Success      200   {object}  map[string]interface{}  "count, notices"
// @Failure      400   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/notices [get]
func (h *Handler) getNotices(c *gin.Context) {
	r, ok := parseRange(c)
	if !ok {
		return
	}
	kind := strings.ToUpper(strings.TrimSpace(c.Query("kind")))
	notices, err := h.services.NoticeLog.List(c.Request.Context(), service.LogFilter{
		From: r.From,
		To:   r.To,
		Kind: kind,
	})
	if err != nil {
		h.logAndJSONError(c, "failed to load notices", "notices_list_failed", err, "from", r.From, "to", r.To, "kind", kind)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":   len(notices),
		"notices": notices,
	})
}
