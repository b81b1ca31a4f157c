package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": statusOK})
}

// @Summary      Device status
// @Description  Current sensor snapshot. When the device is unreachable the reply is still 200 with connected=false.
// @Tags         status
// @Produce      json
// @Param        force  query     bool  false  "Ask the device to rescan sensors first"
// @Success      200    {object}  models.Status
// @Failure      502    {object}  map[string]string
// @Failure      500    {object}  map[string]string
// @Router       /api/v1/status [get]
func (h *Handler) getStatus(c *gin.Context) {
	st, err := h.services.Monitoring.Status(c.Request.Context(), queryBool(c, "force"))
	if err != nil {
		h.logAndJSONError(c, "failed to read device status", "status_failed", err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// @Summary      Refresh history
// @Description  Runs one loading pass. With force=1 it waits for a pass already in flight, otherwise it answers 409.
// @Tags         status
// @Produce      json
// @Param        force  query     bool  false  "Wait for a running pass instead of failing"
// @Success      200    {object}  loader.Result
// @Failure      409    {object}  map[string]string
// @Failure      502    {object}  map[string]interface{}  "error and partial result"
// @Router       /api/v1/refresh [post]
func (h *Handler) refresh(c *gin.Context) {
	res, err := h.services.Ingestion.Refresh(c.Request.Context(), queryBool(c, "force"))
	if err != nil {
		code := statusFor(err)
		if h.log != nil && code >= http.StatusInternalServerError {
			h.log.Errorw("refresh_failed", "err", err, "added", res.Added, "fetched", res.Fetched)
		}
		c.JSON(code, gin.H{"error": err.Error(), "result": res})
		return
	}
	c.JSON(http.StatusOK, res)
}

// queryBool accepts 1/true/yes as true.
func queryBool(c *gin.Context, key string) bool {
	switch c.Query(key) {
	case "1", "true", "yes":
		return true
	}
	return false
}
