package handlers

import (
	"net/http"

	"heat_controller/internal/device"
	"heat_controller/internal/models"

	"github.com/gin-gonic/gin"
)

// SensorsRequest carries sensor weights in the firmware's string form or as a list.
type SensorsRequest struct {
	// "a a a a a a a a w,..." as shown by the device
	Raw     string                `json:"raw,omitempty" example:"40 12 1 2 3 4 5 6 50,40 9 8 7 6 5 4 3 50"`
	Sensors []models.SensorWeight `json:"sensors,omitempty"`
}

// @Summary      Device config
// @Description  Thresholds, timers, sensors, chunk index and flash usage.
// @Tags         device
// @Produce      json
// @Success      200  {object}  models.DeviceOverview
// @Failure      502  {object}  map[string]string
// @Router       /api/v1/device/config [get]
func (h *Handler) getDeviceConfig(c *gin.Context) {
	ov, err := h.services.DeviceAdmin.Overview(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, "device request failed", "device_overview_failed", err)
		return
	}
	c.JSON(http.StatusOK, ov)
}

// @Summary      Update device config
// @Tags         device
// @Accept       json
// @Produce      json
// @Param        body  body      models.DeviceConfig  true  "Thresholds and timers"
// @Success      200   {object}  models.DeviceOverview
// @Failure      400   {object}  map[string]string
// @Failure      502   {object}  map[string]string
// @Router       /api/v1/device/config [put]
func (h *Handler) putDeviceConfig(c *gin.Context) {
	var req models.DeviceConfig
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	ov, err := h.services.DeviceAdmin.SetConfig(c.Request.Context(), req)
	if err != nil {
		h.logAndJSONError(c, "device request failed", "device_set_config_failed", err)
		return
	}
	c.JSON(http.StatusOK, ov)
}

// @Summary      Update sensor weights
// @Tags         device
// @Accept       json
// @Produce      json
// @Param        body  body      SensorsRequest  true  "Sensors"
// @Success      200   {object}  models.DeviceOverview
// @Failure      400   {object}  map[string]string
// @Failure      502   {object}  map[string]string
// @Router       /api/v1/device/sensors [put]
func (h *Handler) putSensors(c *gin.Context) {
	var req SensorsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	sensors := req.Sensors
	if req.Raw != "" {
		parsed, err := device.ParseSensors(req.Raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
			return
		}
		sensors = parsed
	}
	ov, err := h.services.DeviceAdmin.SetSensors(c.Request.Context(), sensors)
	if err != nil {
		h.logAndJSONError(c, "device request failed", "device_set_sensors_failed", err, "sensors", len(sensors))
		return
	}
	c.JSON(http.StatusOK, ov)
}

// @Summary      List device log chunks
// @Tags         device
// @Produce      json
// @Success      200  {object}  service.ChunkListing
// @Failure      502  {object}  map[string]string
// @Router       /api/v1/device/chunks [get]
func (h *Handler) getChunks(c *gin.Context) {
	list, err := h.services.DeviceAdmin.Chunks(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, "device request failed", "device_chunks_failed", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// @Summary      Delete a device log chunk
// @Tags         device
// @Produce      json
// @Param        name  path      string  true  "Chunk name (YYMMDD or YYMMDD_N)"
// @Success      200   {object}  map[string]interface{}  "deleted"
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      502   {object}  map[string]string
// @Router       /api/v1/device/chunks/{name} [delete]
func (h *Handler) deleteChunk(c *gin.Context) {
	name := c.Param("name")
	ok, err := h.services.DeviceAdmin.DeleteChunk(c.Request.Context(), name)
	if err != nil {
		h.logAndJSONError(c, "device request failed", "device_delete_chunk_failed", err, "name", name)
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no such chunk on device", "name": name})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": name})
}
