package handlers

import (
	"net/http"

	"heat_controller/internal/chart"
	"heat_controller/internal/models"

	"github.com/gin-gonic/gin"
)

// PeriodRequest sets the chart period either directly or by preset name.
type PeriodRequest struct {
	// Window width in milliseconds; ignored when preset is set
	PeriodMs int64 `json:"period_ms,omitempty" example:"86400000"`
	// One of 30m, 2h, 6h, 24h, 7d, 30d, 90d, all
	Preset string `json:"preset,omitempty" example:"7d"`
}

// SelectionRequest is a zoom-drag over the chart, in epoch milliseconds.
type SelectionRequest struct {
	MinMs int64 `json:"min_ms" binding:"required" example:"1735689600000"`
	MaxMs int64 `json:"max_ms" binding:"required" example:"1735776000000"`
}

// @Summary      Chart state
// @Tags         chart
// @Produce      json
// @Success      200  {object}  chart.State
// @Router       /api/v1/chart [get]
func (h *Handler) getChart(c *gin.Context) {
	c.JSON(http.StatusOK, h.services.Chart.State())
}

// @Summary      Set chart period
// @Tags         chart
// @Accept       json
// @Produce      json
// @Param        body  body      PeriodRequest  true  "Period payload"
// @Success      200   {object}  chart.State
// @Failure      400   {object}  map[string]string
// @Router       /api/v1/chart/period [post]
func (h *Handler) setPeriod(c *gin.Context) {
	var req PeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	ctx := c.Request.Context()
	var (
		st  chart.State
		err error
	)
	if req.Preset != "" {
		st, err = h.services.Chart.SetPreset(ctx, req.Preset)
	} else {
		st, err = h.services.Chart.SetPeriod(ctx, req.PeriodMs)
	}
	if err != nil {
		h.logAndJSONError(c, "failed to save chart preferences", "chart_period_failed", err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// @Summary      Zoom out
// @Description  Doubles the period, never moving the right edge past the newest point.
// @Tags         chart
// @Produce      json
// @Success      200  {object}  chart.State
// @Router       /api/v1/chart/zoom-out [post]
func (h *Handler) zoomOut(c *gin.Context) {
	st, err := h.services.Chart.ZoomOut(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, "failed to save chart preferences", "chart_zoom_failed", err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// @Summary      Apply zoom selection
// @Tags         chart
// @Accept       json
// @Produce      json
// @Param        body  body      SelectionRequest  true  "Selection payload"
// @Success      200   {object}  chart.State
// @Failure      400   {object}  map[string]string
// @Router       /api/v1/chart/selection [post]
func (h *Handler) setSelection(c *gin.Context) {
	var req SelectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	st, err := h.services.Chart.OnUserSelection(c.Request.Context(), req.MinMs, req.MaxMs)
	if err != nil {
		h.logAndJSONError(c, "failed to save chart preferences", "chart_selection_failed", err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// @Summary      Set band toggles
// @Tags         chart
// @Accept       json
// @Produce      json
// @Param        body  body      models.DisplayToggles  true  "Toggles"
// @Success      200   {object}  chart.State
// @Failure      400   {object}  map[string]string
// @Router       /api/v1/chart/toggles [put]
func (h *Handler) setToggles(c *gin.Context) {
	var req models.DisplayToggles
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	st, err := h.services.Chart.SetToggles(c.Request.Context(), req)
	if err != nil {
		h.logAndJSONError(c, "failed to save chart preferences", "chart_toggles_failed", err)
		return
	}
	c.JSON(http.StatusOK, st)
}
