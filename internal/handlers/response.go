package handlers

import (
	"errors"
	"net/http"

	"heat_controller/internal/chart"
	"heat_controller/internal/device"
	"heat_controller/internal/service"

	"github.com/gin-gonic/gin"
)

// Common response/status constants to avoid magic strings and typos.
const (
	statusOK = "ok"

	errInvalidBodyPref = "invalid body: "
)

// statusFor maps service and device errors onto HTTP codes:
// 400 for validation, 409 for a busy refresh, 502 when the device failed us, 500 otherwise.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidTimeRange),
		errors.Is(err, service.ErrPurgeNotConfirmed),
		errors.Is(err, service.ErrInvalidDeviceConfig),
		errors.Is(err, service.ErrInvalidChunkName),
		errors.Is(err, chart.ErrInvalidPeriod),
		errors.Is(err, chart.ErrInvalidSelection),
		errors.Is(err, chart.ErrUnknownPreset):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrRefreshBusy):
		return http.StatusConflict
	case errors.Is(err, device.ErrConnectivity), errors.Is(err, device.ErrMalformed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Centralized error logging and response. Client errors echo the cause; server errors
// return userMsg and log the cause.
func (h *Handler) logAndJSONError(c *gin.Context, userMsg, logKey string, err error, kv ...interface{}) {
	code := statusFor(err)
	if code < http.StatusInternalServerError && code != http.StatusBadGateway {
		c.JSON(code, gin.H{"error": err.Error()})
		return
	}
	if h.log != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(code, gin.H{"error": userMsg})
}
