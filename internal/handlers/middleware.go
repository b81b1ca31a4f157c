package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
)

// requestLogger writes one structured line per request; 5xx responses log at error level.
func (h *Handler) requestLogger(c *gin.Context) {
	start := time.Now()
	c.Next()
	if h.log == nil {
		return
	}
	fields := []interface{}{
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"status", c.Writer.Status(),
		"took", time.Since(start),
	}
	switch {
	case c.Writer.Status() >= 500:
		h.log.Errorw("http_request", fields...)
	case c.Request.URL.Path == "/health" || c.Request.URL.Path == "/metrics":
		h.log.Debugw("http_request", fields...)
	default:
		h.log.Infow("http_request", fields...)
	}
}
