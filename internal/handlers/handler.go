package handlers

import (
	"heat_controller/internal/logger"
	"heat_controller/internal/metrics"
	"heat_controller/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	metrics  *metrics.Metrics
	log      *logger.Logger
}

// NewHandler constructs a new HTTP handler with dependencies. m may be nil.
func NewHandler(services *service.Service, m *metrics.Metrics, log *logger.Logger) *Handler {
	return &Handler{services: services, metrics: m, log: log}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), h.metrics.GinMiddleware(), h.requestLogger)

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health and scrape endpoints
	router.GET("/health", h.health)
	router.GET("/metrics", gin.WrapH(h.metrics.Handler()))

	h.registerAPIRoutes(router)

	// Status/timeline stream (HTTP upgrade) on the same port
	router.GET("/ws", h.wsConnect)

	return router
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		api.GET("/status", h.getStatus)
		api.POST("/refresh", h.refresh)
		h.registerHistoryRoutes(api)
		h.registerChartRoutes(api)
		h.registerDeviceRoutes(api)
		api.GET("/notices", h.getNotices)
	}
}

func (h *Handler) registerHistoryRoutes(api *gin.RouterGroup) {
	api.GET("/lines", h.getLines)
	api.DELETE("/lines", h.purgeLines)
	api.GET("/timeline", h.getTimeline)
	api.GET("/stats", h.getStats)
	api.GET("/stats/summary", h.getSummary)
}

func (h *Handler) registerChartRoutes(api *gin.RouterGroup) {
	chart := api.Group("/chart")
	{
		chart.GET("", h.getChart)
		// Body example: {"period_ms":86400000} or {"preset":"7d"}
		chart.POST("/period", h.setPeriod)
		chart.POST("/zoom-out", h.zoomOut)
		chart.POST("/selection", h.setSelection)
		chart.PUT("/toggles", h.setToggles)
	}
}

func (h *Handler) registerDeviceRoutes(api *gin.RouterGroup) {
	dev := api.Group("/device")
	{
		dev.GET("/config", h.getDeviceConfig)
		dev.PUT("/config", h.putDeviceConfig)
		dev.PUT("/sensors", h.putSensors)
		dev.GET("/chunks", h.getChunks)
		dev.DELETE("/chunks/:name", h.deleteChunk)
	}
}
