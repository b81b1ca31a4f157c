package service

import (
	"context"
	"time"

	"heat_controller/internal/chart"
	"heat_controller/internal/loader"
	"heat_controller/internal/logger"
	"heat_controller/internal/metrics"
	"heat_controller/internal/models"
	"heat_controller/internal/repository"
)

// Ingestion pulls new log lines from the device into the local cache.
// Stop Run via context cancellation in main() for graceful shutdown.
type Ingestion interface {
	Refresh(ctx context.Context, force bool) (loader.Result, error)
	Run(ctx context.Context)
	Interval() time.Duration
}

// Monitoring exposes the live device state.
type Monitoring interface {
	Status(ctx context.Context, force bool) (models.Status, error)
}

// History answers questions about the cached log.
type History interface {
	Lines(ctx context.Context, r TimeRange) ([]models.LogLine, error)
	Timeline(ctx context.Context, r TimeRange) (models.Timeline, error)
	Stats(ctx context.Context, r TimeRange) (models.StatWindow, error)
	Summary(ctx context.Context, now time.Time) (map[string]models.StatWindow, error)
	Purge(ctx context.Context, r TimeRange, confirm bool) (int, error)
}

// Chart is the live chart framing; *chart.Controller implements it.
type Chart interface {
	State() chart.State
	Subscribe(fn func(chart.State)) func()
	SetPeriod(ctx context.Context, periodMs int64) (chart.State, error)
	SetPreset(ctx context.Context, name string) (chart.State, error)
	ZoomOut(ctx context.Context) (chart.State, error)
	OnUserSelection(ctx context.Context, minMs, maxMs int64) (chart.State, error)
	SetToggles(ctx context.Context, toggles models.DisplayToggles) (chart.State, error)
}

// DeviceAdmin reads and changes device settings and log files.
type DeviceAdmin interface {
	Overview(ctx context.Context) (models.DeviceOverview, error)
	SetConfig(ctx context.Context, cfg models.DeviceConfig) (models.DeviceOverview, error)
	SetSensors(ctx context.Context, sensors []models.SensorWeight) (models.DeviceOverview, error)
	Chunks(ctx context.Context) (ChunkListing, error)
	DeleteChunk(ctx context.Context, name string) (bool, error)
}

// NoticeLog exposes the append-only notice history with filtering.
type NoticeLog interface {
	List(ctx context.Context, f LogFilter) ([]models.Notice, error)
}

// Service aggregates all sub-services.
type Service struct {
	Ingestion
	Monitoring
	History
	Chart
	DeviceAdmin
	NoticeLog
}

// Deps carries the long-lived components the services share.
type Deps struct {
	Repos     *repository.Repository
	Device    Device
	Loader    ChunkLoader
	Cache     Cache
	Chart     *chart.Controller
	Publisher Publisher
	Metrics   *metrics.Metrics
	Refresh   RefreshBounds
	Log       *logger.Logger
}

// NewService wires the shared components into concrete services.
func NewService(d Deps) *Service {
	link := newLinkState(d.Repos.NoticeRepo, d.Metrics, d.Log)
	ingest := NewIngestionService(IngestionDeps{
		Device:    d.Device,
		Loader:    d.Loader,
		Cache:     d.Cache,
		Chart:     d.Chart,
		Publisher: d.Publisher,
		Metrics:   d.Metrics,
		Link:      link,
		Bounds:    d.Refresh,
		Log:       d.Log,
	})
	history := NewHistoryService(d.Cache, d.Chart, d.Repos.NoticeRepo, d.Log)
	history.passes = &ingest.passMu
	return &Service{
		Ingestion:   ingest,
		Monitoring:  NewMonitoringService(d.Device, d.Cache, link),
		History:     history,
		Chart:       d.Chart,
		DeviceAdmin: NewDeviceAdminService(d.Device, ingest, link),
		NoticeLog:   NewNoticeLogService(d.Repos.NoticeRepo),
	}
}
