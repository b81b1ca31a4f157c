package service

import (
	"context"
	"errors"
	"time"

	"heat_controller/internal/chart"
	"heat_controller/internal/loader"
	"heat_controller/internal/models"
)

var (
	ErrInvalidTimeRange    = errors.New("invalid time range: from must be <= to")
	ErrPurgeNotConfirmed   = errors.New("purge must be confirmed")
	ErrRefreshBusy         = errors.New("a refresh is already running")
	ErrInvalidDeviceConfig = errors.New("invalid device config")
	ErrInvalidChunkName    = errors.New("invalid chunk name")
)

// TimeRange is a half-open [From, To) window. A zero bound is open.
type TimeRange struct {
	From time.Time
	To   time.Time
}

// LogFilter supports notice filtering by time range and kind.
type LogFilter struct {
	From time.Time // inclusive; zero means no lower bound
	To   time.Time // inclusive; zero means no upper bound
	Kind string    // "", "CACHE_RESET", "PREFS_RESET", "CONNECTIVITY_LOST", ...
}

// ChunkListing is the device log index with flash usage.
type ChunkListing struct {
	Chunks     []models.RemoteChunk  `json:"chunks"`
	FileSystem models.FileSystemInfo `json:"fs"`
}

// RefreshBounds clamps the poll interval derived from the device scan period.
type RefreshBounds struct {
	Min     time.Duration
	Default time.Duration
	Max     time.Duration
}

// Device is the subset of the device client the services call.
type Device interface {
	Overview(ctx context.Context) (models.DeviceOverview, error)
	SetConfig(ctx context.Context, cfg models.DeviceConfig) (models.DeviceOverview, error)
	SetSensors(ctx context.Context, sensors []models.SensorWeight) (models.DeviceOverview, error)
	Snapshot(ctx context.Context, force bool) (models.Snapshot, error)
	DeleteChunk(ctx context.Context, name string) (bool, error)
}

type ChunkLoader interface {
	Load(ctx context.Context, chunks []models.RemoteChunk, watermark int64) (loader.Result, error)
}

// Cache is the part of the local cache the services read and purge.
type Cache interface {
	Lines() []models.LogLine
	Range(from, to int64) []models.LogLine
	PurgeRange(start, end int64) int
	Persist(ctx context.Context) error
	Latest() int64
	Earliest() int64
	Len() int
}

// Framer is told when the data range moves.
type Framer interface {
	OnNewPoint(tsMs int64) chart.State
	SetDataRange(earliestMs, latestMs int64) chart.State
}

type Publisher interface {
	Publish(ctx context.Context, lines []models.LogLine) (int, error)
}

// normalizeToUTC returns t in UTC, preserving zero time values.
func normalizeToUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}

// bounds converts r to epoch seconds, keeping zero bounds open.
func (r TimeRange) bounds() (int64, int64, error) {
	var from, to int64
	if !r.From.IsZero() {
		from = r.From.Unix()
	}
	if !r.To.IsZero() {
		to = r.To.Unix()
	}
	if from != 0 && to != 0 && from > to {
		return 0, 0, ErrInvalidTimeRange
	}
	return from, to, nil
}
