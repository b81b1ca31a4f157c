package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"heat_controller/internal/loader"
	"heat_controller/internal/logger"
	"heat_controller/internal/metrics"
	"heat_controller/internal/models"
)

// ----------- Poll defaults -----------
const (
	defaultMinRefresh     = 5 * time.Second
	defaultRefreshPeriod  = 30 * time.Second
	defaultMaxRefresh     = 10 * time.Minute
	passTimeoutMultiplier = 4 // a pass may take this many poll periods before it is cancelled
)

type IngestionDeps struct {
	Device    Device
	Loader    ChunkLoader
	Cache     Cache
	Chart     Framer
	Publisher Publisher
	Metrics   *metrics.Metrics
	Link      *linkState
	Bounds    RefreshBounds
	Log       *logger.Logger
}

// IngestionService runs loading passes against the device, one at a time.
type IngestionService struct {
	device    Device
	loader    ChunkLoader
	cache     Cache
	chart     Framer
	publisher Publisher
	metrics   *metrics.Metrics
	link      *linkState
	bounds    RefreshBounds
	log       *logger.Logger

	passMu  sync.Mutex
	readSec atomic.Uint32
}

func NewIngestionService(d IngestionDeps) *IngestionService {
	b := d.Bounds
	if b.Min <= 0 {
		b.Min = defaultMinRefresh
	}
	if b.Max < b.Min {
		b.Max = max(defaultMaxRefresh, b.Min)
	}
	if b.Default < b.Min || b.Default > b.Max {
		b.Default = min(max(defaultRefreshPeriod, b.Min), b.Max)
	}
	link := d.Link
	if link == nil {
		link = newLinkState(nil, d.Metrics, d.Log)
	}
	return &IngestionService{
		device:    d.Device,
		loader:    d.Loader,
		cache:     d.Cache,
		chart:     d.Chart,
		publisher: d.Publisher,
		metrics:   d.Metrics,
		link:      link,
		bounds:    b,
		log:       logger.OrNop(d.Log).Named("ingest"),
	}
}

// ObserveConfig records the device scan period the poll interval follows.
func (s *IngestionService) ObserveConfig(cfg models.DeviceConfig) {
	s.readSec.Store(uint32(cfg.ReadSec))
}

// Interval is the device scan period clamped to the configured bounds,
// or the default until the device has reported one.
func (s *IngestionService) Interval() time.Duration {
	sec := s.readSec.Load()
	if sec == 0 {
		return s.bounds.Default
	}
	d := time.Duration(sec) * time.Second
	return min(max(d, s.bounds.Min), s.bounds.Max)
}

// Refresh runs one loading pass. Passes never overlap: a forced refresh waits for the
// pass in flight and then runs its own; an unforced one returns ErrRefreshBusy instead.
func (s *IngestionService) Refresh(ctx context.Context, force bool) (loader.Result, error) {
	if force {
		s.passMu.Lock()
	} else if !s.passMu.TryLock() {
		return loader.Result{}, ErrRefreshBusy
	}
	defer s.passMu.Unlock()

	start := time.Now()
	res, err := s.pass(ctx)
	took := time.Since(start)

	s.metrics.IngestPass(took, err)
	s.metrics.CacheState(s.cache.Len(), s.cache.Latest())
	if err != nil {
		s.log.Warnw("ingest_pass_failed",
			"watermark", res.Watermark,
			"fetched", res.Fetched,
			"added", res.Added,
			"took", took,
			"error", err,
		)
		return res, err
	}
	s.log.Infow("ingest_pass",
		"watermark", res.Watermark,
		"fetched", res.Fetched,
		"added", res.Added,
		"pending", res.Pending,
		"took", took,
	)
	return res, nil
}

func (s *IngestionService) pass(ctx context.Context) (loader.Result, error) {
	watermark := s.cache.Latest()
	ov, err := s.device.Overview(ctx)
	s.link.report(ctx, err)
	if err != nil {
		return loader.Result{Watermark: watermark, Chunks: []loader.ChunkResult{}}, err
	}
	s.ObserveConfig(ov.Config)

	res, loadErr := s.loader.Load(ctx, ov.Chunks, watermark)
	if loadErr != nil {
		s.link.report(ctx, loadErr)
	}
	// Lines merged before a failure are durable, so they are announced either way.
	s.announce(ctx, res.Fresh)
	return res, loadErr
}

// announce moves the chart to the new data and publishes it downstream.
func (s *IngestionService) announce(ctx context.Context, fresh []models.LogLine) {
	if len(fresh) == 0 {
		return
	}
	if s.chart != nil {
		s.chart.OnNewPoint(fresh[0].Timestamp * 1000)
		s.chart.OnNewPoint(fresh[len(fresh)-1].Timestamp * 1000)
	}
	if s.publisher == nil {
		return
	}
	n, err := s.publisher.Publish(ctx, fresh)
	s.metrics.Published(n, err)
	if err != nil {
		s.log.Warnw("publish_failed", "lines", len(fresh), "error", err)
	}
}

// Run polls until ctx is canceled. The first pass starts immediately; each next one
// is scheduled after the previous finishes, so passes from the poller never overlap.
func (s *IngestionService) Run(ctx context.Context) {
	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			s.poll(ctx)
			resetTimer(timer, s.Interval())
		}
	}
}

// poll runs one scheduled pass. A tick that finds a manual pass in flight is skipped:
// that pass already covers it and the next tick comes one interval later.
func (s *IngestionService) poll(ctx context.Context) bool {
	passCtx, cancel := context.WithTimeout(ctx, s.Interval()*passTimeoutMultiplier)
	defer cancel()
	_, err := s.Refresh(passCtx, false)
	if errors.Is(err, ErrRefreshBusy) {
		s.log.Debugw("poll_skipped_busy")
		return false
	}
	if err != nil && ctx.Err() == nil {
		s.log.Debugw("poll_pass_error", "error", err)
	}
	return true
}

// resetTimer stops t, drains a pending fire, and rearms it for d.
func resetTimer(t *time.Timer, d time.Duration) {
	if !t.Stop() {
		drainTimer(t)
	}
	if d < 0 {
		d = 0
	}
	t.Reset(d)
}

func drainTimer(t *time.Timer) {
	select {
	case <-t.C:
	default:
	}
}
