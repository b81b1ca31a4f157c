package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"heat_controller/internal/logger"
	"heat_controller/internal/models"
	"heat_controller/internal/repository"
	"heat_controller/internal/stats"
	"heat_controller/internal/timeline"
)

type HistoryService struct {
	cache   Cache
	chart   Framer
	notices repository.NoticeRepo
	log     *logger.Logger
	now     func() time.Time

	// passes, when set, keeps purges out of ingestion passes.
	passes sync.Locker
}

func NewHistoryService(cache Cache, chart Framer, notices repository.NoticeRepo, log *logger.Logger) *HistoryService {
	return &HistoryService{
		cache:   cache,
		chart:   chart,
		notices: notices,
		log:     logger.OrNop(log).Named("history"),
		now:     time.Now,
	}
}

// Lines returns cached lines in [From, To).
func (s *HistoryService) Lines(_ context.Context, r TimeRange) ([]models.LogLine, error) {
	from, to, err := r.bounds()
	if err != nil {
		return nil, err
	}
	return s.cache.Range(from, to), nil
}

// Timeline reconstructs the whole cache, then keeps what touches [From, To).
// Reconstruction runs over everything so an interval that opened before From keeps its start.
func (s *HistoryService) Timeline(_ context.Context, r TimeRange) (models.Timeline, error) {
	from, to, err := r.bounds()
	if err != nil {
		return models.Timeline{}, err
	}
	return timeline.Clip(timeline.Reconstruct(s.cache.Lines()), from, to), nil
}

// Stats computes active time and duty cycle over [From, To). An open To means now;
// an open From means the oldest cached line.
func (s *HistoryService) Stats(_ context.Context, r TimeRange) (models.StatWindow, error) {
	if _, _, err := r.bounds(); err != nil {
		return models.StatWindow{}, err
	}
	from, to := normalizeToUTC(r.From), normalizeToUTC(r.To)
	if to.IsZero() {
		to = s.now().UTC()
	}
	if from.IsZero() {
		if earliest := s.cache.Earliest(); earliest != 0 {
			from = time.Unix(earliest, 0).UTC()
		} else {
			from = to
		}
	}
	tl := timeline.Reconstruct(s.cache.Lines())
	return stats.Window(tl.Intervals, from, to), nil
}

// Summary reports the standard look-back periods ending at now.
func (s *HistoryService) Summary(_ context.Context, now time.Time) (map[string]models.StatWindow, error) {
	if now.IsZero() {
		now = s.now()
	}
	tl := timeline.Reconstruct(s.cache.Lines())
	return stats.Summary(tl.Intervals, now.UTC(), stats.StandardPeriods), nil
}

// Purge deletes cached lines in [From, To) and persists the result. It refuses to run
// unless confirm is set. Lines still held by the device come back on the next full load.
func (s *HistoryService) Purge(ctx context.Context, r TimeRange, confirm bool) (int, error) {
	if !confirm {
		return 0, ErrPurgeNotConfirmed
	}
	from, to, err := r.bounds()
	if err != nil {
		return 0, err
	}
	if s.passes != nil {
		s.passes.Lock()
		defer s.passes.Unlock()
	}
	if to == 0 {
		to = s.cache.Latest() + 1
	}
	removed := s.cache.PurgeRange(from, to)
	if removed == 0 {
		return 0, nil
	}
	if err := s.cache.Persist(ctx); err != nil {
		return removed, fmt.Errorf("persist after purge: %w", err)
	}
	s.log.Infow("cache_purged", "from", from, "to", to, "removed", removed)

	if s.chart != nil {
		s.chart.SetDataRange(s.cache.Earliest()*1000, s.cache.Latest()*1000)
	}
	if s.notices != nil {
		n := models.Notice{
			Kind:     models.NoticePurge,
			Message:  fmt.Sprintf("Removed %d cached lines.", removed),
			Metadata: map[string]any{"from": from, "to": to, "removed": removed},
		}
		if err := s.notices.Append(ctx, n); err != nil {
			s.log.Warnw("notice_append_failed", "kind", n.Kind, "error", err)
		}
	}
	return removed, nil
}
