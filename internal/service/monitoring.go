package service

import (
	"context"
	"time"

	"heat_controller/internal/models"
)

type MonitoringService struct {
	device Device
	cache  Cache
	link   *linkState
	now    func() time.Time
}

func NewMonitoringService(device Device, cache Cache, link *linkState) *MonitoringService {
	if link == nil {
		link = newLinkState(nil, nil, nil)
	}
	return &MonitoringService{device: device, cache: cache, link: link, now: time.Now}
}

// Status reads the current sensor state. An unreachable device is not an error here:
// the status reports connected=false with the cached watermark so callers can keep
// showing history.
func (s *MonitoringService) Status(ctx context.Context, force bool) (models.Status, error) {
	st := models.Status{
		CheckedAt:  s.now().UTC(),
		CachedRows: s.cache.Len(),
		Watermark:  s.cache.Latest(),
	}
	snap, err := s.device.Snapshot(ctx, force)
	s.link.report(ctx, err)
	if err != nil {
		connected, lastErr := s.link.snapshot()
		st.Connected = connected
		st.LastError = lastErr
		if connected {
			// reachable but the reply was unusable
			return st, err
		}
		return st, nil
	}
	s.link.setRelay(snap.Relay)
	st.Connected = true
	st.Snapshot = &snap
	return st, nil
}
