package service

import (
	"context"
	"fmt"
	"regexp"

	"heat_controller/internal/loader"
	"heat_controller/internal/models"
)

var chunkNameRe = regexp.MustCompile(`^/?\d{6}(_\d+)?$`)

type configObserver interface {
	ObserveConfig(cfg models.DeviceConfig)
}

type DeviceAdminService struct {
	device   Device
	observer configObserver
	link     *linkState
}

func NewDeviceAdminService(device Device, observer configObserver, link *linkState) *DeviceAdminService {
	if link == nil {
		link = newLinkState(nil, nil, nil)
	}
	return &DeviceAdminService{device: device, observer: observer, link: link}
}

func (s *DeviceAdminService) Overview(ctx context.Context) (models.DeviceOverview, error) {
	ov, err := s.device.Overview(ctx)
	s.link.report(ctx, err)
	if err != nil {
		return models.DeviceOverview{}, err
	}
	s.observe(ov.Config)
	return ov, nil
}

// SetConfig validates and pushes thresholds and timers.
func (s *DeviceAdminService) SetConfig(ctx context.Context, cfg models.DeviceConfig) (models.DeviceOverview, error) {
	if err := validateDeviceConfig(cfg); err != nil {
		return models.DeviceOverview{}, err
	}
	ov, err := s.device.SetConfig(ctx, cfg)
	s.link.report(ctx, err)
	if err != nil {
		return models.DeviceOverview{}, err
	}
	s.observe(ov.Config)
	return ov, nil
}

func (s *DeviceAdminService) SetSensors(ctx context.Context, sensors []models.SensorWeight) (models.DeviceOverview, error) {
	if len(sensors) == 0 {
		return models.DeviceOverview{}, fmt.Errorf("%w: no sensors given", ErrInvalidDeviceConfig)
	}
	ov, err := s.device.SetSensors(ctx, sensors)
	s.link.report(ctx, err)
	return ov, err
}

// Chunks lists the device log files oldest first.
func (s *DeviceAdminService) Chunks(ctx context.Context) (ChunkListing, error) {
	ov, err := s.Overview(ctx)
	if err != nil {
		return ChunkListing{}, err
	}
	return ChunkListing{Chunks: loader.SortChunks(ov.Chunks), FileSystem: ov.FileSystem}, nil
}

func (s *DeviceAdminService) DeleteChunk(ctx context.Context, name string) (bool, error) {
	if !chunkNameRe.MatchString(name) {
		return false, fmt.Errorf("%w: %q", ErrInvalidChunkName, name)
	}
	ok, err := s.device.DeleteChunk(ctx, name)
	s.link.report(ctx, err)
	return ok, err
}

func (s *DeviceAdminService) observe(cfg models.DeviceConfig) {
	if s.observer != nil {
		s.observer.ObserveConfig(cfg)
	}
}

// validateDeviceConfig rejects settings that would leave the relay chattering or the
// scan loop stopped; the firmware applies whatever it receives.
func validateDeviceConfig(c models.DeviceConfig) error {
	switch {
	case c.TempLow >= c.TempHigh:
		return fmt.Errorf("%w: tl %d must be below th %d", ErrInvalidDeviceConfig, c.TempLow, c.TempHigh)
	case c.ReadSec == 0 || c.LogSec == 0 || c.FlushSec == 0:
		return fmt.Errorf("%w: read, log and flush must be positive", ErrInvalidDeviceConfig)
	}
	return nil
}
