package service

import (
	"context"
	"errors"
	"sync"

	"heat_controller/internal/device"
	"heat_controller/internal/logger"
	"heat_controller/internal/metrics"
	"heat_controller/internal/models"
	"heat_controller/internal/repository"
)

// linkState tracks whether the device is reachable and records a notice on every
// transition. Repeated failures while already down stay silent.
type linkState struct {
	mu        sync.Mutex
	connected bool
	relayOn   bool
	lastErr   string

	notices repository.NoticeRepo
	metrics *metrics.Metrics
	log     *logger.Logger
}

func newLinkState(notices repository.NoticeRepo, m *metrics.Metrics, log *logger.Logger) *linkState {
	return &linkState{
		connected: true,
		notices:   notices,
		metrics:   m,
		log:       logger.OrNop(log).Named("link"),
	}
}

// report folds the outcome of one device call into the link state. Only transport
// failures mark the link down; a malformed reply still proves the device answered.
func (l *linkState) report(ctx context.Context, err error) {
	down := err != nil && errors.Is(err, device.ErrConnectivity)

	l.mu.Lock()
	was := l.connected
	l.connected = !down
	if down {
		l.lastErr = err.Error()
	} else {
		l.lastErr = ""
	}
	relay := l.relayOn
	l.mu.Unlock()

	l.metrics.DeviceState(!down, relay)
	if was == !down {
		return
	}

	n := models.Notice{
		Kind:    models.NoticeConnectivityRestored,
		Message: "Device connection restored.",
	}
	if down {
		n = models.Notice{
			Kind:     models.NoticeConnectivityLost,
			Message:  "Device is unreachable; showing cached history.",
			Metadata: map[string]any{"error": err.Error()},
		}
		l.log.Warnw("device_unreachable", "error", err)
	} else {
		l.log.Infow("device_reachable")
	}
	if l.notices == nil {
		return
	}
	if aerr := l.notices.Append(ctx, n); aerr != nil {
		l.log.Warnw("notice_append_failed", "kind", n.Kind, "error", aerr)
	}
}

func (l *linkState) setRelay(on bool) {
	l.mu.Lock()
	l.relayOn = on
	connected := l.connected
	l.mu.Unlock()
	l.metrics.DeviceState(connected, on)
}

func (l *linkState) snapshot() (connected bool, lastErr string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.connected, l.lastErr
}
