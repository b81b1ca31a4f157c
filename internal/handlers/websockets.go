package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"heat_controller/internal/chart"
	"heat_controller/internal/models"
	"heat_controller/internal/service"
	"heat_controller/internal/stats"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Send/receive timing configuration and message size limits.
const (
	writeWait        = 10 * time.Second
	pongWait         = 60 * time.Second
	pingPeriod       = (pongWait * 9) / 10
	maxMsgSize       = 1 << 12 // 4 KB
	defaultInterval  = 5 * time.Second
	minInterval      = 500 * time.Millisecond
	maxInterval      = 60 * time.Second
	maxIntervalMilli = 60_000 // 60s in ms
)

// Message types on the stream.
const (
	wsTypeStatus   = "status"
	wsTypeChart    = "chart"
	wsTypeTimeline = "timeline"
)

// Envelope used for WebSocket messages.
type wsEnvelope struct {
	Type  string      `json:"type"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

// wsTimeline is the timeline inside the chart window plus the relay-on time it covers.
type wsTimeline struct {
	models.Timeline
	ActiveMs int64 `json:"active_ms"`
}

// Upgrader for HTTP -> WebSocket. The console is served from the device's LAN, so any origin is accepted.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsConnect streams device status every interval and the chart framing plus the
// visible timeline whenever the chart state changes (new data, zoom, period).
func (h *Handler) wsConnect(c *gin.Context) {
	interval := h.parseInterval(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		if h.log != nil {
			h.log.Errorw("ws_upgrade_failed", "err", err)
		}
		return
	}
	defer func() { _ = conn.Close() }()

	// Configure read limits and pong handler to extend read deadline.
	conn.SetReadLimit(maxMsgSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	// Reader goroutine to handle control frames and detect disconnects.
	done := make(chan struct{})
	go h.startReader(conn, done)

	// Chart changes arrive on the notifying goroutine; keep only the latest.
	var charts chan chart.State
	if h.services.Chart != nil {
		charts = make(chan chart.State, 1)
		unsubscribe := h.services.Chart.Subscribe(func(st chart.State) {
			select {
			case <-charts:
			default:
			}
			select {
			case charts <- st:
			default:
			}
		})
		defer unsubscribe()
	}

	ticker := time.NewTicker(interval)
	ping := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		ping.Stop()
	}()

	ctx := c.Request.Context()

	// Send initial state immediately.
	if err := h.sendStatus(ctx, conn); err != nil {
		if h.log != nil {
			h.log.Infow("ws_write_failed_initial", "err", err)
		}
		return
	}
	if h.services.Chart != nil {
		if err := h.sendChart(ctx, conn, h.services.Chart.State()); err != nil {
			return
		}
	}

	// Writer/select loop.
	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				if h.log != nil {
					h.log.Infow("ws_ping_failed", "err", err)
				}
				return
			}
		case st := <-charts:
			if err := h.sendChart(ctx, conn, st); err != nil {
				if h.log != nil {
					h.log.Infow("ws_write_failed", "err", err)
				}
				return
			}
		case <-ticker.C:
			if err := h.sendStatus(ctx, conn); err != nil {
				if h.log != nil {
					h.log.Infow("ws_write_failed", "err", err)
				}
				return
			}
		}
	}
}

// parseInterval reads ?interval=2s or ?interval_ms=2000 with bounds.
func (h *Handler) parseInterval(c *gin.Context) time.Duration {
	if s := c.Query("interval"); s != "" {
		if d, err := time.ParseDuration(s); err == nil && d >= minInterval && d <= maxInterval {
			return d
		}
	}

	if ms := c.Query("interval_ms"); ms != "" {
		if v, err := strconv.Atoi(ms); err == nil && v >= int(minInterval/time.Millisecond) && v <= maxIntervalMilli {
			return time.Duration(v) * time.Millisecond
		}
	}

	return defaultInterval
}

// startReader drains incoming messages to handle control frames and detect closure.
func (h *Handler) startReader(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if h.log != nil {
				h.log.Infow("ws_read_closed", "err", err)
			}
			return
		}
	}
}

// sendStatus fetches and writes the device status with a write deadline.
func (h *Handler) sendStatus(ctx context.Context, conn *websocket.Conn) error {
	st, err := h.services.Monitoring.Status(ctx, false)
	if err != nil {
		if h.log != nil {
			h.log.Errorw("ws_get_status_failed", "err", err)
		}
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteJSON(wsEnvelope{Type: wsTypeStatus, Error: err.Error()})
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(wsEnvelope{Type: wsTypeStatus, Data: st})
}

// sendChart writes the chart framing followed by the timeline inside its window.
func (h *Handler) sendChart(ctx context.Context, conn *websocket.Conn, st chart.State) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(wsEnvelope{Type: wsTypeChart, Data: st}); err != nil {
		return err
	}
	if h.services.History == nil || st.Window.PeriodMs <= 0 {
		return nil
	}
	r := service.TimeRange{
		From: time.UnixMilli(st.Window.LeftEdgeMs).UTC(),
		To:   time.UnixMilli(st.Window.RightEdgeMs).Add(time.Second).UTC(),
	}
	tl, err := h.services.History.Timeline(ctx, r)
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err != nil {
		return conn.WriteJSON(wsEnvelope{Type: wsTypeTimeline, Error: err.Error()})
	}
	active := stats.ActiveDurationMs(tl.Intervals, st.Window.LeftEdgeMs, st.Window.RightEdgeMs)
	return conn.WriteJSON(wsEnvelope{Type: wsTypeTimeline, Data: wsTimeline{Timeline: tl, ActiveMs: active}})
}
