package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"heat_controller/internal/chart"
	"heat_controller/internal/loader"
	"heat_controller/internal/models"
	"heat_controller/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockIngestion struct {
	res       loader.Result
	err       error
	lastForce bool
	calls     int
}

func (m *mockIngestion) Refresh(_ context.Context, force bool) (loader.Result, error) {
	m.calls++
	m.lastForce = force
	return m.res, m.err
}
func (m *mockIngestion) Run(context.Context)     {}
func (m *mockIngestion) Interval() time.Duration { return time.Second }

type mockMonitoring struct {
	mu        sync.Mutex
	status    models.Status
	err       error
	lastForce bool
}

func (m *mockMonitoring) Status(_ context.Context, force bool) (models.Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastForce = force
	return m.status, m.err
}

type mockHistory struct {
	lines    []models.LogLine
	timeline models.Timeline
	window   models.StatWindow
	summary  map[string]models.StatWindow
	removed  int
	err      error

	lastRange   service.TimeRange
	lastConfirm bool
}

func (m *mockHistory) Lines(_ context.Context, r service.TimeRange) ([]models.LogLine, error) {
	m.lastRange = r
	return m.lines, m.err
}
func (m *mockHistory) Timeline(_ context.Context, r service.TimeRange) (models.Timeline, error) {
	m.lastRange = r
	return m.timeline, m.err
}
func (m *mockHistory) Stats(_ context.Context, r service.TimeRange) (models.StatWindow, error) {
	m.lastRange = r
	return m.window, m.err
}
func (m *mockHistory) Summary(context.Context, time.Time) (map[string]models.StatWindow, error) {
	return m.summary, m.err
}
func (m *mockHistory) Purge(_ context.Context, r service.TimeRange, confirm bool) (int, error) {
	m.lastRange = r
	m.lastConfirm = confirm
	if !confirm {
		return 0, service.ErrPurgeNotConfirmed
	}
	return m.removed, m.err
}

type mockDeviceAdmin struct {
	overview    models.DeviceOverview
	listing     service.ChunkListing
	deleted     bool
	err         error
	lastConfig  models.DeviceConfig
	lastSensors []models.SensorWeight
	lastDelete  string
}

func (m *mockDeviceAdmin) Overview(context.Context) (models.DeviceOverview, error) {
	return m.overview, m.err
}
func (m *mockDeviceAdmin) SetConfig(_ context.Context, cfg models.DeviceConfig) (models.DeviceOverview, error) {
	m.lastConfig = cfg
	return m.overview, m.err
}
func (m *mockDeviceAdmin) SetSensors(_ context.Context, s []models.SensorWeight) (models.DeviceOverview, error) {
	m.lastSensors = s
	return m.overview, m.err
}
func (m *mockDeviceAdmin) Chunks(context.Context) (service.ChunkListing, error) {
	return m.listing, m.err
}
func (m *mockDeviceAdmin) DeleteChunk(_ context.Context, name string) (bool, error) {
	m.lastDelete = name
	return m.deleted, m.err
}

type mockNoticeLog struct {
	resp     []models.Notice
	err      error
	lastFrom time.Time
	lastTo   time.Time
	lastKind string
}

func (m *mockNoticeLog) List(_ context.Context, f service.LogFilter) ([]models.Notice, error) {
	m.lastFrom = f.From
	m.lastTo = f.To
	m.lastKind = f.Kind
	return m.resp, m.err
}

// memKV backs a real chart controller in tests.
type memKV struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *memKV) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memKV) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		m.data = map[string][]byte{}
	}
	m.data[key] = value
	return nil
}

// ---- Shared Test Helpers ----

func newChart() *chart.Controller {
	return chart.NewController(&memKV{}, "", nil, nil)
}

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func do(r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}
