package service

import (
	"context"
	"sync"
	"time"

	"heat_controller/internal/cache"
	"heat_controller/internal/chart"
	"heat_controller/internal/device"
	"heat_controller/internal/loader"
	"heat_controller/internal/models"
)

// memKV is an in-memory repository.KVStore.
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
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func newCache(lines ...models.LogLine) *cache.LocalCache {
	c := cache.New(&memKV{}, "", nil, nil)
	c.Merge(lines)
	return c
}

// fakeNoticeRepo records appended notices.
type fakeNoticeRepo struct {
	mu      sync.Mutex
	notices []models.Notice

	gotFrom time.Time
	gotTo   time.Time
	gotKind string
	listErr error
}

func (f *fakeNoticeRepo) Append(_ context.Context, n models.Notice) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notices = append(f.notices, n)
	return nil
}

func (f *fakeNoticeRepo) List(_ context.Context, from, to time.Time, kind string) ([]models.Notice, error) {
	f.gotFrom, f.gotTo, f.gotKind = from, to, kind
	return f.notices, f.listErr
}

func (f *fakeNoticeRepo) kinds() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.notices))
	for _, n := range f.notices {
		out = append(out, n.Kind)
	}
	return out
}

// fakeDevice answers with canned values; errors are consumed in order when set.
type fakeDevice struct {
	mu          sync.Mutex
	overview    models.DeviceOverview
	overviewErr []error
	snapshot    models.Snapshot
	snapErr     error
	deleted     []string
	setConfig   *models.DeviceConfig
	overviewN   int
}

func (f *fakeDevice) Overview(context.Context) (models.DeviceOverview, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.overviewN++
	if len(f.overviewErr) > 0 {
		err := f.overviewErr[0]
		f.overviewErr = f.overviewErr[1:]
		if err != nil {
			return models.DeviceOverview{}, err
		}
	}
	return f.overview, nil
}

func (f *fakeDevice) SetConfig(_ context.Context, cfg models.DeviceConfig) (models.DeviceOverview, error) {
	f.setConfig = &cfg
	ov := f.overview
	ov.Config = cfg
	return ov, nil
}

func (f *fakeDevice) SetSensors(_ context.Context, sensors []models.SensorWeight) (models.DeviceOverview, error) {
	ov := f.overview
	ov.Sensors = sensors
	return ov, nil
}

func (f *fakeDevice) Snapshot(context.Context, bool) (models.Snapshot, error) {
	return f.snapshot, f.snapErr
}

func (f *fakeDevice) DeleteChunk(_ context.Context, name string) (bool, error) {
	f.deleted = append(f.deleted, name)
	return true, nil
}

// fakeLoader merges canned lines into the cache, optionally blocking until released.
type fakeLoader struct {
	cache   *cache.LocalCache
	lines   []models.LogLine
	err     error
	started chan struct{}
	release chan struct{}

	mu         sync.Mutex
	watermarks []int64
}

func (f *fakeLoader) Load(ctx context.Context, _ []models.RemoteChunk, watermark int64) (loader.Result, error) {
	f.mu.Lock()
	f.watermarks = append(f.watermarks, watermark)
	f.mu.Unlock()
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return loader.Result{}, ctx.Err()
		}
	}
	res := loader.Result{Watermark: watermark}
	for _, l := range f.lines {
		if l.Timestamp > watermark {
			res.Fresh = append(res.Fresh, l)
		}
	}
	res.Added = f.cache.Merge(f.lines)
	return res, f.err
}

func (f *fakeLoader) calls() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int64(nil), f.watermarks...)
}

type fakePublisher struct {
	got [][]models.LogLine
	err error
}

func (f *fakePublisher) Publish(_ context.Context, lines []models.LogLine) (int, error) {
	f.got = append(f.got, lines)
	return len(lines), f.err
}

type fakeFramer struct {
	points []int64
	ranges [][2]int64
}

func (f *fakeFramer) OnNewPoint(tsMs int64) chart.State {
	f.points = append(f.points, tsMs)
	return chart.State{}
}

func (f *fakeFramer) SetDataRange(earliestMs, latestMs int64) chart.State {
	f.ranges = append(f.ranges, [2]int64{earliestMs, latestMs})
	return chart.State{}
}

var errUnreachable = &wrapErr{msg: "dial tcp: connection refused"}

type wrapErr struct{ msg string }

func (e *wrapErr) Error() string { return device.ErrConnectivity.Error() + ": " + e.msg }
func (e *wrapErr) Unwrap() error { return device.ErrConnectivity }

func line(ts int64, ev models.Event) models.LogLine {
	return models.LogLine{Timestamp: ts, Readings: []int{215}, Event: ev}
}
