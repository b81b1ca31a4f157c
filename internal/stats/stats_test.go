package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"heat_controller/internal/models"
)

func closed(s, e int64) models.Interval { return models.Interval{Start: s, End: e} }

func TestActiveDuration(t *testing.T) {
	cases := []struct {
		name          string
		intervals     []models.Interval
		start, finish int64
		want          int64
	}{
		{"partial overlap", []models.Interval{closed(100, 200)}, 150, 250, 50},
		{"two inside", []models.Interval{closed(100, 200), closed(300, 400)}, 0, 1000, 200},
		{"finish before start", []models.Interval{closed(100, 200)}, 250, 150, 0},
		{"finish equals start", []models.Interval{closed(100, 200)}, 150, 150, 0},
		{"open interval runs to finish", []models.Interval{{Start: 500, Open: true}}, 0, 700, 200},
		{"no intersection", []models.Interval{closed(100, 200)}, 200, 300, 0},
		{"whole window on", []models.Interval{closed(0, 1000)}, 100, 900, 800},
		{"open before window", []models.Interval{{Start: 10, Open: true}}, 100, 900, 800},
		{"empty", nil, 0, 100, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, ActiveDuration(tc.intervals, tc.start, tc.finish))
		})
	}
}

func TestActiveDuration_Idempotent(t *testing.T) {
	ivs := []models.Interval{closed(100, 200), closed(300, 400), {Start: 450, Open: true}}
	first := ActiveDuration(ivs, 150, 500)
	require.Equal(t, first, ActiveDuration(ivs, 150, 500))
	require.Equal(t, int64(50+100+50), first)
}

func TestActiveDurationMs(t *testing.T) {
	ivs := []models.Interval{closed(100, 200), {Start: 500, Open: true}}
	require.Equal(t, int64(50_000), ActiveDurationMs(ivs, 150_000, 250_000))
	require.Equal(t, int64(100_000+200_500), ActiveDurationMs(ivs, 0, 700_500))
	require.Zero(t, ActiveDurationMs(ivs, 10, 10))
}

func TestSwitches(t *testing.T) {
	ivs := []models.Interval{closed(100, 200), closed(300, 400), {Start: 500, Open: true}}
	require.Equal(t, 3, Switches(ivs, 0, 1000))
	require.Equal(t, 1, Switches(ivs, 150, 400))
	require.Zero(t, Switches(ivs, 600, 1000))
}

func TestWindow(t *testing.T) {
	start := time.Unix(0, 0)
	finish := time.Unix(1000, 0)
	w := Window([]models.Interval{closed(100, 200), closed(300, 400)}, start, finish)
	require.Equal(t, int64(200), w.ActiveSec)
	require.Equal(t, 200*time.Second, w.Active)
	require.InDelta(t, 0.2, w.DutyCycle, 1e-9)
	require.Equal(t, 2, w.Switches)
	require.Equal(t, time.UTC, w.Start.Location())

	inverted := Window(nil, finish, start)
	require.Zero(t, inverted.Active)
	require.Zero(t, inverted.DutyCycle)
}

func TestSummary(t *testing.T) {
	now := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)
	// relay on for the last hour, plus one hour eight days ago
	ivs := []models.Interval{
		closed(now.Add(-8*24*time.Hour).Unix(), now.Add(-8*24*time.Hour+time.Hour).Unix()),
		{Start: now.Add(-time.Hour).Unix(), Open: true},
	}
	got := Summary(ivs, now, nil)
	require.Len(t, got, 3)
	require.Equal(t, time.Hour, got["24h"].Active)
	require.Equal(t, time.Hour, got["7d"].Active)
	require.Equal(t, 2*time.Hour, got["30d"].Active)
	require.InDelta(t, 1.0/24, got["24h"].DutyCycle, 1e-9)

	custom := Summary(ivs, now, []Period{{Name: "2h", Duration: 2 * time.Hour}})
	require.InDelta(t, 0.5, custom["2h"].DutyCycle, 1e-9)
}
