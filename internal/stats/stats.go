// Package stats computes windowed relay statistics over reconstructed intervals.
package stats

import (
	"time"

	"heat_controller/internal/models"
)

// ActiveDuration returns how long the relay was on inside [start, finish), in the unit of the
// intervals (seconds). An open interval runs to finish. finish <= start yields 0.
func ActiveDuration(intervals []models.Interval, start, finish int64) int64 {
	if finish <= start {
		return 0
	}
	var total int64
	for _, iv := range intervals {
		lo := max(iv.Start, start)
		hi := min(iv.EndAt(finish), finish)
		if hi > lo {
			total += hi - lo
		}
	}
	return total
}

// ActiveDurationMs is ActiveDuration for a window given in epoch milliseconds.
func ActiveDurationMs(intervals []models.Interval, startMs, finishMs int64) int64 {
	if finishMs <= startMs {
		return 0
	}
	var total int64
	for _, iv := range intervals {
		end := iv.End * 1000
		if iv.Open {
			end = finishMs
		}
		lo := max(iv.Start*1000, startMs)
		hi := min(end, finishMs)
		if hi > lo {
			total += hi - lo
		}
	}
	return total
}

// Switches counts relay-on transitions inside [start, finish).
func Switches(intervals []models.Interval, start, finish int64) int {
	n := 0
	for _, iv := range intervals {
		if iv.Start >= start && iv.Start < finish {
			n++
		}
	}
	return n
}

// Window summarizes [start, finish). Sub-second precision is dropped.
func Window(intervals []models.Interval, start, finish time.Time) models.StatWindow {
	s, f := start.Unix(), finish.Unix()
	w := models.StatWindow{Start: start.UTC(), End: finish.UTC()}
	if f <= s {
		return w
	}
	active := ActiveDuration(intervals, s, f)
	w.ActiveSec = active
	w.Active = time.Duration(active) * time.Second
	w.DutyCycle = float64(active) / float64(f-s)
	w.Switches = Switches(intervals, s, f)
	return w
}

// Period is a named look-back window ending now.
type Period struct {
	Name     string
	Duration time.Duration
}

// StandardPeriods are reported by Summary when no periods are given.
var StandardPeriods = []Period{
	{Name: "24h", Duration: 24 * time.Hour},
	{Name: "7d", Duration: 7 * 24 * time.Hour},
	{Name: "30d", Duration: 30 * 24 * time.Hour},
}

// Summary computes one window per period, each ending at now.
func Summary(intervals []models.Interval, now time.Time, periods []Period) map[string]models.StatWindow {
	if len(periods) == 0 {
		periods = StandardPeriods
	}
	out := make(map[string]models.StatWindow, len(periods))
	for _, p := range periods {
		out[p.Name] = Window(intervals, now.Add(-p.Duration), now)
	}
	return out
}
