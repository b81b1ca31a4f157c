// Package timeline rebuilds relay-on intervals from the event stream in the log.
package timeline

import "heat_controller/internal/models"

// Reconstruct scans lines in ascending order and returns relay-on intervals and boot markers.
//
// on opens an interval; a repeated on moves its start forward. off and boot close it.
// A boot always adds a marker. An off with nothing open is ignored, except directly after
// a boot closed an interval: the relay stayed on through the restart, so the off extends
// that interval's end. A trailing unmatched on becomes one open interval.
func Reconstruct(lines []models.LogLine) models.Timeline {
	tl := models.Timeline{
		Intervals: []models.Interval{},
		Markers:   []models.Marker{},
	}
	var (
		open       bool
		openStart  int64
		bootClosed = -1 // index of an interval closed by boot, pending a possible off
	)
	for _, l := range lines {
		switch l.Event {
		case models.EventOn:
			open = true
			openStart = l.Timestamp
			bootClosed = -1
		case models.EventOff:
			if open {
				tl.Intervals = append(tl.Intervals, models.Interval{Start: openStart, End: l.Timestamp})
				open = false
			} else if bootClosed >= 0 {
				tl.Intervals[bootClosed].End = l.Timestamp
			}
			bootClosed = -1
		case models.EventBoot:
			tl.Markers = append(tl.Markers, models.Marker{Timestamp: l.Timestamp, Kind: models.MarkerBoot})
			if open {
				tl.Intervals = append(tl.Intervals, models.Interval{Start: openStart, End: l.Timestamp})
				open = false
				bootClosed = len(tl.Intervals) - 1
			}
		}
	}
	if open {
		tl.Intervals = append(tl.Intervals, models.Interval{Start: openStart, Open: true})
	}
	return tl
}

// Clip keeps intervals and markers that touch [from, to). A zero to means unbounded.
// Intervals are not trimmed; statistics clip them against the window themselves.
func Clip(tl models.Timeline, from, to int64) models.Timeline {
	out := models.Timeline{
		Intervals: []models.Interval{},
		Markers:   []models.Marker{},
	}
	for _, iv := range tl.Intervals {
		if to != 0 && iv.Start >= to {
			continue
		}
		if !iv.Open && iv.End <= from {
			continue
		}
		out.Intervals = append(out.Intervals, iv)
	}
	for _, m := range tl.Markers {
		if m.Timestamp < from || (to != 0 && m.Timestamp >= to) {
			continue
		}
		out.Markers = append(out.Markers, m)
	}
	return out
}
