package models

import "time"

// Interval is a reconstructed relay-on period in epoch seconds.
// An open interval has no observed end yet; End is meaningless while Open is set.
type Interval struct {
	Start int64 `json:"start"`
	End   int64 `json:"end,omitempty"`
	Open  bool  `json:"open,omitempty"`
}

// EndAt returns the interval end, substituting horizon for an open interval.
func (iv Interval) EndAt(horizon int64) int64 {
	if iv.Open {
		return horizon
	}
	return iv.End
}

// MarkerBoot is the only marker kind the device emits today.
const MarkerBoot = "boot"

// Marker is a point-in-time event shown independently of intervals.
type Marker struct {
	Timestamp int64  `json:"ts"`
	Kind      string `json:"kind"`
}

// Timeline is the reconstructed relay history.
type Timeline struct {
	Intervals []Interval `json:"intervals"`
	Markers   []Marker   `json:"markers"`
}

// StatWindow is a derived statistic for one query window. Never persisted.
type StatWindow struct {
	Start     time.Time     `json:"start"`
	End       time.Time     `json:"end"`
	Active    time.Duration `json:"active_ns"`
	ActiveSec int64         `json:"active_sec"`
	DutyCycle float64       `json:"duty_cycle"` // 0..1
	Switches  int           `json:"switches"`
}
