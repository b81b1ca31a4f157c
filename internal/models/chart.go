package models

// ChartWindow is the live display framing.
type ChartWindow struct {
	PeriodMs    int64 `json:"period_ms"`
	RightEdgeMs int64 `json:"right_edge_ms"`
	LeftEdgeMs  int64 `json:"left_edge_ms"`
}

// DisplayToggles controls optional chart bands.
type DisplayToggles struct {
	Boot  bool `json:"boot"`
	Relay bool `json:"relay"`
}

// Preferences is the persisted part of the chart state.
type Preferences struct {
	DisplayToggles DisplayToggles `json:"displayToggles"`
	PeriodMs       int64          `json:"periodMs"`
}

// DefaultPreferences is used when nothing valid is stored.
func DefaultPreferences() Preferences {
	return Preferences{
		DisplayToggles: DisplayToggles{Boot: true, Relay: true},
		PeriodMs:       24 * 60 * 60 * 1000,
	}
}
