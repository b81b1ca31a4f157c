package models

import "time"

// RemoteChunk describes one device-held log file.
type RemoteChunk struct {
	Name      string `json:"n"`
	SizeBytes int64  `json:"s"`
}

// DeviceConfig mirrors the controller's thresholds and timers.
type DeviceConfig struct {
	TempLow   int  `json:"tl"`    // °C, relay switches on at or below
	TempHigh  int  `json:"th"`    // °C, relay switches off at or above
	MinOnSec  uint `json:"ton"`   // minimum relay-on dwell
	MinOffSec uint `json:"toff"`  // minimum relay-off dwell
	ReadSec   uint `json:"read"`  // sensor scan period
	LogSec    uint `json:"log"`   // buffer append period
	FlushSec  uint `json:"flush"` // buffer flush period
}

// SensorWeight is one DS18B20 address with its weight in the average (percent).
type SensorWeight struct {
	Address [8]byte `json:"address"`
	Weight  uint8   `json:"weight"`
}

// FileSystemInfo is the device flash usage.
type FileSystemInfo struct {
	Total     int64 `json:"tot"`
	Used      int64 `json:"used"`
	BlockSize int64 `json:"block"`
	PageSize  int64 `json:"page"`
}

// DeviceOverview is everything GET /conf returns.
type DeviceOverview struct {
	Config     DeviceConfig   `json:"conf"`
	Sensors    []SensorWeight `json:"sensors"`
	Chunks     []RemoteChunk  `json:"chunks"`
	FileSystem FileSystemInfo `json:"fs"`
}

// Snapshot is the current sensor state reported by GET /info?cur=1.
type Snapshot struct {
	Last     int64   `json:"last"` // epoch seconds
	Relay    bool    `json:"relay"`
	Uptime   int64   `json:"uptime_sec"`
	Readings []int   `json:"readings"`
	Average  float64 `json:"average_c"`
	// AverageEstimated is set when the device omitted avg and it was computed locally.
	AverageEstimated bool `json:"average_estimated,omitempty"`
}

// Status is the console's view of the device link.
type Status struct {
	Connected  bool      `json:"connected"`
	Snapshot   *Snapshot `json:"snapshot,omitempty"`
	LastError  string    `json:"last_error,omitempty"`
	CheckedAt  time.Time `json:"checked_at"`
	CachedRows int       `json:"cached_rows"`
	Watermark  int64     `json:"watermark"`
}
