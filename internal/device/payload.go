package device

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"heat_controller/internal/models"
	"heat_controller/internal/packedtime"
	"heat_controller/internal/wire"
)

// flexBool accepts true/false as well as the firmware's 0/1.
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	switch string(bytes.TrimSpace(data)) {
	case "true", "1", `"1"`, `"true"`:
		*b = true
	case "false", "0", `"0"`, `"false"`, "null":
		*b = false
	default:
		return fmt.Errorf("not a boolean: %s", data)
	}
	return nil
}

type overviewPayload struct {
	Conf models.DeviceConfig   `json:"conf"`
	SN   string                `json:"sn"`
	DT   []models.RemoteChunk  `json:"dt"`
	FS   models.FileSystemInfo `json:"fs"`
}

func decodeOverview(body []byte) (models.DeviceOverview, error) {
	var p overviewPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return models.DeviceOverview{}, fmt.Errorf("%w: overview: %v", ErrMalformed, err)
	}
	sensors, err := ParseSensors(p.SN)
	if err != nil {
		return models.DeviceOverview{}, fmt.Errorf("%w: overview: %v", ErrMalformed, err)
	}
	chunks := p.DT
	if chunks == nil {
		chunks = []models.RemoteChunk{}
	}
	return models.DeviceOverview{
		Config:     p.Conf,
		Sensors:    sensors,
		Chunks:     chunks,
		FileSystem: p.FS,
	}, nil
}

// snapshotPayload covers both reply shapes: the documented {last, rel, up, s, avg}
// and the firmware's {up, rel, cur: [packed, t..., tag?], avg}.
type snapshotPayload struct {
	Last json.RawMessage `json:"last"`
	Rel  flexBool        `json:"rel"`
	Up   int64           `json:"up"`
	S    []int           `json:"s"`
	Cur  json.RawMessage `json:"cur"`
	Avg  *float64        `json:"avg"`
}

func decodeSnapshot(body []byte) (models.Snapshot, error) {
	var p snapshotPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return models.Snapshot{}, fmt.Errorf("%w: snapshot: %v", ErrMalformed, err)
	}
	snap := models.Snapshot{
		Relay:    bool(p.Rel),
		Uptime:   p.Up,
		Readings: p.S,
	}

	if len(p.Last) > 0 && string(p.Last) != "null" {
		last, err := decodePackedField(p.Last)
		if err != nil {
			return models.Snapshot{}, fmt.Errorf("%w: snapshot last: %v", ErrMalformed, err)
		}
		snap.Last = last
	}

	if len(p.Cur) > 0 && string(p.Cur) != "null" {
		lines, err := wire.DecodeLines(append(append([]byte{'['}, p.Cur...), ']'))
		if err != nil || len(lines) != 1 {
			return models.Snapshot{}, fmt.Errorf("%w: snapshot cur: %v", ErrMalformed, err)
		}
		if snap.Last == 0 {
			snap.Last = lines[0].Timestamp
		}
		if snap.Readings == nil {
			snap.Readings = lines[0].Readings
		}
	}
	if snap.Readings == nil {
		snap.Readings = []int{}
	}

	if p.Avg != nil {
		snap.Average = *p.Avg
	} else {
		snap.Average = WeightedAverage(snap.Readings, nil)
		snap.AverageEstimated = true
	}
	return snap, nil
}

func decodePending(body []byte) ([]models.LogLine, error) {
	var p struct {
		Last json.RawMessage `json:"last"`
	}
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("%w: pending: %v", ErrMalformed, err)
	}
	if len(p.Last) == 0 || string(p.Last) == "null" {
		return []models.LogLine{}, nil
	}
	lines, _ := wire.ParseChunk(string(p.Last))
	if lines == nil {
		lines = []models.LogLine{}
	}
	return lines, nil
}

func decodePackedField(raw json.RawMessage) (int64, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return 0, err
		}
		s = n.String()
	}
	if _, err := strconv.ParseUint(s, 10, 64); err != nil {
		return 0, fmt.Errorf("packed stamp %q: %w", s, err)
	}
	for len(s) < packedtime.Width {
		s = "0" + s
	}
	return packedtime.Decode(s), nil
}

// WeightedAverage recomputes the device average in °C from readings in tenths.
// Channels without data are skipped. With nil weights every channel counts equally.
// The result is -127 when no channel contributes, matching the firmware.
func WeightedAverage(readings []int, sensors []models.SensorWeight) float64 {
	var sum, weights float64
	for i, r := range readings {
		if r <= models.NoReading {
			continue
		}
		w := 1.0
		if sensors != nil {
			if i >= len(sensors) {
				continue
			}
			w = float64(sensors[i].Weight) / 100
		}
		sum += float64(r) / 10 * w
		weights += w
	}
	if weights == 0 {
		return -127
	}
	return sum / weights
}
