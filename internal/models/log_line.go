package models

// Event tags a log line with a relay or controller event.
type Event int

const (
	EventNone Event = iota
	EventOn
	EventOff
	EventBoot
)

// Wire tags used by the device for event rows.
const (
	TagOn   = "on"
	TagOff  = "off"
	TagBoot = "st"
)

// NoReading is the sentinel threshold: any reading at or below it means the channel had no data.
const NoReading = -1000

// Tag returns the wire tag for e, or "" for EventNone.
func (e Event) Tag() string {
	switch e {
	case EventOn:
		return TagOn
	case EventOff:
		return TagOff
	case EventBoot:
		return TagBoot
	default:
		return ""
	}
}

func (e Event) String() string {
	switch e {
	case EventOn:
		return "on"
	case EventOff:
		return "off"
	case EventBoot:
		return "boot"
	default:
		return "none"
	}
}

// MarshalText lets events appear by name in JSON responses.
func (e Event) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

// EventFromTag maps a wire tag to an Event. Unknown tags are EventNone.
func EventFromTag(tag string) Event {
	switch tag {
	case TagOn:
		return EventOn
	case TagOff:
		return EventOff
	case TagBoot:
		return EventBoot
	default:
		return EventNone
	}
}

// LogLine is one device log record.
type LogLine struct {
	Timestamp int64 `json:"ts"`       // epoch seconds, UTC
	Readings  []int `json:"readings"` // tenths of °C per channel
	Event     Event `json:"event"`
}

// Reading returns channel i in tenths of a degree and whether it carries data.
func (l LogLine) Reading(i int) (int, bool) {
	if i < 0 || i >= len(l.Readings) {
		return 0, false
	}
	v := l.Readings[i]
	if v <= NoReading {
		return 0, false
	}
	return v, true
}

// Celsius returns channel i converted to degrees.
func (l LogLine) Celsius(i int) (float64, bool) {
	v, ok := l.Reading(i)
	if !ok {
		return 0, false
	}
	return float64(v) / 10, true
}
