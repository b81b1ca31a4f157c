package chart

import (
	"strings"
	"time"
)

// Preset is a named chart period.
type Preset int

const (
	Preset30m Preset = iota
	Preset2h
	Preset6h
	Preset24h
	Preset7d
	Preset30d
	Preset90d
	PresetAll
)

// Duration returns the preset width. PresetAll has none; it spans the cached data.
func (p Preset) Duration() time.Duration {
	switch p {
	case Preset30m:
		return 30 * time.Minute
	case Preset2h:
		return 2 * time.Hour
	case Preset6h:
		return 6 * time.Hour
	case Preset24h:
		return 24 * time.Hour
	case Preset7d:
		return 7 * 24 * time.Hour
	case Preset30d:
		return 30 * 24 * time.Hour
	case Preset90d:
		return 90 * 24 * time.Hour
	default:
		return 0
	}
}

func (p Preset) String() string {
	switch p {
	case Preset30m:
		return "30m"
	case Preset2h:
		return "2h"
	case Preset6h:
		return "6h"
	case Preset24h:
		return "24h"
	case Preset7d:
		return "7d"
	case Preset30d:
		return "30d"
	case Preset90d:
		return "90d"
	case PresetAll:
		return "all"
	default:
		return "unknown"
	}
}

// AllPresets returns every preset in display order.
func AllPresets() []Preset {
	return []Preset{Preset30m, Preset2h, Preset6h, Preset24h, Preset7d, Preset30d, Preset90d, PresetAll}
}

// ParsePreset maps a name like "7d" to its preset.
func ParsePreset(name string) (Preset, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, p := range AllPresets() {
		if p.String() == name {
			return p, true
		}
	}
	return 0, false
}
