// Package chart tracks the live chart framing and the persisted display preferences.
package chart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"heat_controller/internal/logger"
	"heat_controller/internal/models"
	"heat_controller/internal/repository"
)

// DefaultKey is the KV key preferences persist under.
const DefaultKey = "prefs"

// MaxPeriodMs bounds the window width (about a century) so zooming out can never overflow.
const MaxPeriodMs = 100 * 365 * 24 * int64(time.Hour/time.Millisecond)

var (
	ErrInvalidPeriod    = errors.New("period must be positive")
	ErrInvalidSelection = errors.New("selection max must be greater than min")
	ErrUnknownPreset    = errors.New("unknown period preset")
)

// Notifier records user-visible notices.
type Notifier interface {
	Append(ctx context.Context, n models.Notice) error
}

// State is the full controller view handed to callers and subscribers.
type State struct {
	Window     models.ChartWindow    `json:"window"`
	Toggles    models.DisplayToggles `json:"toggles"`
	LatestMs   int64                 `json:"latest_ms"`
	EarliestMs int64                 `json:"earliest_ms"`
}

type Controller struct {
	mu    sync.Mutex
	state State

	subsMu sync.Mutex
	subs   map[int]func(State)
	nextID int

	// persistMu orders writes to the store; each write snapshots the state it holds.
	persistMu sync.Mutex

	store    repository.KVStore
	key      string
	notifier Notifier
	log      *logger.Logger
}

func NewController(store repository.KVStore, key string, notifier Notifier, log *logger.Logger) *Controller {
	if key == "" {
		key = DefaultKey
	}
	c := &Controller{
		subs:     map[int]func(State){},
		store:    store,
		key:      key,
		notifier: notifier,
		log:      logger.OrNop(log).Named("chart"),
	}
	c.applyPrefs(models.DefaultPreferences())
	return c
}

// State returns the current framing.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Preferences returns the persisted part of the state.
func (c *Controller) Preferences() models.Preferences {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.prefsLocked()
}

// Subscribe registers fn for every state change and returns a function that removes it.
func (c *Controller) Subscribe(fn func(State)) func() {
	c.subsMu.Lock()
	defer c.subsMu.Unlock()
	id := c.nextID
	c.nextID++
	c.subs[id] = fn
	return func() {
		c.subsMu.Lock()
		delete(c.subs, id)
		c.subsMu.Unlock()
	}
}

// Hydrate loads stored preferences. Absent ones keep the defaults; corrupt ones are
// replaced by the defaults, reported, and written back.
func (c *Controller) Hydrate(ctx context.Context) error {
	data, found, err := c.store.Get(ctx, c.key)
	if err != nil {
		return fmt.Errorf("load preferences: %w", err)
	}
	if !found || len(data) == 0 {
		c.transition(func(*State) {})
		return nil
	}

	prefs, decodeErr := decodePrefs(data)
	if decodeErr == nil {
		c.transition(func(s *State) {
			s.Window.PeriodMs = prefs.PeriodMs
			s.Toggles = prefs.DisplayToggles
			s.Window.LeftEdgeMs = s.Window.RightEdgeMs - s.Window.PeriodMs
		})
		return nil
	}

	c.log.Errorw("preferences_corrupt", "key", c.key, "bytes", len(data), "error", decodeErr)
	c.transition(func(s *State) {
		d := models.DefaultPreferences()
		s.Window.PeriodMs = d.PeriodMs
		s.Toggles = d.DisplayToggles
		s.Window.LeftEdgeMs = s.Window.RightEdgeMs - s.Window.PeriodMs
	})
	if c.notifier != nil {
		notice := models.Notice{
			Kind:     models.NoticePrefsReset,
			Message:  "Chart preferences could not be read and were reset to defaults.",
			Metadata: map[string]any{"key": c.key, "error": decodeErr.Error()},
		}
		if err := c.notifier.Append(ctx, notice); err != nil {
			c.log.Warnw("notice_append_failed", "kind", notice.Kind, "error", err)
		}
	}
	return c.persist(ctx)
}

// SetPeriod fixes the window width and moves the right edge to the latest data point.
func (c *Controller) SetPeriod(ctx context.Context, periodMs int64) (State, error) {
	if periodMs <= 0 || periodMs > MaxPeriodMs {
		return c.State(), fmt.Errorf("%w: %d", ErrInvalidPeriod, periodMs)
	}
	st := c.transition(func(s *State) {
		s.Window.PeriodMs = periodMs
		s.Window.RightEdgeMs = s.LatestMs
		s.Window.LeftEdgeMs = s.LatestMs - periodMs
	})
	return c.persisted(ctx, st)
}

// SetPreset applies a named period. "all" spans the cached data.
func (c *Controller) SetPreset(ctx context.Context, name string) (State, error) {
	p, ok := ParsePreset(name)
	if !ok {
		return c.State(), fmt.Errorf("%w: %q", ErrUnknownPreset, name)
	}
	if p != PresetAll {
		return c.SetPeriod(ctx, p.Duration().Milliseconds())
	}
	cur := c.State()
	span := cur.LatestMs - cur.EarliestMs
	if span <= 0 {
		return cur, fmt.Errorf("%w: no data range for %q", ErrInvalidPeriod, name)
	}
	return c.SetPeriod(ctx, span)
}

// ZoomOut doubles the period up to MaxPeriodMs, keeping the old right edge inside the
// new window and never moving the right edge past the latest data point.
func (c *Controller) ZoomOut(ctx context.Context) (State, error) {
	st := c.transition(func(s *State) {
		old := s.Window.PeriodMs
		next := MaxPeriodMs
		if old < MaxPeriodMs/2 {
			next = old * 2
		}
		right := min(s.Window.RightEdgeMs+(next-old)/2, s.LatestMs)
		s.Window.PeriodMs = next
		s.Window.RightEdgeMs = right
		s.Window.LeftEdgeMs = right - next
	})
	return c.persisted(ctx, st)
}

// OnNewPoint records a freshly ingested data point and slides the window to it.
// Preferences do not change, so nothing is persisted.
func (c *Controller) OnNewPoint(tsMs int64) State {
	return c.transition(func(s *State) {
		if tsMs > s.LatestMs {
			s.LatestMs = tsMs
		}
		if s.EarliestMs == 0 || tsMs < s.EarliestMs {
			s.EarliestMs = tsMs
		}
		if s.Window.PeriodMs > 0 {
			s.Window.RightEdgeMs = s.LatestMs
			s.Window.LeftEdgeMs = s.LatestMs - s.Window.PeriodMs
		}
	})
}

// SetDataRange replaces the known data bounds, e.g. after hydration or a purge.
func (c *Controller) SetDataRange(earliestMs, latestMs int64) State {
	return c.transition(func(s *State) {
		s.EarliestMs = earliestMs
		s.LatestMs = latestMs
		s.Window.RightEdgeMs = latestMs
		s.Window.LeftEdgeMs = latestMs - s.Window.PeriodMs
	})
}

// OnUserSelection takes period and right edge directly from a zoom-drag.
func (c *Controller) OnUserSelection(ctx context.Context, minMs, maxMs int64) (State, error) {
	if maxMs <= minMs || maxMs-minMs > MaxPeriodMs || maxMs-minMs < 0 {
		return c.State(), ErrInvalidSelection
	}
	st := c.transition(func(s *State) {
		s.Window.PeriodMs = maxMs - minMs
		s.Window.RightEdgeMs = maxMs
		s.Window.LeftEdgeMs = minMs
	})
	return c.persisted(ctx, st)
}

// SetToggles changes the optional band visibility.
func (c *Controller) SetToggles(ctx context.Context, toggles models.DisplayToggles) (State, error) {
	st := c.transition(func(s *State) { s.Toggles = toggles })
	return c.persisted(ctx, st)
}

// transition applies fn under the lock, then hands the new state to subscribers.
func (c *Controller) transition(fn func(*State)) State {
	c.mu.Lock()
	fn(&c.state)
	st := c.state
	c.mu.Unlock()

	c.subsMu.Lock()
	subs := make([]func(State), 0, len(c.subs))
	for _, s := range c.subs {
		subs = append(subs, s)
	}
	c.subsMu.Unlock()
	for _, s := range subs {
		s(st)
	}
	return st
}

// persisted writes the preferences and returns st, the state the caller's change produced.
func (c *Controller) persisted(ctx context.Context, st State) (State, error) {
	return st, c.persist(ctx)
}

// persist writes the preferences as they are once any earlier write has landed,
// so the last write to reach the store always carries the latest change.
func (c *Controller) persist(ctx context.Context) error {
	c.persistMu.Lock()
	defer c.persistMu.Unlock()

	data, err := json.Marshal(c.Preferences())
	if err != nil {
		return err
	}
	if err := c.store.Set(ctx, c.key, data); err != nil {
		c.log.Warnw("preferences_persist_failed", "error", err)
		return fmt.Errorf("persist preferences: %w", err)
	}
	return nil
}

func (c *Controller) applyPrefs(p models.Preferences) {
	c.state.Window.PeriodMs = p.PeriodMs
	c.state.Toggles = p.DisplayToggles
	c.state.Window.LeftEdgeMs = c.state.Window.RightEdgeMs - p.PeriodMs
}

func (c *Controller) prefsLocked() models.Preferences {
	return models.Preferences{DisplayToggles: c.state.Toggles, PeriodMs: c.state.Window.PeriodMs}
}

func decodePrefs(data []byte) (models.Preferences, error) {
	var raw struct {
		DisplayToggles *models.DisplayToggles `json:"displayToggles"`
		PeriodMs       *int64                 `json:"periodMs"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return models.Preferences{}, err
	}
	p := models.DefaultPreferences()
	if raw.DisplayToggles != nil {
		p.DisplayToggles = *raw.DisplayToggles
	}
	if raw.PeriodMs != nil {
		if *raw.PeriodMs <= 0 || *raw.PeriodMs > MaxPeriodMs {
			return models.Preferences{}, fmt.Errorf("%w: stored periodMs %d", ErrInvalidPeriod, *raw.PeriodMs)
		}
		p.PeriodMs = *raw.PeriodMs
	}
	return p, nil
}
