// Package cache holds the durable, timestamp-ordered collection of device log lines.
package cache

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"heat_controller/internal/logger"
	"heat_controller/internal/models"
	"heat_controller/internal/repository"
	"heat_controller/internal/wire"
)

// DefaultKey is the KV key the cache persists under.
const DefaultKey = "data"

// Notifier records user-visible notices.
type Notifier interface {
	Append(ctx context.Context, n models.Notice) error
}

// LocalCache is an ascending, timestamp-unique set of log lines.
// Readers always receive copies, so a later merge never reorders a slice already handed out.
type LocalCache struct {
	mu    sync.RWMutex
	lines []models.LogLine

	// persistMu spans encode and store write, so writes land in mutation order.
	persistMu sync.Mutex

	store    repository.KVStore
	key      string
	notifier Notifier
	log      *logger.Logger
}

// New returns an empty cache persisted through store under key.
func New(store repository.KVStore, key string, notifier Notifier, log *logger.Logger) *LocalCache {
	if key == "" {
		key = DefaultKey
	}
	return &LocalCache{
		store:    store,
		key:      key,
		notifier: notifier,
		log:      logger.OrNop(log).Named("cache"),
	}
}

// Merge inserts lines, overwriting existing entries that share a timestamp.
// It returns how many timestamps were new to the cache.
func (c *LocalCache) Merge(lines []models.LogLine) int {
	if len(lines) == 0 {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	byTS := make(map[int64]int, len(c.lines))
	for i, l := range c.lines {
		byTS[l.Timestamp] = i
	}
	added := 0
	for _, l := range lines {
		l = cloneLine(l)
		if i, ok := byTS[l.Timestamp]; ok {
			c.lines[i] = l
			continue
		}
		byTS[l.Timestamp] = len(c.lines)
		c.lines = append(c.lines, l)
		added++
	}
	sort.SliceStable(c.lines, func(i, j int) bool { return c.lines[i].Timestamp < c.lines[j].Timestamp })
	return added
}

// PurgeRange removes lines with start <= ts < end and returns how many were removed.
func (c *LocalCache) PurgeRange(start, end int64) int {
	if end <= start {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	kept := c.lines[:0]
	removed := 0
	for _, l := range c.lines {
		if l.Timestamp >= start && l.Timestamp < end {
			removed++
			continue
		}
		kept = append(kept, l)
	}
	// clear the tail so dropped readings can be collected
	for i := len(kept); i < len(c.lines); i++ {
		c.lines[i] = models.LogLine{}
	}
	c.lines = kept
	return removed
}

// Lines returns a copy of every cached line in ascending order.
func (c *LocalCache) Lines() []models.LogLine {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneLines(c.lines)
}

// Range returns a copy of the lines with from <= ts < to. A zero bound is open.
func (c *LocalCache) Range(from, to int64) []models.LogLine {
	c.mu.RLock()
	defer c.mu.RUnlock()

	lo := 0
	if from != 0 {
		lo = sort.Search(len(c.lines), func(i int) bool { return c.lines[i].Timestamp >= from })
	}
	hi := len(c.lines)
	if to != 0 {
		hi = sort.Search(len(c.lines), func(i int) bool { return c.lines[i].Timestamp >= to })
	}
	if hi <= lo {
		return []models.LogLine{}
	}
	return cloneLines(c.lines[lo:hi])
}

// Latest is the newest cached timestamp, or 0 when empty. It is the ingestion watermark.
func (c *LocalCache) Latest() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.lines) == 0 {
		return 0
	}
	return c.lines[len(c.lines)-1].Timestamp
}

// Earliest is the oldest cached timestamp, or 0 when empty.
func (c *LocalCache) Earliest() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.lines) == 0 {
		return 0
	}
	return c.lines[0].Timestamp
}

func (c *LocalCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.lines)
}

// Persist writes the whole cache to the store. A merge is durable only once this returns nil.
// Concurrent calls are serialized and each encodes the contents current when its turn comes,
// so an older snapshot never overwrites a newer one.
func (c *LocalCache) Persist(ctx context.Context) error {
	c.persistMu.Lock()
	defer c.persistMu.Unlock()

	c.mu.RLock()
	data, err := wire.EncodeLines(c.lines)
	c.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("encode cache: %w", err)
	}
	if err := c.store.Set(ctx, c.key, data); err != nil {
		return fmt.Errorf("persist cache: %w", err)
	}
	return nil
}

// Hydrate replaces the in-memory contents with the stored snapshot.
// Absent data yields an empty cache. Corrupt data is reported, then the cache is reset
// and the empty state persisted; only a store failure is returned as an error.
func (c *LocalCache) Hydrate(ctx context.Context) error {
	data, found, err := c.store.Get(ctx, c.key)
	if err != nil {
		return fmt.Errorf("load cache: %w", err)
	}
	if !found || len(data) == 0 {
		c.reset()
		return nil
	}

	lines, decodeErr := wire.DecodeLines(data)
	if decodeErr == nil {
		c.reset()
		c.Merge(lines)
		c.log.Infow("cache_hydrated", "lines", len(lines))
		return nil
	}

	c.log.Errorw("cache_corrupt", "key", c.key, "bytes", len(data), "error", decodeErr)
	c.reset()
	if c.notifier != nil {
		notice := models.Notice{
			Kind:     models.NoticeCacheReset,
			Message:  "Stored history could not be read and was reset; it will be reloaded from the device.",
			Metadata: map[string]any{"key": c.key, "bytes": len(data), "error": decodeErr.Error()},
		}
		if err := c.notifier.Append(ctx, notice); err != nil {
			c.log.Warnw("notice_append_failed", "kind", notice.Kind, "error", err)
		}
	}
	return c.Persist(ctx)
}

func (c *LocalCache) reset() {
	c.mu.Lock()
	c.lines = nil
	c.mu.Unlock()
}

func cloneLine(l models.LogLine) models.LogLine {
	if l.Readings != nil {
		l.Readings = append([]int(nil), l.Readings...)
	}
	return l
}

func cloneLines(in []models.LogLine) []models.LogLine {
	out := make([]models.LogLine, len(in))
	for i, l := range in {
		out[i] = cloneLine(l)
	}
	return out
}
