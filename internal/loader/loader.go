// Package loader reconciles the local cache with the device's append-only log chunks.
package loader

import (
	"context"
	"fmt"
	"sort"

	"heat_controller/internal/logger"
	"heat_controller/internal/models"
	"heat_controller/internal/wire"
)

type ChunkFetcher interface {
	FetchChunk(ctx context.Context, name string) (string, error)
}

// PendingFetcher returns rows the device still holds in memory.
type PendingFetcher interface {
	Pending(ctx context.Context) ([]models.LogLine, error)
}

// Store is the part of the local cache the loader writes to.
type Store interface {
	Merge(lines []models.LogLine) int
	Persist(ctx context.Context) error
}

// Observer is told about every parsed chunk.
type Observer interface {
	ObserveChunk(name string, outcome wire.Outcome, lines int)
}

// ChunkResult describes one merged chunk.
type ChunkResult struct {
	Name    string `json:"name"`
	Lines   int    `json:"lines"`
	Added   int    `json:"added"`
	Outcome string `json:"outcome"`
}

// Result summarizes one loading pass.
type Result struct {
	Watermark int64         `json:"watermark"`
	Fetched   int           `json:"fetched"`
	Added     int           `json:"added"`
	Pending   int           `json:"pending"`
	Chunks    []ChunkResult `json:"chunks"`
	// Fresh holds merged lines newer than the watermark, ascending.
	Fresh []models.LogLine `json:"-"`
}

type Loader struct {
	fetcher  ChunkFetcher
	pending  PendingFetcher
	store    Store
	observer Observer
	log      *logger.Logger
}

// New builds a loader. pending and observer may be nil.
func New(fetcher ChunkFetcher, pending PendingFetcher, store Store, observer Observer, log *logger.Logger) *Loader {
	return &Loader{
		fetcher:  fetcher,
		pending:  pending,
		store:    store,
		observer: observer,
		log:      logger.OrNop(log).Named("loader"),
	}
}

// Load walks chunks newest to oldest, merging and persisting each before fetching the next,
// and stops at the first chunk whose oldest record is at or before watermark. The device's
// unflushed buffer is merged last. On a fetch failure the pass ends with an error; chunks
// merged earlier in the pass stay merged and persisted.
func (l *Loader) Load(ctx context.Context, chunks []models.RemoteChunk, watermark int64) (Result, error) {
	res := Result{Watermark: watermark, Chunks: []ChunkResult{}}
	pager := NewPager(chunks, watermark)
	var fresh [][]models.LogLine

	for {
		chunk, ok := pager.Next()
		if !ok {
			break
		}
		if err := ctx.Err(); err != nil {
			return l.finish(res, fresh), err
		}

		text, err := l.fetcher.FetchChunk(ctx, chunk.Name)
		if err != nil {
			l.log.Warnw("chunk_fetch_failed", "name", chunk.Name, "merged_chunks", len(res.Chunks), "error", err)
			return l.finish(res, fresh), fmt.Errorf("fetch chunk %s: %w", chunk.Name, err)
		}
		res.Fetched++

		lines, outcome := wire.ParseChunk(text)
		if l.observer != nil {
			l.observer.ObserveChunk(chunk.Name, outcome, len(lines))
		}
		if outcome == wire.OutcomeFailed {
			l.log.Warnw("chunk_unparseable", "name", chunk.Name, "bytes", len(text))
		} else if outcome != wire.OutcomeClean {
			l.log.Infow("chunk_repaired", "name", chunk.Name, "outcome", outcome.String(), "lines", len(lines))
		}

		added := l.store.Merge(lines)
		if err := l.store.Persist(ctx); err != nil {
			return l.finish(res, fresh), fmt.Errorf("persist after chunk %s: %w", chunk.Name, err)
		}
		res.Added += added
		res.Chunks = append(res.Chunks, ChunkResult{Name: chunk.Name, Lines: len(lines), Added: added, Outcome: outcome.String()})
		fresh = append(fresh, newerThan(lines, watermark))

		oldest, ok := oldestOf(lines)
		pager.Observe(oldest, ok)
		l.log.Debugw("chunk_merged", "name", chunk.Name, "lines", len(lines), "added", added, "oldest", oldest)
	}

	if l.pending != nil {
		lines, err := l.pending.Pending(ctx)
		if err != nil {
			return l.finish(res, fresh), fmt.Errorf("fetch pending rows: %w", err)
		}
		if len(lines) > 0 {
			added := l.store.Merge(lines)
			if err := l.store.Persist(ctx); err != nil {
				return l.finish(res, fresh), fmt.Errorf("persist pending rows: %w", err)
			}
			res.Added += added
			res.Pending = len(lines)
			fresh = append(fresh, newerThan(lines, watermark))
		}
	}
	return l.finish(res, fresh), nil
}

func (l *Loader) finish(res Result, fresh [][]models.LogLine) Result {
	seen := map[int64]int{}
	for _, batch := range fresh {
		for _, line := range batch {
			if i, ok := seen[line.Timestamp]; ok {
				res.Fresh[i] = line
				continue
			}
			seen[line.Timestamp] = len(res.Fresh)
			res.Fresh = append(res.Fresh, line)
		}
	}
	sortLines(res.Fresh)
	return res
}

func oldestOf(lines []models.LogLine) (int64, bool) {
	if len(lines) == 0 {
		return 0, false
	}
	oldest := lines[0].Timestamp
	for _, l := range lines[1:] {
		if l.Timestamp < oldest {
			oldest = l.Timestamp
		}
	}
	return oldest, true
}

func newerThan(lines []models.LogLine, watermark int64) []models.LogLine {
	var out []models.LogLine
	for _, l := range lines {
		if l.Timestamp > watermark {
			out = append(out, l)
		}
	}
	return out
}

func sortLines(lines []models.LogLine) {
	sort.SliceStable(lines, func(i, j int) bool { return lines[i].Timestamp < lines[j].Timestamp })
}
