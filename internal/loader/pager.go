package loader

import (
	"path"
	"sort"
	"strconv"
	"strings"

	"heat_controller/internal/models"
)

// SortChunks orders chunks oldest first by natural name: the YYMMDD part, then the
// numeric _N suffix, so "241101_10" follows "241101_9". The input is not modified.
func SortChunks(chunks []models.RemoteChunk) []models.RemoteChunk {
	out := append([]models.RemoteChunk(nil), chunks...)
	sort.SliceStable(out, func(i, j int) bool { return chunkLess(out[i].Name, out[j].Name) })
	return out
}

func chunkLess(a, b string) bool {
	abase, asuf := splitChunkName(a)
	bbase, bsuf := splitChunkName(b)
	if abase != bbase {
		return abase < bbase
	}
	if asuf != bsuf {
		return asuf < bsuf
	}
	return a < b
}

func splitChunkName(name string) (string, int) {
	name = path.Base(name)
	base, suffix, found := strings.Cut(name, "_")
	if !found {
		return base, 0
	}
	n, err := strconv.Atoi(suffix)
	if err != nil {
		return name, 0
	}
	return base, n
}

// Pager walks chunks newest to oldest and decides when the walk may stop.
// The driver calls Next, merges the chunk, then reports the chunk's oldest record via Observe.
type Pager struct {
	chunks    []models.RemoteChunk // newest first
	watermark int64
	pos       int
	done      bool
}

func NewPager(chunks []models.RemoteChunk, watermark int64) *Pager {
	sorted := SortChunks(chunks)
	for i, j := 0, len(sorted)-1; i < j; i, j = i+1, j-1 {
		sorted[i], sorted[j] = sorted[j], sorted[i]
	}
	return &Pager{chunks: sorted, watermark: watermark}
}

// Next yields the next older chunk, or false when the walk is over.
func (p *Pager) Next() (models.RemoteChunk, bool) {
	if p.done || p.pos >= len(p.chunks) {
		p.done = true
		return models.RemoteChunk{}, false
	}
	c := p.chunks[p.pos]
	p.pos++
	return c, true
}

// Observe records the oldest timestamp of the chunk just merged. ok=false means the chunk
// held no usable records; such a chunk says nothing about coverage and never stops the walk.
func (p *Pager) Observe(oldest int64, ok bool) {
	if ok && oldest <= p.watermark {
		p.done = true
	}
}
