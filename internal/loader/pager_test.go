package loader

import (
	"testing"

	"github.com/stretchr/testify/require"

	"heat_controller/internal/models"
)

func names(cs []models.RemoteChunk) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Name
	}
	return out
}

func TestSortChunks_NaturalOrder(t *testing.T) {
	in := chunks("241102", "241101_10", "241101", "241101_2", "/d/241101_9", "231231")
	got := SortChunks(in)
	require.Equal(t, []string{"231231", "241101", "241101_2", "/d/241101_9", "241101_10", "241102"}, names(got))
	require.Equal(t, "241102", in[0].Name, "input untouched")
}

func TestPager_StopsWhenOldestReachesWatermark(t *testing.T) {
	p := NewPager(chunks("c1", "c2", "c3"), 150)

	c, ok := p.Next()
	require.True(t, ok)
	require.Equal(t, "c3", c.Name)
	p.Observe(200, true)

	c, ok = p.Next()
	require.True(t, ok)
	require.Equal(t, "c2", c.Name)
	p.Observe(150, true)

	_, ok = p.Next()
	require.False(t, ok)
}

func TestPager_EmptyChunkKeepsWalking(t *testing.T) {
	p := NewPager(chunks("c1", "c2"), 1000)
	_, _ = p.Next()
	p.Observe(0, false)
	c, ok := p.Next()
	require.True(t, ok)
	require.Equal(t, "c1", c.Name)
}

func TestPager_NoChunks(t *testing.T) {
	p := NewPager(nil, 0)
	_, ok := p.Next()
	require.False(t, ok)
}
