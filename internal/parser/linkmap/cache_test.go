package linkmap

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linkmap-analysis/internal/testutil"
)

func TestDigest(t *testing.T) {
	a := Digest("abc")

	assert.Len(t, a, 16)
	assert.Equal(t, a, Digest("abc"))
	assert.NotEqual(t, a, Digest("abd"))
}

func TestCache_ReusesReportForSameText(t *testing.T) {
	cache, err := NewCache(0)
	require.NoError(t, err)

	first, cached := cache.Report("app.map", testutil.SampleMap())
	assert.False(t, cached)

	second, cached := cache.Report("app.map", testutil.SampleMap())
	assert.True(t, cached)
	assert.Same(t, first, second)

	assert.Equal(t, CacheStats{Hits: 1, Misses: 1, Size: 1}, cache.Stats())
}

func TestCache_ReparsesChangedText(t *testing.T) {
	cache, err := NewCache(4)
	require.NoError(t, err)

	before, _ := cache.Report("app.map", testutil.SampleMap())
	changed := strings.Replace(testutil.SampleMap(), "| RAM    | 0x0    |", "| RAM    | 0x400  |", 1)

	after, cached := cache.Report("app.map", changed)

	assert.False(t, cached)
	assert.NotEqual(t, before.Digest, after.Digest)
	assert.Equal(t, uint64(0x400), after.Regions[1].Code)
	assert.Equal(t, 1, cache.Stats().Size)
}

func TestCache_Invalidate(t *testing.T) {
	cache, err := NewCache(4)
	require.NoError(t, err)

	cache.Report("a.map", testutil.SampleMap())
	cache.Report("b.map", testutil.SampleMap())
	cache.Invalidate("a.map")

	_, cached := cache.Report("a.map", testutil.SampleMap())
	assert.False(t, cached)
	_, cached = cache.Report("b.map", testutil.SampleMap())
	assert.True(t, cached)

	cache.Purge()
	assert.Equal(t, 0, cache.Stats().Size)
}

func TestCache_Evicts(t *testing.T) {
	cache, err := NewCache(1)
	require.NoError(t, err)

	cache.Report("a.map", testutil.SampleMap())
	cache.Report("b.map", testutil.SampleMap())

	assert.Equal(t, 1, cache.Stats().Size)
	_, cached := cache.Report("a.map", testutil.SampleMap())
	assert.False(t, cached)
}

func TestCache_Concurrent(t *testing.T) {
	cache, err := NewCache(8)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			report, _ := cache.Report("app.map", testutil.SampleMap())
			assert.Len(t, report.Symbols, testutil.SampleSymbolCount)
		}()
	}
	wg.Wait()

	stats := cache.Stats()
	assert.Equal(t, int64(16), stats.Hits+stats.Misses)
}
