package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 2, 9, 15, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

type quote struct {
	Symbol string   `json:"symbol"`
	Price  *float64 `json:"price"`
	Tags   []string `json:"tags"`
}

func TestGetBeforeAndAfterExpiry(t *testing.T) {
	clock := newFakeClock()
	c := New(15*time.Second, WithClock(clock.Now))

	price := 3450.5
	require.True(t, c.Set("price:TCS", quote{Symbol: "TCS", Price: &price}, 0))

	clock.Advance(14 * time.Second)
	var got quote
	require.True(t, c.Get("price:TCS", &got))
	assert.Equal(t, "TCS", got.Symbol)
	assert.Equal(t, 3450.5, *got.Price)

	clock.Advance(time.Second)
	var expired quote
	assert.False(t, c.Get("price:TCS", &expired))

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, 0, stats.Keys, "expired entry is removed on read")
}

func TestSetTTLOverride(t *testing.T) {
	clock := newFakeClock()
	c := New(15*time.Second, WithClock(clock.Now))

	c.Set("short", 1, 2*time.Second)
	c.Set("long", 2, time.Minute)

	clock.Advance(20 * time.Second)

	var v int
	assert.False(t, c.Get("short", &v))
	require.True(t, c.Get("long", &v))
	assert.Equal(t, 2, v)
}

func TestGetReturnsIndependentCopy(t *testing.T) {
	c := New(time.Minute)

	original := quote{Symbol: "INFY", Tags: []string{"it"}}
	c.Set("q", original, 0)

	// mutating the source after Set must not leak into the cache
	original.Tags[0] = "mutated"

	var first quote
	require.True(t, c.Get("q", &first))
	assert.Equal(t, []string{"it"}, first.Tags)

	first.Tags[0] = "changed by caller"
	first.Symbol = "XXX"

	var second quote
	require.True(t, c.Get("q", &second))
	assert.Equal(t, "INFY", second.Symbol)
	assert.Equal(t, []string{"it"}, second.Tags)
}

func TestMissCountsUnknownKeys(t *testing.T) {
	c := New(time.Minute)

	var v string
	assert.False(t, c.Get("nope", &v))
	assert.Equal(t, int64(1), c.Stats().Misses)
}

func TestSetRejectsUnencodableValue(t *testing.T) {
	c := New(time.Minute)
	assert.False(t, c.Set("ch", make(chan int), 0))
	assert.False(t, c.Has("ch"))
}

func TestHasDeleteFlush(t *testing.T) {
	clock := newFakeClock()
	c := New(10*time.Second, WithClock(clock.Now))

	c.Set("a", 1, 0)
	c.Set("b", 2, 0)
	c.Set("c", 3, 0)

	assert.True(t, c.Has("a"))
	assert.False(t, c.Has("z"))

	assert.Equal(t, 2, c.Delete("a", "b", "z"))
	assert.Equal(t, 0, c.Delete("a"))
	assert.False(t, c.Has("a"))

	var v int
	c.Get("c", &v)
	c.Flush()

	stats := c.Stats()
	assert.Equal(t, Stats{}, stats)

	c.Set("d", 4, 0)
	clock.Advance(10 * time.Second)
	assert.False(t, c.Has("d"))
}

func TestSweepRemovesOnlyExpired(t *testing.T) {
	clock := newFakeClock()
	c := New(10*time.Second, WithClock(clock.Now))

	c.Set("old", 1, 0)
	clock.Advance(6 * time.Second)
	c.Set("fresh", 2, 0)
	clock.Advance(5 * time.Second)

	assert.Equal(t, 1, c.Sweep())
	assert.Equal(t, 1, c.Stats().Keys)
	assert.True(t, c.Has("fresh"))
}

func TestNonPositiveDefaultTTL(t *testing.T) {
	c := New(0)
	assert.Equal(t, DefaultTTL, c.DefaultTTL())
}

func TestConcurrentAccess(t *testing.T) {
	c := New(time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			c.Set("k", n, 0)
			var v int
			c.Get("k", &v)
			c.Has("k")
			c.Sweep()
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, c.Stats().Keys)
}
