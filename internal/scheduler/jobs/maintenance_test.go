package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/portfolio-dashboard/internal/cache"
)

type fakePruner struct {
	olderThan time.Duration
}

func (f *fakePruner) Prune(olderThan time.Duration) int {
	f.olderThan = olderThan
	return 3
}

func TestEvery(t *testing.T) {
	assert.Equal(t, "@every 3s", every(3*time.Second))
	assert.Equal(t, "@every 2s", every(1500*time.Millisecond))
	assert.Equal(t, "@every 1s", every(0))
}

func TestCacheSweepJob(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	c := cache.New(10*time.Second, cache.WithClock(func() time.Time { return now }))
	c.Set("a", 1, 0)
	c.Set("b", 2, time.Hour)

	job := NewCacheSweepJob(c, 2*time.Second)
	assert.Equal(t, "cache_sweep", job.Name())
	assert.Equal(t, "@every 2s", job.Schedule())

	now = now.Add(11 * time.Second)
	removed, err := job.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, c.Stats().Keys)
}

func TestLimiterPruneJob(t *testing.T) {
	p := &fakePruner{}
	job := NewLimiterPruneJob(p, time.Minute)

	assert.Equal(t, "rate_limit_prune", job.Name())
	assert.Equal(t, "@every 60s", job.Schedule())
	removed, err := job.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, removed)
	assert.Equal(t, time.Minute, p.olderThan)

	assert.Equal(t, "rate_limit_prune_portfolio", job.Named("rate_limit_prune_portfolio").Name())
}
