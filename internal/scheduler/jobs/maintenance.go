package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/portfolio-dashboard/internal/cache"
)

// every renders a cron descriptor, rounding up to whole seconds
func every(d time.Duration) string {
	secs := int((d + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return fmt.Sprintf("@every %ds", secs)
}

// CacheSweepJob evicts expired cache entries
type CacheSweepJob struct {
	cache    *cache.TTLCache
	interval time.Duration
}

// NewCacheSweepJob creates a sweep running every interval
func NewCacheSweepJob(c *cache.TTLCache, interval time.Duration) *CacheSweepJob {
	return &CacheSweepJob{cache: c, interval: interval}
}

// Name returns the job name
func (j *CacheSweepJob) Name() string {
	return "cache_sweep"
}

// Schedule returns the cron schedule
func (j *CacheSweepJob) Schedule() string {
	return every(j.interval)
}

// Run evicts expired entries and reports how many went
func (j *CacheSweepJob) Run(ctx context.Context) (int, error) {
	return j.cache.Sweep(), nil
}

// Pruner drops idle state, e.g. per-client rate limit buckets
type Pruner interface {
	Prune(olderThan time.Duration) int
}

// LimiterPruneJob forgets clients that have been idle for a whole window
type LimiterPruneJob struct {
	name   string
	pruner Pruner
	idle   time.Duration
}

// NewLimiterPruneJob creates a prune job for clients idle longer than idle
func NewLimiterPruneJob(p Pruner, idle time.Duration) *LimiterPruneJob {
	return &LimiterPruneJob{
		name:   "rate_limit_prune",
		pruner: p,
		idle:   idle,
	}
}

// Named overrides the job name, one job per limiter
func (j *LimiterPruneJob) Named(name string) *LimiterPruneJob {
	j.name = name
	return j
}

// Name returns the job name
func (j *LimiterPruneJob) Name() string {
	return j.name
}

// Schedule returns the cron schedule (once per idle window)
func (j *LimiterPruneJob) Schedule() string {
	return every(j.idle)
}

// Run forgets idle clients and reports how many went
func (j *LimiterPruneJob) Run(ctx context.Context) (int, error) {
	return j.pruner.Prune(j.idle), nil
}
