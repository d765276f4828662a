package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// MemoryLimiter keeps one token bucket per client in process memory.
// Each bucket holds Limit tokens and refills Limit tokens per Window.
type MemoryLimiter struct {
	policy  Policy
	mu      sync.Mutex
	clients map[string]*client
	now     func() time.Time
}

// NewMemoryLimiter creates an in-process limiter for policy
func NewMemoryLimiter(policy Policy) *MemoryLimiter {
	return &MemoryLimiter{
		policy:  policy,
		clients: make(map[string]*client),
		now:     time.Now,
	}
}

// WithClock replaces time.Now
func (m *MemoryLimiter) WithClock(now func() time.Time) *MemoryLimiter {
	m.now = now
	return m
}

// Allow takes one token from key's bucket
func (m *MemoryLimiter) Allow(_ context.Context, key string) (Decision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	c, ok := m.clients[key]
	if !ok {
		every := m.policy.Window / time.Duration(m.policy.Limit)
		c = &client{limiter: rate.NewLimiter(rate.Every(every), m.policy.Limit)}
		m.clients[key] = c
	}
	c.lastSeen = now

	decision := Decision{Limit: m.policy.Limit}

	reservation := c.limiter.ReserveN(now, 1)
	if delay := reservation.DelayFrom(now); delay > 0 {
		reservation.CancelAt(now)
		decision.RetryAfter = delay
		return decision, nil
	}

	decision.Allowed = true
	if remaining := int(c.limiter.TokensAt(now)); remaining > 0 {
		decision.Remaining = remaining
	}
	return decision, nil
}

// Prune forgets clients idle for longer than olderThan and returns how many were dropped
func (m *MemoryLimiter) Prune(olderThan time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().Add(-olderThan)
	removed := 0
	for key, c := range m.clients {
		if c.lastSeen.Before(cutoff) {
			delete(m.clients, key)
			removed++
		}
	}
	return removed
}

// Clients returns the number of tracked clients
func (m *MemoryLimiter) Clients() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.clients)
}
