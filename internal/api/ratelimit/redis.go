package ratelimit

import (
	"context"

	"github.com/wonny/portfolio-dashboard/pkg/redis"
)

// RedisLimiter shares the quota across instances through a Redis sliding window
type RedisLimiter struct {
	policy  Policy
	limiter *redis.RateLimiter
}

// NewRedisLimiter creates a limiter backed by the shared sliding window
func NewRedisLimiter(policy Policy, limiter *redis.RateLimiter) *RedisLimiter {
	return &RedisLimiter{
		policy:  policy,
		limiter: limiter,
	}
}

// Allow records one request for key in the window
func (l *RedisLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	allowed, remaining, err := l.limiter.Allow(ctx, redis.RateLimitConfig{
		Key:    l.policy.Name + ":" + key,
		Limit:  l.policy.Limit,
		Window: l.policy.Window,
	})
	if err != nil {
		return Decision{}, err
	}

	decision := Decision{
		Allowed:   allowed,
		Limit:     l.policy.Limit,
		Remaining: remaining,
	}
	if !allowed {
		decision.RetryAfter = l.policy.Window
	}
	return decision, nil
}
