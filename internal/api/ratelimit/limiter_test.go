package ratelimit

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/portfolio-dashboard/pkg/config"
	"github.com/wonny/portfolio-dashboard/pkg/logger"
	"github.com/wonny/portfolio-dashboard/pkg/redis"
)

var portfolioPolicy = Policy{
	Name:    "portfolio",
	Limit:   2,
	Window:  15 * time.Second,
	Message: "Portfolio data is cached for 15 seconds. Please wait before refreshing.",
}

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func TestMemoryLimiterQuota(t *testing.T) {
	clk := &clock{now: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
	l := NewMemoryLimiter(portfolioPolicy).WithClock(clk.Now)
	ctx := context.Background()

	d, err := l.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 1, d.Remaining)

	d, _ = l.Allow(ctx, "10.0.0.1")
	assert.True(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)

	d, _ = l.Allow(ctx, "10.0.0.1")
	assert.False(t, d.Allowed)
	assert.Equal(t, 7500*time.Millisecond, d.RetryAfter)

	// other clients have their own bucket
	d, _ = l.Allow(ctx, "10.0.0.2")
	assert.True(t, d.Allowed)

	clk.now = clk.now.Add(15 * time.Second)
	d, _ = l.Allow(ctx, "10.0.0.1")
	assert.True(t, d.Allowed)
}

func TestMemoryLimiterPrune(t *testing.T) {
	clk := &clock{now: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
	l := NewMemoryLimiter(portfolioPolicy).WithClock(clk.Now)

	l.Allow(context.Background(), "a")
	clk.now = clk.now.Add(time.Minute)
	l.Allow(context.Background(), "b")

	assert.Equal(t, 1, l.Prune(30*time.Second))
	assert.Equal(t, 1, l.Clients())
}

func TestMiddlewareRejectsOverQuota(t *testing.T) {
	l := NewMemoryLimiter(portfolioPolicy)
	handler := Middleware(l, portfolioPolicy, logger.Nop(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/portfolio", nil)
		req.RemoteAddr = "192.0.2.7:5555"
		last = httptest.NewRecorder()
		handler.ServeHTTP(last, req)
		if i < 2 {
			assert.Equal(t, http.StatusOK, last.Code)
		}
	}

	assert.Equal(t, http.StatusTooManyRequests, last.Code)
	assert.Equal(t, "8", last.Header().Get("Retry-After"))
	assert.Equal(t, "2", last.Header().Get("RateLimit-Limit"))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(last.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
	assert.Equal(t, float64(429), body["status"])
	assert.Equal(t, portfolioPolicy.Message, body["message"])
	assert.Equal(t, float64(8), body["retryAfter"])
}

func TestMiddlewareSkip(t *testing.T) {
	policy := Policy{Name: "global", Limit: 1, Window: time.Minute}
	l := NewMemoryLimiter(policy)
	handler := Middleware(l, policy, logger.Nop(), func(r *http.Request) bool {
		return r.URL.Path == "/api/health"
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
	assert.Equal(t, 0, l.Clients())
}

type brokenLimiter struct{}

func (brokenLimiter) Allow(context.Context, string) (Decision, error) {
	return Decision{}, errors.New("store down")
}

func TestMiddlewareFailsOpen(t *testing.T) {
	handler := Middleware(brokenLimiter{}, portfolioPolicy, logger.Nop(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/portfolio", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRedisLimiterDisabledClientAllows(t *testing.T) {
	client, err := redis.New(context.Background(), &config.Config{})
	require.NoError(t, err)

	l := NewRedisLimiter(portfolioPolicy, redis.NewRateLimiter(client, "dashboard"))
	for i := 0; i < 5; i++ {
		d, err := l.Allow(context.Background(), "a")
		require.NoError(t, err)
		assert.True(t, d.Allowed)
	}
}

func TestClientKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "[2001:db8::1]:443"
	assert.Equal(t, "2001:db8::1", ClientKey(req))

	req.RemoteAddr = "unix"
	assert.Equal(t, "unix", ClientKey(req))
}
