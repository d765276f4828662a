package ratelimit

import (
	"context"
	"encoding/json"
	"math"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/wonny/portfolio-dashboard/pkg/logger"
)

// Policy is a request quota per client
type Policy struct {
	Name    string // bucket namespace, e.g. "global" or "portfolio"
	Limit   int
	Window  time.Duration
	Message string // body message on rejection
}

// Decision is the outcome of one admission check
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// Limiter admits or rejects a request for a client key
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// rejection is the 429 body
type rejection struct {
	Success    bool   `json:"success"`
	Status     int    `json:"status"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retryAfter"`
}

// Middleware gates requests through l, keyed by client address.
// Requests for which skip returns true pass untouched. A failing store lets the request through.
func Middleware(l Limiter, policy Policy, log *logger.Logger, skip func(*http.Request) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skip != nil && skip(r) {
				next.ServeHTTP(w, r)
				return
			}

			decision, err := l.Allow(r.Context(), ClientKey(r))
			if err != nil {
				log.WithError(err).WithField("policy", policy.Name).Warn("Rate limit check failed, allowing request")
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("RateLimit-Limit", strconv.Itoa(decision.Limit))
			w.Header().Set("RateLimit-Remaining", strconv.Itoa(decision.Remaining))

			if decision.Allowed {
				next.ServeHTTP(w, r)
				return
			}

			retryAfter := int(math.Ceil(decision.RetryAfter.Seconds()))
			if retryAfter < 1 {
				retryAfter = 1
			}

			log.WithFields(map[string]interface{}{
				"policy": policy.Name,
				"client": ClientKey(r),
				"path":   r.URL.Path,
			}).Debug("Request rate limited")

			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(rejection{
				Success:    false,
				Status:     http.StatusTooManyRequests,
				Message:    policy.Message,
				RetryAfter: retryAfter,
			})
		})
	}
}

// ClientKey identifies the caller by remote IP
func ClientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
