package marketdata

import (
	"context"
	"time"

	"github.com/wonny/portfolio-dashboard/internal/cache"
	"github.com/wonny/portfolio-dashboard/internal/contracts"
	"github.com/wonny/portfolio-dashboard/pkg/httputil"
	"github.com/wonny/portfolio-dashboard/pkg/logger"
)

// DefaultRequestDelay is the pause between two fundamentals requests
const DefaultRequestDelay = 300 * time.Millisecond

// FundamentalsFetcher returns the P/E ratio and latest earnings for one exchange code.
// Implementations own their retry policy.
type FundamentalsFetcher interface {
	FetchFundamentals(ctx context.Context, code string) (contracts.FundamentalsResult, error)
}

// FundamentalsSource serves P/E ratio and earnings cache-aside.
// The upstream blocks bursty clients, so FetchMany is strictly sequential.
// ⭐ SSOT: P/E, 실적 조회는 이 소스에서만
type FundamentalsSource struct {
	fetcher      FundamentalsFetcher
	cache        *cache.TTLCache
	logger       *logger.Logger
	requestDelay time.Duration
	sleep        func(ctx context.Context, d time.Duration) error
}

// NewFundamentalsSource creates a fundamentals source with the default request delay
func NewFundamentalsSource(fetcher FundamentalsFetcher, c *cache.TTLCache, log *logger.Logger) *FundamentalsSource {
	return &FundamentalsSource{
		fetcher:      fetcher,
		cache:        c,
		logger:       log,
		requestDelay: DefaultRequestDelay,
		sleep:        httputil.SleepContext,
	}
}

// WithRequestDelay overrides the pause between requests
func (s *FundamentalsSource) WithRequestDelay(delay time.Duration) *FundamentalsSource {
	if delay >= 0 {
		s.requestDelay = delay
	}
	return s
}

// WithSleep replaces the pause implementation
func (s *FundamentalsSource) WithSleep(sleep func(ctx context.Context, d time.Duration) error) *FundamentalsSource {
	s.sleep = sleep
	return s
}

// FundamentalsCacheKey is the cache key of a symbol's fundamentals
func FundamentalsCacheKey(symbol string) string {
	return "fundamentals:" + symbol
}

// FetchOne returns the fundamentals for symbol. Failures are reported in the result and never cached.
func (s *FundamentalsSource) FetchOne(ctx context.Context, symbol string) contracts.FundamentalsResult {
	key := FundamentalsCacheKey(symbol)

	var cached contracts.FundamentalsResult
	if s.cache.Get(key, &cached) {
		return cached
	}

	result, err := s.fetcher.FetchFundamentals(ctx, symbol)
	if err != nil {
		s.logger.WithFields(map[string]interface{}{
			"symbol": symbol,
			"error":  err.Error(),
		}).Warn("Fundamentals fetch failed")
		return contracts.FundamentalsResult{
			Symbol: symbol,
			Error:  "Failed to fetch from Google Finance: " + err.Error(),
		}
	}

	result.Symbol = symbol
	result.Error = ""
	s.cache.Set(key, result, 0)
	return result
}

// FetchMany fetches symbols one at a time, pausing between requests
func (s *FundamentalsSource) FetchMany(ctx context.Context, symbols []string) map[string]contracts.FundamentalsResult {
	results := make(map[string]contracts.FundamentalsResult, len(symbols))

	for i, symbol := range symbols {
		results[symbol] = s.FetchOne(ctx, symbol)

		if i < len(symbols)-1 {
			if err := s.sleep(ctx, s.requestDelay); err != nil {
				for _, rest := range symbols[i+1:] {
					results[rest] = contracts.FundamentalsResult{
						Symbol: rest,
						Error:  "Failed to fetch from Google Finance: " + err.Error(),
					}
				}
				break
			}
		}
	}

	return results
}
