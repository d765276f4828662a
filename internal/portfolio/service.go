package portfolio

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/wonny/portfolio-dashboard/internal/cache"
	"github.com/wonny/portfolio-dashboard/internal/contracts"
	"github.com/wonny/portfolio-dashboard/pkg/logger"
)

// CacheKey is where the computed response is cached
const CacheKey = "portfolio"

// MarketDataProvider fetches merged market data keyed by exchange code
type MarketDataProvider interface {
	FetchAll(ctx context.Context, symbols []string) map[string]contracts.MarketData
}

// Service is the single entry point for the computed portfolio.
// Concurrent misses each recompute unless single-flight is enabled.
type Service struct {
	holdings HoldingsProvider
	market   MarketDataProvider
	cache    *cache.TTLCache
	logger   *logger.Logger
	exchange string
	now      func() time.Time
	group    *singleflight.Group
}

// NewService creates a portfolio service for NSE codes
func NewService(holdings HoldingsProvider, market MarketDataProvider, c *cache.TTLCache, log *logger.Logger) *Service {
	return &Service{
		holdings: holdings,
		market:   market,
		cache:    c,
		logger:   log,
		exchange: "NSE",
		now:      time.Now,
	}
}

// WithExchange selects which holding code is used for lookups
func (s *Service) WithExchange(exchange string) *Service {
	s.exchange = exchange
	return s
}

// WithSingleFlight coalesces concurrent cache misses into one computation
func (s *Service) WithSingleFlight() *Service {
	s.group = &singleflight.Group{}
	return s
}

// WithClock replaces time.Now for lastUpdated stamps
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// GetPortfolio returns the cached response when fresh, otherwise recomputes it.
// It fails only when holdings cannot be read.
// A recomputation outlives the caller: cancelling ctx never aborts the
// aggregation, so an abandoned request cannot cache a failed portfolio.
func (s *Service) GetPortfolio(ctx context.Context) (*contracts.PortfolioResponse, error) {
	var cached contracts.PortfolioResponse
	if s.cache.Get(CacheKey, &cached) {
		cached.CacheHit = true
		return &cached, nil
	}

	// upstream timeouts bound the work
	ctx = context.WithoutCancel(ctx)

	if s.group == nil {
		return s.compute(ctx)
	}

	v, err, shared := s.group.Do(CacheKey, func() (interface{}, error) {
		return s.compute(ctx)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		s.logger.Debug("Joined in-flight portfolio computation")
	}

	// coalesced callers each get their own copy
	return cloneResponse(v.(*contracts.PortfolioResponse))
}

// cloneResponse deep-copies resp through the same JSON snapshot the cache uses
func cloneResponse(resp *contracts.PortfolioResponse) (*contracts.PortfolioResponse, error) {
	data, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to copy portfolio: %w", err)
	}
	var out contracts.PortfolioResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to copy portfolio: %w", err)
	}
	return &out, nil
}

// Invalidate drops the cached response so the next call recomputes
func (s *Service) Invalidate() {
	s.cache.Delete(CacheKey)
}

func (s *Service) compute(ctx context.Context) (*contracts.PortfolioResponse, error) {
	start := time.Now()

	holdings, err := s.holdings.Holdings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load holdings: %w", err)
	}

	codes := make([]string, 0, len(holdings))
	seen := make(map[string]struct{}, len(holdings))
	for _, h := range holdings {
		code := h.LookupCode(s.exchange)
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		codes = append(codes, code)
	}

	byCode := s.market.FetchAll(ctx, codes)

	market := make([]contracts.MarketData, len(holdings))
	for i, h := range holdings {
		market[i] = byCode[h.LookupCode(s.exchange)]
	}

	resp := Calculate(holdings, market, s.now().UTC())
	s.cache.Set(CacheKey, resp, 0)

	s.logger.WithFields(map[string]interface{}{
		"stocks":   len(resp.Stocks),
		"sectors":  len(resp.Sectors),
		"duration": time.Since(start),
	}).Info("Portfolio computed")

	return &resp, nil
}
