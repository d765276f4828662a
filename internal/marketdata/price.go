package marketdata

import (
	"context"
	"sync"
	"time"

	"github.com/wonny/portfolio-dashboard/internal/cache"
	"github.com/wonny/portfolio-dashboard/internal/contracts"
	"github.com/wonny/portfolio-dashboard/pkg/httputil"
	"github.com/wonny/portfolio-dashboard/pkg/logger"
)

// Default throttling for the price upstream
const (
	DefaultBatchSize  = 5
	DefaultBatchDelay = 100 * time.Millisecond
)

// PriceFetcher returns the current market price for one exchange code
type PriceFetcher interface {
	FetchPrice(ctx context.Context, code string) (float64, error)
}

// PriceSource serves current market prices cache-aside.
// FetchMany runs fixed-size batches one after another; requests inside a batch run in parallel.
// ⭐ SSOT: CMP 조회는 이 소스에서만
type PriceSource struct {
	fetcher    PriceFetcher
	cache      *cache.TTLCache
	logger     *logger.Logger
	batchSize  int
	batchDelay time.Duration
	sleep      func(ctx context.Context, d time.Duration) error
}

// NewPriceSource creates a price source with the default batching
func NewPriceSource(fetcher PriceFetcher, c *cache.TTLCache, log *logger.Logger) *PriceSource {
	return &PriceSource{
		fetcher:    fetcher,
		cache:      c,
		logger:     log,
		batchSize:  DefaultBatchSize,
		batchDelay: DefaultBatchDelay,
		sleep:      httputil.SleepContext,
	}
}

// WithBatching overrides the batch size and the pause between batches
func (s *PriceSource) WithBatching(size int, delay time.Duration) *PriceSource {
	if size > 0 {
		s.batchSize = size
	}
	if delay >= 0 {
		s.batchDelay = delay
	}
	return s
}

// WithSleep replaces the pause implementation
func (s *PriceSource) WithSleep(sleep func(ctx context.Context, d time.Duration) error) *PriceSource {
	s.sleep = sleep
	return s
}

// PriceCacheKey is the cache key of a symbol's price
func PriceCacheKey(symbol string) string {
	return "price:" + symbol
}

// FetchOne returns the price for symbol. Failures are reported in the result and never cached.
func (s *PriceSource) FetchOne(ctx context.Context, symbol string) contracts.PriceResult {
	key := PriceCacheKey(symbol)

	var cached contracts.PriceResult
	if s.cache.Get(key, &cached) {
		return cached
	}

	price, err := s.fetcher.FetchPrice(ctx, symbol)
	if err != nil {
		s.logger.WithFields(map[string]interface{}{
			"symbol": symbol,
			"error":  err.Error(),
		}).Warn("Price fetch failed")
		return contracts.PriceResult{
			Symbol: symbol,
			Error:  "Failed to fetch CMP: " + err.Error(),
		}
	}

	result := contracts.PriceResult{Symbol: symbol, Price: &price}
	s.cache.Set(key, result, 0)
	return result
}

// FetchMany returns one result per input symbol, keyed by symbol
func (s *PriceSource) FetchMany(ctx context.Context, symbols []string) map[string]contracts.PriceResult {
	results := make(map[string]contracts.PriceResult, len(symbols))
	var mu sync.Mutex

	batches := chunk(symbols, s.batchSize)
	for i, batch := range batches {
		var wg sync.WaitGroup
		for _, symbol := range batch {
			wg.Add(1)
			go func(symbol string) {
				defer wg.Done()
				result := s.FetchOne(ctx, symbol)

				mu.Lock()
				results[symbol] = result
				mu.Unlock()
			}(symbol)
		}
		wg.Wait()

		if i < len(batches)-1 {
			if err := s.sleep(ctx, s.batchDelay); err != nil {
				// context ended: remaining symbols still get a result
				for _, rest := range batches[i+1:] {
					for _, symbol := range rest {
						results[symbol] = contracts.PriceResult{
							Symbol: symbol,
							Error:  "Failed to fetch CMP: " + err.Error(),
						}
					}
				}
				break
			}
		}
	}

	s.logger.WithFields(map[string]interface{}{
		"symbols": len(symbols),
		"batches": len(batches),
	}).Debug("Fetched prices")

	return results
}

// chunk splits symbols into consecutive slices of at most size elements
func chunk(symbols []string, size int) [][]string {
	if size <= 0 {
		size = 1
	}
	var batches [][]string
	for start := 0; start < len(symbols); start += size {
		end := start + size
		if end > len(symbols) {
			end = len(symbols)
		}
		batches = append(batches, symbols[start:end])
	}
	return batches
}
