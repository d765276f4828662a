package commands

import (
	"fmt"
	"strings"

	"github.com/wonny/portfolio-dashboard/internal/cache"
	"github.com/wonny/portfolio-dashboard/internal/external/google"
	"github.com/wonny/portfolio-dashboard/internal/external/yahoo"
	"github.com/wonny/portfolio-dashboard/internal/marketdata"
	"github.com/wonny/portfolio-dashboard/internal/portfolio"
	"github.com/wonny/portfolio-dashboard/pkg/config"
	"github.com/wonny/portfolio-dashboard/pkg/httputil"
	"github.com/wonny/portfolio-dashboard/pkg/logger"
)

func normalizeExchange(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// buildPortfolioService wires holdings, both upstream sources and the aggregator
// behind one portfolio.Service sharing the given cache
// ⭐ SSOT: 데이터 소스 조립은 이 함수에서만
func buildPortfolioService(cfg *config.Config, log *logger.Logger, c *cache.TTLCache) (*portfolio.Service, error) {
	holdings, err := portfolio.LoadHoldings(cfg.HoldingsFile)
	if err != nil {
		return nil, fmt.Errorf("load holdings: %w", err)
	}

	// Yahoo: no retry, a failed price stays uncached and is tried on the next refresh
	yahooHTTP := httputil.NewWithTimeout(log.Module("yahoo"), cfg.Yahoo.Timeout).
		WithRateLimit(cfg.Yahoo.RateLimit)
	yahooClient := yahoo.NewClient(yahooHTTP, log.Module("yahoo"), cfg.Yahoo.BaseURL).
		WithExchange(cfg.Exchange)

	// Google: retries live in the client's own backoff
	googleHTTP := httputil.NewWithTimeout(log.Module("google"), cfg.Google.Timeout)
	googleClient := google.NewClient(googleHTTP, log.Module("google"), cfg.Google.BaseURL, cfg.Google.MaxRetries, cfg.Google.RetryDelay).
		WithExchange(cfg.Exchange)

	prices := marketdata.NewPriceSource(yahooClient, c, log.Module("price_source")).
		WithBatching(cfg.Yahoo.BatchSize, cfg.Yahoo.BatchDelay)
	fundamentals := marketdata.NewFundamentalsSource(googleClient, c, log.Module("fundamentals_source")).
		WithRequestDelay(cfg.Google.RequestDelay)

	aggregator := marketdata.NewAggregator(prices, fundamentals, log.Module("aggregator"))

	svc := portfolio.NewService(holdings, aggregator, c, log.Module("portfolio")).
		WithExchange(cfg.Exchange)
	if cfg.SingleFlight {
		svc = svc.WithSingleFlight()
	}

	return svc, nil
}
