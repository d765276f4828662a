package marketdata

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wonny/portfolio-dashboard/internal/contracts"
	"github.com/wonny/portfolio-dashboard/pkg/logger"
)

// PriceProvider is the batch side of PriceSource
type PriceProvider interface {
	FetchMany(ctx context.Context, symbols []string) map[string]contracts.PriceResult
}

// FundamentalsProvider is the batch side of FundamentalsSource
type FundamentalsProvider interface {
	FetchMany(ctx context.Context, symbols []string) map[string]contracts.FundamentalsResult
}

// Aggregator fetches both sources concurrently and merges them per symbol.
// A failing source only annotates its own fields.
type Aggregator struct {
	prices       PriceProvider
	fundamentals FundamentalsProvider
	logger       *logger.Logger
	now          func() time.Time
}

// NewAggregator creates an aggregator over the two sources
func NewAggregator(prices PriceProvider, fundamentals FundamentalsProvider, log *logger.Logger) *Aggregator {
	return &Aggregator{
		prices:       prices,
		fundamentals: fundamentals,
		logger:       log,
		now:          time.Now,
	}
}

// FetchAll returns merged market data for every symbol. It waits for both sources.
func (a *Aggregator) FetchAll(ctx context.Context, symbols []string) map[string]contracts.MarketData {
	var (
		prices       map[string]contracts.PriceResult
		fundamentals map[string]contracts.FundamentalsResult
		g            errgroup.Group
	)

	g.Go(func() error {
		prices = a.prices.FetchMany(ctx, symbols)
		return nil
	})
	g.Go(func() error {
		fundamentals = a.fundamentals.FetchMany(ctx, symbols)
		return nil
	})
	_ = g.Wait()

	merged := make(map[string]contracts.MarketData, len(symbols))
	failures := 0
	for _, symbol := range symbols {
		data := a.merge(prices, fundamentals, symbol)
		failures += len(data.Errors)
		merged[symbol] = data
	}

	if failures > 0 {
		a.logger.WithFields(map[string]interface{}{
			"symbols":  len(symbols),
			"failures": failures,
		}).Warn("Market data partially unavailable")
	}

	return merged
}

func (a *Aggregator) merge(prices map[string]contracts.PriceResult, fundamentals map[string]contracts.FundamentalsResult, symbol string) contracts.MarketData {
	data := contracts.MarketData{Errors: make([]contracts.SourceError, 0, 2)}

	price, ok := prices[symbol]
	switch {
	case !ok:
		data.Errors = append(data.Errors, a.sourceError(contracts.SourceYahoo, contracts.FieldCMP, "No price data returned"))
	case price.Failed():
		data.Errors = append(data.Errors, a.sourceError(contracts.SourceYahoo, contracts.FieldCMP, price.Error))
	default:
		data.CMP = price.Price
	}

	fund, ok := fundamentals[symbol]
	switch {
	case !ok:
		data.Errors = append(data.Errors, a.sourceError(contracts.SourceGoogle, contracts.FieldFundamentals, "No fundamentals data returned"))
	case fund.Failed():
		data.Errors = append(data.Errors, a.sourceError(contracts.SourceGoogle, contracts.FieldFundamentals, fund.Error))
	default:
		data.PERatio = fund.PERatio
		data.LatestEarnings = fund.LatestEarnings
	}

	return data
}

func (a *Aggregator) sourceError(source contracts.Source, field, message string) contracts.SourceError {
	return contracts.SourceError{
		Source:    source,
		Field:     field,
		Message:   message,
		Timestamp: a.now().UTC(),
	}
}
