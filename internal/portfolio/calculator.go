package portfolio

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wonny/portfolio-dashboard/internal/contracts"
)

// position carries full-precision figures until presentation
type position struct {
	investment   decimal.Decimal
	presentValue *decimal.Decimal
}

type sectorAccumulator struct {
	name         string
	investment   decimal.Decimal
	presentValue decimal.Decimal
	complete     bool
	count        int
}

// Calculate enriches holdings with market data and rolls them up by sector and portfolio.
// market[i] belongs to holdings[i]. Figures are kept exact and rounded to two decimals on output.
// ⭐ SSOT: 포트폴리오 지표 계산은 여기서만
func Calculate(holdings []contracts.Holding, market []contracts.MarketData, now time.Time) contracts.PortfolioResponse {
	positions := make([]position, len(holdings))
	total := decimal.Zero
	for i, h := range holdings {
		positions[i].investment = decimal.NewFromFloat(h.PurchasePrice).Mul(decimal.NewFromInt(h.Quantity))
		total = total.Add(positions[i].investment)
	}

	resp := contracts.PortfolioResponse{
		Stocks:      make([]contracts.EnrichedStock, len(holdings)),
		Sectors:     []contracts.SectorSummary{},
		LastUpdated: now,
	}

	var sectors []*sectorAccumulator
	bySector := make(map[string]*sectorAccumulator)

	portfolioValue := decimal.Zero
	portfolioComplete := len(holdings) > 0

	for i, h := range holdings {
		var data contracts.MarketData
		if i < len(market) {
			data = market[i]
		}
		pos := &positions[i]

		if data.CMP != nil {
			pv := decimal.NewFromFloat(*data.CMP).Mul(decimal.NewFromInt(h.Quantity))
			pos.presentValue = &pv
		}

		resp.Stocks[i] = enrich(h, data, *pos, total, now)

		acc, ok := bySector[h.Sector]
		if !ok {
			acc = &sectorAccumulator{name: h.Sector, complete: true}
			bySector[h.Sector] = acc
			sectors = append(sectors, acc)
		}
		acc.count++
		acc.investment = acc.investment.Add(pos.investment)
		if pos.presentValue == nil {
			acc.complete = false
			portfolioComplete = false
		} else {
			acc.presentValue = acc.presentValue.Add(*pos.presentValue)
			portfolioValue = portfolioValue.Add(*pos.presentValue)
		}
	}

	sort.SliceStable(sectors, func(a, b int) bool {
		return sectors[a].investment.GreaterThan(sectors[b].investment)
	})

	for _, acc := range sectors {
		summary := contracts.SectorSummary{
			Sector:          acc.name,
			TotalInvestment: money(acc.investment),
			StockCount:      acc.count,
		}
		if acc.complete {
			summary.TotalPresentValue, summary.GainLoss, summary.GainLossPercent = gain(acc.investment, acc.presentValue)
		}
		resp.Sectors = append(resp.Sectors, summary)
	}

	resp.TotalInvestment = money(total)
	if portfolioComplete {
		resp.TotalPresentValue, resp.TotalGainLoss, resp.TotalGainLossPercent = gain(total, portfolioValue)
	}

	return resp
}

func enrich(h contracts.Holding, data contracts.MarketData, pos position, total decimal.Decimal, now time.Time) contracts.EnrichedStock {
	errs := data.Errors
	if errs == nil {
		errs = []contracts.SourceError{}
	}

	stock := contracts.EnrichedStock{
		Holding:         h,
		CMP:             data.CMP,
		PERatio:         data.PERatio,
		LatestEarnings:  data.LatestEarnings,
		Investment:      money(pos.investment),
		PortfolioWeight: money(percentOf(pos.investment, total)),
		LastUpdated:     now,
		Errors:          errs,
	}

	if pos.presentValue != nil {
		stock.PresentValue, stock.GainLoss, stock.GainLossPercent = gain(pos.investment, *pos.presentValue)
	}
	return stock
}

// gain derives present value, gain/loss and gain/loss percent for a known present value
func gain(investment, presentValue decimal.Decimal) (pv, gl, glp *float64) {
	diff := presentValue.Sub(investment)
	return optionalMoney(&presentValue), optionalMoney(&diff), contracts.Float(money(percentOf(diff, investment)))
}
