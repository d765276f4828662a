package contracts

import "time"

// EnrichedStock is a holding joined with its market data and derived metrics.
// Nil pointers mean "unavailable", never zero.
type EnrichedStock struct {
	Holding

	CMP             *float64      `json:"cmp"`
	PERatio         *float64      `json:"peRatio"`
	LatestEarnings  *string       `json:"latestEarnings"`
	Investment      float64       `json:"investment"`
	PresentValue    *float64      `json:"presentValue"`
	GainLoss        *float64      `json:"gainLoss"`
	GainLossPercent *float64      `json:"gainLossPercent"`
	PortfolioWeight float64       `json:"portfolioWeight"`
	LastUpdated     time.Time     `json:"lastUpdated"`
	Errors          []SourceError `json:"errors"`
}

// SectorSummary rolls stocks up by sector.
// TotalPresentValue is set only when every stock in the sector has a present value.
type SectorSummary struct {
	Sector            string   `json:"sector"`
	TotalInvestment   float64  `json:"totalInvestment"`
	TotalPresentValue *float64 `json:"totalPresentValue"`
	GainLoss          *float64 `json:"gainLoss"`
	GainLossPercent   *float64 `json:"gainLossPercent"`
	StockCount        int      `json:"stockCount"`
}

// PortfolioResponse is the document served to the dashboard
type PortfolioResponse struct {
	Stocks               []EnrichedStock `json:"stocks"`
	Sectors              []SectorSummary `json:"sectors"`
	TotalInvestment      float64         `json:"totalInvestment"`
	TotalPresentValue    *float64        `json:"totalPresentValue"`
	TotalGainLoss        *float64        `json:"totalGainLoss"`
	TotalGainLossPercent *float64        `json:"totalGainLossPercent"`
	LastUpdated          time.Time       `json:"lastUpdated"`
	CacheHit             bool            `json:"cacheHit"`
}

// Stock finds a stock by holding id
func (p *PortfolioResponse) Stock(id string) (*EnrichedStock, bool) {
	for i := range p.Stocks {
		if p.Stocks[i].ID == id {
			return &p.Stocks[i], true
		}
	}
	return nil, false
}

// Sector finds a sector summary by name
func (p *PortfolioResponse) Sector(name string) (*SectorSummary, bool) {
	for i := range p.Sectors {
		if p.Sectors[i].Sector == name {
			return &p.Sectors[i], true
		}
	}
	return nil, false
}

// Float returns a pointer to v, for optional numeric fields
func Float(v float64) *float64 {
	return &v
}

// String returns a pointer to s, for optional text fields
func String(s string) *string {
	return &s
}
