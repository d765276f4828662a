package contracts

import "time"

// Source identifies an upstream market data provider
type Source string

const (
	SourceYahoo  Source = "yahoo"  // current market price
	SourceGoogle Source = "google" // P/E ratio and earnings
)

// Field labels attached to SourceError entries
const (
	FieldCMP          = "CMP"
	FieldFundamentals = "P/E & Earnings"
)

// SourceError records one failed fetch for one source and symbol.
// Errors are data: they travel with the response instead of aborting it.
type SourceError struct {
	Source    Source    `json:"source"`
	Field     string    `json:"field"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// PriceResult is the price source outcome for one symbol.
// Exactly one of Price or Error is set.
type PriceResult struct {
	Symbol string   `json:"symbol"`
	Price  *float64 `json:"cmp"`
	Error  string   `json:"error,omitempty"`
}

// Failed reports whether the fetch failed
func (r PriceResult) Failed() bool {
	return r.Error != ""
}

// FundamentalsResult is the fundamentals source outcome for one symbol.
// PERatio and LatestEarnings stay nil when extraction found no confident value.
type FundamentalsResult struct {
	Symbol         string   `json:"symbol"`
	PERatio        *float64 `json:"peRatio"`
	LatestEarnings *string  `json:"latestEarnings"`
	Error          string   `json:"error,omitempty"`
}

// Failed reports whether the fetch failed
func (r FundamentalsResult) Failed() bool {
	return r.Error != ""
}

// MarketData is the merged view of both sources for one symbol
type MarketData struct {
	CMP            *float64      `json:"cmp"`
	PERatio        *float64      `json:"peRatio"`
	LatestEarnings *string       `json:"latestEarnings"`
	Errors         []SourceError `json:"errors"`
}
