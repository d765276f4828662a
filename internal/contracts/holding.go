package contracts

// Holding is one tracked position: a security, its quantity and its cost basis.
// Holdings are loaded once at startup and never mutated.
type Holding struct {
	ID            string  `json:"id" toml:"id"`
	Name          string  `json:"name" toml:"name"`
	Symbol        string  `json:"symbol" toml:"symbol"`
	PrimaryCode   string  `json:"nseCode" toml:"nse_code"` // exchange code used for market data lookups (NSE)
	SecondaryCode string  `json:"bseCode" toml:"bse_code"` // BSE scrip code, informational
	Sector        string  `json:"sector" toml:"sector"`
	PurchasePrice float64 `json:"purchasePrice" toml:"purchase_price"`
	Quantity      int64   `json:"quantity" toml:"quantity"`
}

// LookupCode returns the code market data is fetched and keyed by on the given exchange.
// BSE lookups use the scrip code; everything else falls back to the NSE code, then the symbol.
func (h Holding) LookupCode(exchange string) string {
	if exchange == "BSE" && h.SecondaryCode != "" {
		return h.SecondaryCode
	}
	if h.PrimaryCode != "" {
		return h.PrimaryCode
	}
	return h.Symbol
}
