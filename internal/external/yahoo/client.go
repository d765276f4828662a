package yahoo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/wonny/portfolio-dashboard/pkg/httputil"
	"github.com/wonny/portfolio-dashboard/pkg/logger"
)

// DefaultBaseURL is the public chart API host
const DefaultBaseURL = "https://query1.finance.yahoo.com"

// ErrNoPrice is returned when the quote carries no market price
var ErrNoPrice = errors.New("no market price in quote")

// Client fetches current market prices from the Yahoo Finance chart API
// ⭐ SSOT: Yahoo Finance 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	exchange   string
}

// NewClient creates a new Yahoo Finance client for NSE symbols
func NewClient(httpClient *httputil.Client, log *logger.Logger, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: httpClient,
		logger:     log,
		baseURL:    strings.TrimRight(baseURL, "/"),
		exchange:   "NSE",
	}
}

// WithExchange switches the symbol suffix convention (NSE or BSE)
func (c *Client) WithExchange(exchange string) *Client {
	c.exchange = strings.ToUpper(exchange)
	return c
}

// Symbol converts an exchange code into a Yahoo ticker
func (c *Client) Symbol(code string) string {
	return ToSymbol(code, c.exchange)
}

// ToSymbol appends the Yahoo exchange suffix: .NS for NSE, .BO for BSE
func ToSymbol(code, exchange string) string {
	if exchange == "BSE" {
		return code + ".BO"
	}
	return code + ".NS"
}

// chartResponse is the subset of /v8/finance/chart we read
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol             string   `json:"symbol"`
				Currency           string   `json:"currency"`
				RegularMarketPrice *float64 `json:"regularMarketPrice"`
			} `json:"meta"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// FetchPrice returns the regular market price for an exchange code
func (c *Client) FetchPrice(ctx context.Context, code string) (float64, error) {
	symbol := c.Symbol(code)
	fullURL := fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.baseURL, url.PathEscape(symbol), url.Values{
		"interval": {"1d"},
		"range":    {"1d"},
	}.Encode())

	resp, err := c.httpClient.Get(ctx, fullURL)
	if err != nil {
		return 0, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("failed to read response body: %w", err)
	}

	price, err := parseChart(body)
	if err != nil {
		if resp.StatusCode != http.StatusOK {
			return 0, fmt.Errorf("unexpected status code %d for %s: %w", resp.StatusCode, symbol, err)
		}
		return 0, fmt.Errorf("%s: %w", symbol, err)
	}

	c.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"price":  price,
	}).Debug("Fetched price")

	return price, nil
}

// parseChart extracts regularMarketPrice, surfacing the API's own error description when present
func parseChart(body []byte) (float64, error) {
	var data chartResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return 0, fmt.Errorf("malformed quote response: %w", err)
	}

	if data.Chart.Error != nil {
		return 0, fmt.Errorf("%s: %s", data.Chart.Error.Code, data.Chart.Error.Description)
	}

	if len(data.Chart.Result) == 0 {
		return 0, ErrNoPrice
	}

	price := data.Chart.Result[0].Meta.RegularMarketPrice
	if price == nil {
		return 0, ErrNoPrice
	}

	return *price, nil
}
