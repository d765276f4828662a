package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/wonny/portfolio-dashboard/internal/contracts"
	"github.com/wonny/portfolio-dashboard/pkg/httputil"
	"github.com/wonny/portfolio-dashboard/pkg/logger"
)

// DefaultBaseURL is the Google Finance quote page root
const DefaultBaseURL = "https://www.google.com/finance/quote"

// ErrNotFound is returned when the quote page does not exist
var ErrNotFound = errors.New("quote page not found")

// Client scrapes P/E ratio and earnings from Google Finance quote pages
// ⭐ SSOT: Google Finance 스크래핑은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	exchange   string
	backoff    httputil.Backoff
}

// NewClient creates a client that retries each page fetch maxRetries times,
// doubling the delay from retryDelay.
func NewClient(httpClient *httputil.Client, log *logger.Logger, baseURL string, maxRetries int, retryDelay time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient.
		WithHeader("User-Agent", httputil.BrowserUserAgent).
		WithHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8").
		WithHeader("Accept-Language", "en-US,en;q=0.5")

	c := &Client{
		httpClient: httpClient,
		logger:     log,
		baseURL:    strings.TrimRight(baseURL, "/"),
		exchange:   "NSE",
	}
	c.backoff = httputil.Backoff{
		MaxRetries:   maxRetries,
		InitialDelay: retryDelay,
		OnRetry: func(attempt int, delay time.Duration, err error) {
			c.logger.WithFields(map[string]interface{}{
				"attempt": attempt,
				"delay":   delay,
				"error":   err.Error(),
			}).Debug("Retrying quote page")
		},
	}
	return c
}

// WithExchange switches the quote page suffix (NSE or BSE)
func (c *Client) WithExchange(exchange string) *Client {
	c.exchange = strings.ToUpper(exchange)
	return c
}

// WithSleep replaces the wait between retries
func (c *Client) WithSleep(sleep func(ctx context.Context, d time.Duration) error) *Client {
	c.backoff.Sleep = sleep
	return c
}

// QuoteURL builds the quote page URL, e.g. .../TCS:NSE
func (c *Client) QuoteURL(code string) string {
	suffix := "NSE"
	if c.exchange == "BSE" {
		suffix = "BOM"
	}
	return fmt.Sprintf("%s/%s:%s", c.baseURL, url.PathEscape(code), suffix)
}

// FetchFundamentals downloads the quote page for code and extracts its fundamentals.
// Only the final failed attempt is reported.
func (c *Client) FetchFundamentals(ctx context.Context, code string) (contracts.FundamentalsResult, error) {
	pageURL := c.QuoteURL(code)

	var body []byte
	err := c.backoff.Do(ctx, func(ctx context.Context) error {
		b, err := c.httpClient.GetBody(ctx, pageURL)
		if err != nil {
			var statusErr *httputil.StatusError
			if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
				return httputil.Permanent(fmt.Errorf("%w: %s", ErrNotFound, code))
			}
			return err
		}
		body = b
		return nil
	})
	if err != nil {
		return contracts.FundamentalsResult{Symbol: code}, err
	}

	result, err := ParseQuotePage(body)
	if err != nil {
		return contracts.FundamentalsResult{Symbol: code}, err
	}
	result.Symbol = code

	c.logger.WithFields(map[string]interface{}{
		"symbol":    code,
		"pe_found":  result.PERatio != nil,
		"eps_found": result.LatestEarnings != nil,
	}).Debug("Fetched fundamentals")

	return result, nil
}
