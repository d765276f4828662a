package google

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/portfolio-dashboard/pkg/httputil"
	"github.com/wonny/portfolio-dashboard/pkg/logger"
)

type sleepRecorder struct {
	delays []time.Duration
}

func (s *sleepRecorder) Sleep(_ context.Context, d time.Duration) error {
	s.delays = append(s.delays, d)
	return nil
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *sleepRecorder) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	log := logger.Nop()
	rec := &sleepRecorder{}
	client := NewClient(httputil.New(log), log, server.URL, 2, 500*time.Millisecond).WithSleep(rec.Sleep)
	return client, rec
}

func TestQuoteURL(t *testing.T) {
	log := logger.Nop()
	c := NewClient(httputil.New(log), log, "https://example.test/finance/quote/", 0, 0)
	assert.Equal(t, "https://example.test/finance/quote/TCS:NSE", c.QuoteURL("TCS"))

	c.WithExchange("BSE")
	assert.Equal(t, "https://example.test/finance/quote/532540:BOM", c.QuoteURL("532540"))
}

func TestFetchFundamentals(t *testing.T) {
	client, rec := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/INFY:NSE", r.URL.Path)
		assert.Equal(t, httputil.BrowserUserAgent, r.Header.Get("User-Agent"))
		w.Write([]byte(statsPage))
	})

	result, err := client.FetchFundamentals(context.Background(), "INFY")
	require.NoError(t, err)

	assert.Equal(t, "INFY", result.Symbol)
	require.NotNil(t, result.PERatio)
	assert.Equal(t, 28.45, *result.PERatio)
	assert.Empty(t, rec.delays)
}

func TestFetchFundamentalsRetriesWithBackoff(t *testing.T) {
	var hits int32
	client, rec := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(statsPage))
	})

	result, err := client.FetchFundamentals(context.Background(), "TCS")
	require.NoError(t, err)
	require.NotNil(t, result.PERatio)

	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
	assert.Equal(t, []time.Duration{500 * time.Millisecond, time.Second}, rec.delays)
}

func TestFetchFundamentalsGivesUpAfterRetries(t *testing.T) {
	var hits int32
	client, rec := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.FetchFundamentals(context.Background(), "TCS")
	require.Error(t, err)

	var statusErr *httputil.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusTooManyRequests, statusErr.StatusCode)
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
	assert.Len(t, rec.delays, 2)
}

func TestFetchFundamentalsNotFoundIsNotRetried(t *testing.T) {
	var hits int32
	client, rec := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		http.NotFound(w, r)
	})

	_, err := client.FetchFundamentals(context.Background(), "NOPE")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
	assert.Empty(t, rec.delays)
}
