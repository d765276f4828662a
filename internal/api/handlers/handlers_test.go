package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/portfolio-dashboard/internal/cache"
	"github.com/wonny/portfolio-dashboard/internal/contracts"
	"github.com/wonny/portfolio-dashboard/pkg/config"
	"github.com/wonny/portfolio-dashboard/pkg/logger"
)

type stubService struct {
	resp  *contracts.PortfolioResponse
	err   error
	calls int32
}

func (s *stubService) GetPortfolio(context.Context) (*contracts.PortfolioResponse, error) {
	atomic.AddInt32(&s.calls, 1)
	return s.resp, s.err
}

func samplePortfolio() *contracts.PortfolioResponse {
	return &contracts.PortfolioResponse{
		Stocks: []contracts.EnrichedStock{{
			Holding:         contracts.Holding{ID: "1", Symbol: "TCS", Sector: "Technology", PurchasePrice: 3200, Quantity: 10},
			Investment:      32000,
			PortfolioWeight: 100,
			Errors:          []contracts.SourceError{},
		}},
		Sectors:         []contracts.SectorSummary{{Sector: "Technology", TotalInvestment: 32000, StockCount: 1}},
		TotalInvestment: 32000,
		LastUpdated:     time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
	}
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestGetPortfolio(t *testing.T) {
	h := NewPortfolioHandler(&stubService{resp: samplePortfolio()}, logger.Nop(), false)

	rec := httptest.NewRecorder()
	h.GetPortfolio(rec, httptest.NewRequest(http.MethodGet, "/api/portfolio", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	data := body["data"].(map[string]interface{})
	assert.Equal(t, 32000.0, data["totalInvestment"])
	assert.Nil(t, data["totalPresentValue"])
	assert.Equal(t, false, data["cacheHit"])
}

func TestGetPortfolioError(t *testing.T) {
	tests := []struct {
		name        string
		production  bool
		wantDetails bool
	}{
		{"development shows details", false, true},
		{"production hides details", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubService{err: errors.New("failed to load holdings: disk gone")}
			h := NewPortfolioHandler(svc, logger.Nop(), tt.production)

			rec := httptest.NewRecorder()
			h.GetPortfolio(rec, httptest.NewRequest(http.MethodGet, "/api/portfolio", nil))

			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			body := decode(t, rec)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, 500.0, body["status"])
			assert.Equal(t, "Failed to fetch portfolio data", body["message"])

			details, ok := body["details"]
			assert.Equal(t, tt.wantDetails, ok)
			if tt.wantDetails {
				assert.Contains(t, details, "disk gone")
			}
		})
	}
}

func TestHealth(t *testing.T) {
	c := cache.New(time.Minute)
	c.Set("a", 1, 0)
	var v int
	c.Get("a", &v)
	c.Get("b", &v)

	h := NewSystemHandler(c, &config.Config{})
	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "healthy", body["status"])
	assert.NotEmpty(t, body["timestamp"])
	assert.Equal(t, map[string]interface{}{"hits": 1.0, "misses": 1.0, "keys": 1.0}, body["cache"])
}

func TestStatus(t *testing.T) {
	cfg := &config.Config{Env: "staging", CacheTTL: 15 * time.Second, RefreshInterval: 30 * time.Second}
	h := NewSystemHandler(cache.New(0), cfg)

	rec := httptest.NewRecorder()
	h.Status(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))

	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	data := body["data"].(map[string]interface{})
	assert.Equal(t, config.Version, data["version"])
	assert.Equal(t, "staging", data["environment"])
	assert.Equal(t, 15.0, data["cacheTTL"])
	assert.Equal(t, 30.0, data["refreshInterval"])
	assert.Equal(t, map[string]interface{}{
		"yahooFinance":   true,
		"googleFinance":  true,
		"sectorGrouping": true,
	}, data["features"])
}

func TestIndex(t *testing.T) {
	h := NewSystemHandler(cache.New(0), &config.Config{})
	rec := httptest.NewRecorder()
	h.Index(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	body := decode(t, rec)
	assert.Equal(t, "Portfolio Dashboard API", body["message"])
	assert.Contains(t, body["endpoints"], "portfolio")
}

func TestNotFound(t *testing.T) {
	rec := httptest.NewRecorder()
	NotFound(rec, httptest.NewRequest(http.MethodDelete, "/api/nope", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, 404.0, body["status"])
	assert.Equal(t, "Route not found: DELETE /api/nope", body["message"])
	assert.NotContains(t, body, "details")
}

func TestStreamPushesPortfolio(t *testing.T) {
	svc := &stubService{resp: samplePortfolio()}
	h := NewStreamHandler(svc, logger.Nop(), 20*time.Millisecond, []string{"http://localhost:3000"})

	server := httptest.NewServer(http.HandlerFunc(h.Stream))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, http.Header{"Origin": {"http://localhost:3000"}})
	require.NoError(t, err)
	defer conn.Close()

	for i := 0; i < 2; i++ {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var msg StreamMessage
		require.NoError(t, conn.ReadJSON(&msg))
		assert.Equal(t, "portfolio", msg.Type)
		require.NotNil(t, msg.Data)
		assert.Equal(t, 32000.0, msg.Data.TotalInvestment)
	}
	assert.GreaterOrEqual(t, atomic.LoadInt32(&svc.calls), int32(2))
}

func TestStreamReportsErrors(t *testing.T) {
	svc := &stubService{err: errors.New("boom")}
	h := NewStreamHandler(svc, logger.Nop(), time.Hour, nil)

	server := httptest.NewServer(http.HandlerFunc(h.Stream))
	defer server.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg StreamMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "error", msg.Type)
	assert.Nil(t, msg.Data)
}

func TestStreamRejectsForeignOrigin(t *testing.T) {
	h := NewStreamHandler(&stubService{resp: samplePortfolio()}, logger.Nop(), time.Hour, []string{"http://localhost:3000"})

	server := httptest.NewServer(http.HandlerFunc(h.Stream))
	defer server.Close()

	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http"), http.Header{"Origin": {"https://evil.example"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
