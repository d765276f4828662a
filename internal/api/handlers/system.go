package handlers

import (
	"net/http"
	"time"

	"github.com/wonny/portfolio-dashboard/internal/cache"
	"github.com/wonny/portfolio-dashboard/pkg/config"
)

// CacheStats reports cache counters
type CacheStats interface {
	Stats() cache.Stats
}

// SystemHandler serves health, status and the index document
type SystemHandler struct {
	cache  CacheStats
	config *config.Config
	now    func() time.Time
}

// NewSystemHandler creates a system handler
func NewSystemHandler(c CacheStats, cfg *config.Config) *SystemHandler {
	return &SystemHandler{
		cache:  c,
		config: cfg,
		now:    time.Now,
	}
}

type healthResponse struct {
	Success   bool        `json:"success"`
	Status    string      `json:"status"`
	Timestamp time.Time   `json:"timestamp"`
	Cache     cache.Stats `json:"cache"`
}

// Health reports liveness and cache counters
// GET /api/health
func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, healthResponse{
		Success:   true,
		Status:    "healthy",
		Timestamp: h.now().UTC(),
		Cache:     h.cache.Stats(),
	})
}

// StatusInfo is the non-sensitive configuration echo
type StatusInfo struct {
	Version         string   `json:"version"`
	Environment     string   `json:"environment"`
	CacheTTL        int      `json:"cacheTTL"`
	RefreshInterval int      `json:"refreshInterval"`
	Features        Features `json:"features"`
}

// Features lists the enabled data sources
type Features struct {
	YahooFinance   bool `json:"yahooFinance"`
	GoogleFinance  bool `json:"googleFinance"`
	SectorGrouping bool `json:"sectorGrouping"`
}

// Status echoes version and refresh settings
// GET /api/status
func (h *SystemHandler) Status(w http.ResponseWriter, r *http.Request) {
	respondData(w, StatusInfo{
		Version:         config.Version,
		Environment:     h.config.Env,
		CacheTTL:        int(h.config.CacheTTL / time.Second),
		RefreshInterval: int(h.config.RefreshInterval / time.Second),
		Features: Features{
			YahooFinance:   true,
			GoogleFinance:  true,
			SectorGrouping: true,
		},
	})
}

// Index lists the available endpoints
// GET /
func (h *SystemHandler) Index(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Portfolio Dashboard API",
		"version": config.Version,
		"endpoints": map[string]string{
			"portfolio": "GET /api/portfolio",
			"stream":    "GET /api/portfolio/stream",
			"health":    "GET /api/health",
			"status":    "GET /api/status",
		},
	})
}
