package handlers

import (
	"context"
	"net/http"

	"github.com/wonny/portfolio-dashboard/internal/contracts"
	"github.com/wonny/portfolio-dashboard/pkg/logger"
)

// PortfolioService computes or serves the cached portfolio
type PortfolioService interface {
	GetPortfolio(ctx context.Context) (*contracts.PortfolioResponse, error)
}

// PortfolioHandler serves the computed portfolio
// ⭐ SSOT: 포트폴리오 API 핸들러는 이 구조체에서만
type PortfolioHandler struct {
	service    PortfolioService
	logger     *logger.Logger
	production bool
}

// NewPortfolioHandler creates a portfolio handler. production hides error details.
func NewPortfolioHandler(service PortfolioService, log *logger.Logger, production bool) *PortfolioHandler {
	return &PortfolioHandler{
		service:    service,
		logger:     log,
		production: production,
	}
}

// GetPortfolio returns stocks, sector summaries and totals
// GET /api/portfolio
func (h *PortfolioHandler) GetPortfolio(w http.ResponseWriter, r *http.Request) {
	portfolio, err := h.service.GetPortfolio(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to compute portfolio")
		RespondError(w, http.StatusInternalServerError, "Failed to fetch portfolio data", h.details(err))
		return
	}

	respondData(w, portfolio)
}

func (h *PortfolioHandler) details(err error) string {
	if h.production {
		return ""
	}
	return err.Error()
}
