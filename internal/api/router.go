package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/portfolio-dashboard/internal/api/handlers"
	"github.com/wonny/portfolio-dashboard/internal/api/ratelimit"
	"github.com/wonny/portfolio-dashboard/pkg/config"
	"github.com/wonny/portfolio-dashboard/pkg/logger"
)

// healthPath is never rate limited
const healthPath = "/api/health"

// Dependencies are the collaborators the router wires together
type Dependencies struct {
	Config    *config.Config
	Logger    *logger.Logger
	Portfolio *handlers.PortfolioHandler
	System    *handlers.SystemHandler
	Stream    *handlers.StreamHandler // optional

	GlobalLimiter    ratelimit.Limiter
	PortfolioLimiter ratelimit.Limiter
}

// GlobalPolicy is the quota applied to every route except health
func GlobalPolicy(cfg *config.Config) ratelimit.Policy {
	return ratelimit.Policy{
		Name:    "global",
		Limit:   cfg.RateLimit.MaxRequests,
		Window:  cfg.RateLimit.Window,
		Message: "Too many requests. Please try again later.",
	}
}

// PortfolioPolicy is the stricter quota of the portfolio endpoint
func PortfolioPolicy(cfg *config.Config) ratelimit.Policy {
	return ratelimit.Policy{
		Name:    "portfolio",
		Limit:   cfg.RateLimit.PortfolioMax,
		Window:  cfg.RateLimit.PortfolioWindow,
		Message: "Portfolio data is cached. Please wait before refreshing.",
	}
}

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(deps Dependencies) http.Handler {
	cfg := deps.Config
	log := deps.Logger

	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(handlers.NotFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(handlers.NotFound)

	r.HandleFunc("/", deps.System.Index).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", deps.System.Health).Methods(http.MethodGet)
	api.HandleFunc("/status", deps.System.Status).Methods(http.MethodGet)

	portfolioGate := ratelimit.Middleware(deps.PortfolioLimiter, PortfolioPolicy(cfg), log, nil)
	api.Handle("/portfolio", portfolioGate(http.HandlerFunc(deps.Portfolio.GetPortfolio))).Methods(http.MethodGet)

	if deps.Stream != nil {
		api.HandleFunc("/portfolio/stream", deps.Stream.Stream).Methods(http.MethodGet)
	}

	// Apply middleware
	r.Use(requestIDMiddleware())
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log, cfg.IsProduction()))

	// mux middleware only runs on matched routes; the global gate and CORS wrap everything
	globalGate := ratelimit.Middleware(deps.GlobalLimiter, GlobalPolicy(cfg), log, func(req *http.Request) bool {
		return req.URL.Path == healthPath
	})

	return newCORS(cfg.AllowedOrigins()).Handler(globalGate(r))
}
