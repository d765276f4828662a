package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/portfolio-dashboard/internal/api"
	"github.com/wonny/portfolio-dashboard/internal/api/handlers"
	"github.com/wonny/portfolio-dashboard/internal/api/ratelimit"
	"github.com/wonny/portfolio-dashboard/internal/cache"
	"github.com/wonny/portfolio-dashboard/internal/scheduler"
	"github.com/wonny/portfolio-dashboard/internal/scheduler/jobs"
	"github.com/wonny/portfolio-dashboard/pkg/config"
	"github.com/wonny/portfolio-dashboard/pkg/logger"
	"github.com/wonny/portfolio-dashboard/pkg/redis"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

이 명령어는:
- 포트폴리오 계산 엔드포인트 제공
- 캐시 정리/레이트 리밋 정리 스케줄러 실행
- 웹소켓으로 포트폴리오 주기 푸시

Endpoints:
  GET  /                      - Endpoint index
  GET  /api/health            - Health check + cache stats
  GET  /api/status            - Version and refresh settings
  GET  /api/portfolio         - Stocks, sector summaries, totals
  GET  /api/portfolio/stream  - WebSocket push every REFRESH_INTERVAL

Example:
  go run ./cmd/dashboard api
  go run ./cmd/dashboard api --port 8080`,
	RunE: runAPIServer,
}

var (
	apiPort string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (default: PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	// 1. Load config + logger
	cfg, log, err := loadRuntime()
	if err != nil {
		return err
	}
	if apiPort != "" {
		cfg.Port = apiPort
	}

	log.WithFields(map[string]interface{}{
		"port":     cfg.Port,
		"env":      cfg.Env,
		"exchange": cfg.Exchange,
	}).Info("Initializing API server")

	// 2. Shared cache + portfolio service
	c := cache.New(cfg.CacheTTL)
	svc, err := buildPortfolioService(cfg, log, c)
	if err != nil {
		return err
	}

	// 3. Request gates
	globalLimiter, portfolioLimiter, pruners, closeStore, err := buildLimiters(cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	// 4. Maintenance scheduler
	sched := scheduler.New(log.Module("scheduler"))
	if err := sched.AddJob(jobs.NewCacheSweepJob(c, cfg.SweepInterval())); err != nil {
		return fmt.Errorf("register cache sweep: %w", err)
	}
	for _, p := range pruners {
		if err := sched.AddJob(jobs.NewLimiterPruneJob(p.limiter, p.idle).Named(p.name)); err != nil {
			return fmt.Errorf("register limiter prune: %w", err)
		}
	}
	sched.Start()
	log.WithField("jobs", sched.GetAllJobs()).Info("Maintenance jobs scheduled")

	// 5. Router + server
	production := cfg.IsProduction()
	router := api.NewRouter(api.Dependencies{
		Config:           cfg,
		Logger:           log,
		Portfolio:        handlers.NewPortfolioHandler(svc, log.Module("portfolio_handler"), production),
		System:           handlers.NewSystemHandler(c, cfg),
		Stream:           handlers.NewStreamHandler(svc, log.Module("stream"), cfg.RefreshInterval, cfg.AllowedOrigins()),
		GlobalLimiter:    globalLimiter,
		PortfolioLimiter: portfolioLimiter,
	})
	server := api.New(cfg, log, router)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	printBanner(cfg)
	log.Info("API server started successfully")

	// 6. Wait for interrupt signal or a listener failure
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case <-quit:
	case err := <-serverErr:
		sched.Stop()
		return err
	}

	log.Info("Shutting down server...")
	printShutdownBanner()

	sched.Stop()
	for name, stats := range sched.GetJobStats() {
		log.WithFields(map[string]interface{}{
			"job":      name,
			"runs":     stats.TotalRuns,
			"failures": stats.FailureCount,
			"removed":  stats.TotalRemoved,
		}).Debug("Scheduler job stats")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}

type namedPruner struct {
	name    string
	limiter *ratelimit.MemoryLimiter
	idle    time.Duration
}

// buildLimiters returns the global and portfolio gates for the configured store.
// Only the memory store needs pruning; redis keys expire on their own.
func buildLimiters(cfg *config.Config, log *logger.Logger) (global, portfolio ratelimit.Limiter, pruners []namedPruner, closeFn func(), err error) {
	globalPolicy := api.GlobalPolicy(cfg)
	portfolioPolicy := api.PortfolioPolicy(cfg)

	if cfg.RateLimit.Store == "redis" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		client, err := redis.New(ctx, cfg)
		if err != nil {
			return nil, nil, nil, nil, fmt.Errorf("connect to redis: %w", err)
		}
		log.WithField("addr", cfg.Redis.Host+":"+cfg.Redis.Port).Info("Using redis rate limit store")

		store := redis.NewRateLimiter(client, "ratelimit")
		return ratelimit.NewRedisLimiter(globalPolicy, store),
			ratelimit.NewRedisLimiter(portfolioPolicy, store),
			nil,
			func() { client.Close() },
			nil
	}

	g := ratelimit.NewMemoryLimiter(globalPolicy)
	p := ratelimit.NewMemoryLimiter(portfolioPolicy)
	return g, p,
		[]namedPruner{
			{name: "rate_limit_prune_global", limiter: g, idle: globalPolicy.Window},
			{name: "rate_limit_prune_portfolio", limiter: p, idle: portfolioPolicy.Window},
		},
		func() {},
		nil
}
