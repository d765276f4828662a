package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/portfolio-dashboard/pkg/config"
	"github.com/wonny/portfolio-dashboard/pkg/logger"
)

var (
	// Global flags
	holdingsFile string
	exchange     string
	verbose      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Portfolio Dashboard - 실시간 포트폴리오 백엔드",
	Long: `Portfolio Dashboard CLI

보유 종목에 현재가(Yahoo)와 P/E·실적(Google Finance)을 결합해
종목별 손익과 섹터 요약을 계산합니다.

Usage:
  go run ./cmd/dashboard [command]

Examples:
  go run ./cmd/dashboard api
  go run ./cmd/dashboard snapshot
  go run ./cmd/dashboard snapshot --json
  go run ./cmd/dashboard holdings --holdings ./holdings.toml`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&holdingsFile, "holdings", "", "TOML holdings file (default: HOLDINGS_FILE or embedded sample)")
	rootCmd.PersistentFlags().StringVar(&exchange, "exchange", "", "NSE or BSE (default: MARKET_EXCHANGE)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

// loadRuntime reads configuration, applies global flag overrides and builds the logger
func loadRuntime() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	if holdingsFile != "" {
		cfg.HoldingsFile = holdingsFile
	}
	if exchange != "" {
		switch ex := normalizeExchange(exchange); ex {
		case "NSE", "BSE":
			cfg.Exchange = ex
		default:
			return nil, nil, fmt.Errorf("--exchange must be NSE or BSE, got %q", exchange)
		}
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	return cfg, logger.New(cfg), nil
}
