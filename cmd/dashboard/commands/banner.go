package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/ternarybob/banner"

	"github.com/wonny/portfolio-dashboard/pkg/config"
)

// printBanner writes the startup banner to stderr
func printBanner(cfg *config.Config) {
	lineColor := banner.ColorCyan
	textColor := banner.ColorBold + banner.ColorWhite
	hr := lineColor + strings.Repeat("═", 59) + banner.ColorReset

	fmt.Fprintf(os.Stderr, "\n%s\n", hr)
	fmt.Fprintf(os.Stderr, "%s  📈 Portfolio Dashboard API v%s%s\n", textColor, config.Version, banner.ColorReset)
	fmt.Fprintf(os.Stderr, "%s\n", hr)

	kvLines := [][2]string{
		{"Server", "http://localhost:" + cfg.Port},
		{"Environment", cfg.Env},
		{"Exchange", cfg.Exchange},
		{"Cache TTL", cfg.CacheTTL.String()},
		{"Refresh", cfg.RefreshInterval.String()},
		{"Rate limit", cfg.RateLimit.Store},
	}
	for _, kv := range kvLines {
		fmt.Fprintf(os.Stderr, "%s  %-14s %s%s\n", textColor, kv[0], kv[1], banner.ColorReset)
	}

	fmt.Fprintf(os.Stderr, "%s\n", hr)
	fmt.Fprintf(os.Stderr, "  Press Ctrl+C to stop\n\n")
}

// printShutdownBanner writes the shutdown notice to stderr
func printShutdownBanner() {
	hr := banner.ColorCyan + strings.Repeat("═", 42) + banner.ColorReset

	fmt.Fprintf(os.Stderr, "\n%s\n", hr)
	fmt.Fprintf(os.Stderr, "%s  PORTFOLIO DASHBOARD, SHUTTING DOWN%s\n", banner.ColorBold+banner.ColorWhite, banner.ColorReset)
	fmt.Fprintf(os.Stderr, "%s\n\n", hr)
}
