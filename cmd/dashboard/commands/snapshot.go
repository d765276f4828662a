package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/portfolio-dashboard/internal/cache"
	"github.com/wonny/portfolio-dashboard/internal/contracts"
)

// snapshotCmd computes the portfolio once and prints it
var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "포트폴리오 1회 계산 후 출력",
	Long: `서버 없이 포트폴리오를 한 번 계산해 출력합니다.

표시 정보:
- 종목별 현재가, 평가금액, 손익, 비중, P/E, 실적
- 섹터 요약 (투자금 내림차순)
- 전체 합계와 소스 오류

Example:
  go run ./cmd/dashboard snapshot
  go run ./cmd/dashboard snapshot --json
  go run ./cmd/dashboard snapshot --exchange BSE`,
	RunE: runSnapshot,
}

var (
	snapshotJSON    bool
	snapshotTimeout time.Duration
)

func init() {
	rootCmd.AddCommand(snapshotCmd)

	snapshotCmd.Flags().BoolVar(&snapshotJSON, "json", false, "print the API payload as JSON")
	snapshotCmd.Flags().DurationVar(&snapshotTimeout, "timeout", 2*time.Minute, "overall deadline")
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadRuntime()
	if err != nil {
		return err
	}

	svc, err := buildPortfolioService(cfg, log, cache.New(cfg.CacheTTL))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), snapshotTimeout)
	defer cancel()

	resp, err := svc.GetPortfolio(ctx)
	if err != nil {
		return fmt.Errorf("compute portfolio: %w", err)
	}

	out := cmd.OutOrStdout()
	if snapshotJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	printSnapshot(out, resp)
	return nil
}

// printSnapshot renders the portfolio as tables
func printSnapshot(w io.Writer, resp *contracts.PortfolioResponse) {
	fmt.Fprintln(w)
	printDoubleSeparator(w)
	fmt.Fprintf(w, "  Portfolio snapshot @ %s\n", resp.LastUpdated.Format(time.RFC3339))
	printDoubleSeparator(w)
	fmt.Fprintln(w)

	widths := []int{12, 20, 12, 14, 14, 14, 9, 8, 8, 16}
	printTableHeader(w, []string{"Symbol", "Sector", "CMP", "Investment", "Present", "Gain/Loss", "G/L %", "Weight", "P/E", "Earnings"}, widths)
	for _, s := range resp.Stocks {
		printTableRow(w, []string{
			s.Symbol,
			s.Sector,
			formatOptionalINR(s.CMP),
			formatINR(s.Investment),
			formatOptionalINR(s.PresentValue),
			formatOptionalINR(s.GainLoss),
			formatOptionalPercent(s.GainLossPercent),
			fmt.Sprintf("%.2f%%", s.PortfolioWeight),
			formatOptionalFloat(s.PERatio),
			formatOptionalString(s.LatestEarnings),
		}, widths)
	}

	fmt.Fprintln(w)
	sectorWidths := []int{20, 7, 14, 14, 14, 9}
	printTableHeader(w, []string{"Sector", "Stocks", "Investment", "Present", "Gain/Loss", "G/L %"}, sectorWidths)
	for _, s := range resp.Sectors {
		printTableRow(w, []string{
			s.Sector,
			fmt.Sprintf("%d", s.StockCount),
			formatINR(s.TotalInvestment),
			formatOptionalINR(s.TotalPresentValue),
			formatOptionalINR(s.GainLoss),
			formatOptionalPercent(s.GainLossPercent),
		}, sectorWidths)
	}

	fmt.Fprintln(w)
	printKeyValue(w, "Total investment", formatINR(resp.TotalInvestment), 18)
	printKeyValue(w, "Present value", formatOptionalINR(resp.TotalPresentValue), 18)
	printKeyValue(w, "Gain/Loss", formatOptionalINR(resp.TotalGainLoss), 18)
	printKeyValue(w, "Gain/Loss %", formatOptionalPercent(resp.TotalGainLossPercent), 18)

	var failures []string
	for _, s := range resp.Stocks {
		for _, e := range s.Errors {
			failures = append(failures, fmt.Sprintf("%s [%s/%s] %s", s.Symbol, e.Source, e.Field, e.Message))
		}
	}
	if len(failures) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "⚠️  %d source error(s):\n", len(failures))
		for _, f := range failures {
			fmt.Fprintf(w, "   • %s\n", f)
		}
	}
	fmt.Fprintln(w)
}
