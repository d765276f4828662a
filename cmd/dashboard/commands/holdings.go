package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/wonny/portfolio-dashboard/internal/contracts"
	"github.com/wonny/portfolio-dashboard/internal/portfolio"
)

// holdingsCmd lists the configured holdings without touching any upstream
var holdingsCmd = &cobra.Command{
	Use:   "holdings",
	Short: "보유 종목 목록 출력",
	Long: `HOLDINGS_FILE(또는 내장 샘플)에서 읽은 보유 종목을 검증하고 출력합니다.

Example:
  go run ./cmd/dashboard holdings
  go run ./cmd/dashboard holdings --holdings ./holdings.toml`,
	RunE: runHoldings,
}

func init() {
	rootCmd.AddCommand(holdingsCmd)
}

func runHoldings(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadRuntime()
	if err != nil {
		return err
	}

	holdings, err := portfolio.LoadHoldings(cfg.HoldingsFile)
	if err != nil {
		return fmt.Errorf("load holdings: %w", err)
	}

	printHoldings(cmd.OutOrStdout(), holdings, cfg.Exchange)
	return nil
}

func printHoldings(w io.Writer, holdings []contracts.Holding, exchange string) {
	widths := []int{4, 26, 12, 10, 20, 12, 8}
	printTableHeader(w, []string{"ID", "Name", "Symbol", "Lookup", "Sector", "Price", "Qty"}, widths)

	for _, h := range holdings {
		printTableRow(w, []string{
			h.ID,
			h.Name,
			h.Symbol,
			h.LookupCode(exchange),
			h.Sector,
			formatINR(h.PurchasePrice),
			fmt.Sprintf("%d", h.Quantity),
		}, widths)
	}

	fmt.Fprintf(w, "\n%d holdings, exchange %s\n", len(holdings), exchange)
}
