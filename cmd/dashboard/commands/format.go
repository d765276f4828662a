package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

const (
	currencyCode = "INR"
	placeholder  = "n/a"
)

// formatINR renders an amount as rupees, e.g. ₹1,234.50
func formatINR(amount float64) string {
	paise := decimal.NewFromFloat(amount).Round(2).Shift(2).IntPart()
	return money.New(paise, currencyCode).Display()
}

// formatOptionalINR renders a nil amount as a placeholder
func formatOptionalINR(amount *float64) string {
	if amount == nil {
		return placeholder
	}
	return formatINR(*amount)
}

func formatOptionalPercent(v *float64) string {
	if v == nil {
		return placeholder
	}
	return fmt.Sprintf("%+.2f%%", *v)
}

func formatOptionalFloat(v *float64) string {
	if v == nil {
		return placeholder
	}
	return fmt.Sprintf("%.2f", *v)
}

func formatOptionalString(s *string) string {
	if s == nil || *s == "" {
		return placeholder
	}
	return *s
}

// printDoubleSeparator prints a double-line separator
func printDoubleSeparator(w io.Writer) {
	fmt.Fprintln(w, "═══════════════════════════════════════════════════════════")
}

// printTableHeader prints a table header followed by a rule as wide as the columns
func printTableHeader(w io.Writer, columns []string, widths []int) {
	printTableRow(w, columns, widths)

	totalWidth := 0
	for i, width := range widths {
		totalWidth += width
		if i < len(widths)-1 {
			totalWidth += 2 // spacing
		}
	}
	fmt.Fprintln(w, strings.Repeat("─", totalWidth))
}

// printTableRow prints a table row
func printTableRow(w io.Writer, values []string, widths []int) {
	for i, val := range values {
		fmt.Fprintf(w, "%-*s", widths[i], val)
		if i < len(values)-1 {
			fmt.Fprint(w, "  ")
		}
	}
	fmt.Fprintln(w)
}

// printKeyValue prints key-value pairs
func printKeyValue(w io.Writer, key string, value string, keyWidth int) {
	fmt.Fprintf(w, "   %-*s : %s\n", keyWidth, key, value)
}
