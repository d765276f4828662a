package google

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/portfolio-dashboard/internal/contracts"
)

// Quote page selectors. Google renames these classes from time to time.
const (
	statRowSelector   = ".gyFHrc"
	statLabelSelector = ".mfs7Fc"
	statValueSelector = ".P6K39c"
	earningsSelector  = `[data-source="earnings"], .AzFOnd`
)

var (
	currencyStrip = regexp.MustCompile(`[₹$€£,\s]`)
	leadingNumber = regexp.MustCompile(`^-?\d*\.?\d+`)
	hasDigit      = regexp.MustCompile(`\d`)
)

// ParseQuotePage extracts the P/E ratio and latest earnings from a quote page.
// Fields the page does not carry stay nil.
func ParseQuotePage(html []byte) (contracts.FundamentalsResult, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return contracts.FundamentalsResult{}, fmt.Errorf("failed to parse quote page: %w", err)
	}

	return contracts.FundamentalsResult{
		PERatio:        extractPERatio(doc),
		LatestEarnings: extractLatestEarnings(doc),
	}, nil
}

func isPELabel(label string) bool {
	label = strings.ToLower(label)
	if strings.Contains(label, "forward") {
		return false
	}
	return strings.Contains(label, "p/e ratio") || strings.Contains(label, "pe ratio")
}

// extractPERatio reads the key stats rows, then falls back to any leaf label
// followed by a plausible value
func extractPERatio(doc *goquery.Document) *float64 {
	var pe *float64

	doc.Find(statRowSelector).EachWithBreak(func(_ int, row *goquery.Selection) bool {
		if !isPELabel(row.Find(statLabelSelector).Text()) {
			return true
		}
		pe = ExtractNumber(row.Find(statValueSelector).First().Text())
		return pe == nil
	})
	if pe != nil {
		return pe
	}

	doc.Find("div, span, td").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if s.Children().Length() > 0 || !isPELabel(s.Text()) {
			return true
		}
		n := ExtractNumber(siblingValue(s))
		if n != nil && *n > 0 && *n < 1000 {
			pe = n
			return false
		}
		return true
	})

	return pe
}

// extractLatestEarnings prefers the earnings block, then an EPS row of the financials table
func extractLatestEarnings(doc *goquery.Document) *string {
	if text := strings.TrimSpace(doc.Find(earningsSelector).First().Text()); text != "" {
		return &text
	}

	var eps *string
	doc.Find("tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		cells := row.Find("td")
		if cells.Length() < 2 || !isEPSLabel(cells.First().Text()) {
			return true
		}
		value := strings.TrimSpace(cells.Eq(1).Text())
		if hasDigit.MatchString(value) {
			s := "EPS: " + value
			eps = &s
			return false
		}
		return true
	})
	if eps != nil {
		return eps
	}

	doc.Find("div, span").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if s.Children().Length() > 0 || !isEPSLabel(s.Text()) {
			return true
		}
		value := siblingValue(s)
		if hasDigit.MatchString(value) {
			v := "EPS: " + value
			eps = &v
			return false
		}
		return true
	})

	return eps
}

func isEPSLabel(label string) bool {
	label = strings.TrimSpace(label)
	lower := strings.ToLower(label)
	if strings.Contains(lower, "estimate") {
		return false
	}
	return strings.Contains(label, "EPS") || strings.Contains(lower, "earnings per share")
}

// siblingValue returns the text of the element following a label, or of the
// last leaf in the label's parent
func siblingValue(label *goquery.Selection) string {
	if next := label.Next(); next.Length() > 0 {
		return strings.TrimSpace(next.Text())
	}
	last := label.Parent().Children().Last()
	if last.Length() == 0 || last.IsSelection(label) {
		return ""
	}
	return strings.TrimSpace(last.Text())
}

// ExtractNumber parses the leading number of a scraped value such as "₹1,234.5" or "28.4%".
// Text without a number yields nil.
func ExtractNumber(s string) *float64 {
	cleaned := currencyStrip.ReplaceAllString(s, "")
	match := leadingNumber.FindString(cleaned)
	if match == "" {
		return nil
	}
	n, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return nil
	}
	return &n
}
