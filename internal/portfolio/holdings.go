package portfolio

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/wonny/portfolio-dashboard/internal/contracts"
)

//go:embed holdings.toml
var defaultHoldings []byte

// ErrNoHoldings is returned when a holdings source lists nothing
var ErrNoHoldings = errors.New("no holdings defined")

// HoldingsProvider supplies the tracked positions
type HoldingsProvider interface {
	Holdings(ctx context.Context) ([]contracts.Holding, error)
}

// StaticHoldings serves a fixed list, loaded once at startup
type StaticHoldings []contracts.Holding

// Holdings returns a copy of the list
func (s StaticHoldings) Holdings(_ context.Context) ([]contracts.Holding, error) {
	out := make([]contracts.Holding, len(s))
	copy(out, s)
	return out, nil
}

type holdingsFile struct {
	Holdings []contracts.Holding `toml:"holdings"`
}

// LoadHoldings reads a TOML holdings file. An empty path loads the embedded sample portfolio.
func LoadHoldings(path string) (StaticHoldings, error) {
	data := defaultHoldings
	source := "embedded sample"

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read holdings file: %w", err)
		}
		data = b
		source = path
	}

	holdings, err := ParseHoldings(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}
	return holdings, nil
}

// ParseHoldings decodes and validates a TOML document of [[holdings]] tables
func ParseHoldings(data []byte) (StaticHoldings, error) {
	var file holdingsFile
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("failed to decode holdings: %w", err)
	}

	if err := ValidateHoldings(file.Holdings); err != nil {
		return nil, err
	}
	return StaticHoldings(file.Holdings), nil
}

// ValidateHoldings checks ids are unique, quantities positive and prices non-negative
func ValidateHoldings(holdings []contracts.Holding) error {
	if len(holdings) == 0 {
		return ErrNoHoldings
	}

	seen := make(map[string]struct{}, len(holdings))
	for i, h := range holdings {
		switch {
		case strings.TrimSpace(h.ID) == "":
			return fmt.Errorf("holding %d: id is required", i+1)
		case strings.TrimSpace(h.Symbol) == "":
			return fmt.Errorf("holding %s: symbol is required", h.ID)
		case strings.TrimSpace(h.Sector) == "":
			return fmt.Errorf("holding %s: sector is required", h.ID)
		case h.Quantity <= 0:
			return fmt.Errorf("holding %s: quantity must be positive", h.ID)
		case h.PurchasePrice < 0:
			return fmt.Errorf("holding %s: purchase price cannot be negative", h.ID)
		}

		if _, dup := seen[h.ID]; dup {
			return fmt.Errorf("holding %s: duplicate id", h.ID)
		}
		seen[h.ID] = struct{}{}
	}
	return nil
}
