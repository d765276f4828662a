package portfolio

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadHoldingsDefaults(t *testing.T) {
	holdings, err := LoadHoldings("")
	require.NoError(t, err)
	require.Len(t, holdings, 12)

	first := holdings[0]
	assert.Equal(t, "1", first.ID)
	assert.Equal(t, "TCS", first.PrimaryCode)
	assert.Equal(t, "532540", first.SecondaryCode)
	assert.Equal(t, "Technology", first.Sector)
	assert.Equal(t, 3200.0, first.PurchasePrice)
	assert.Equal(t, int64(10), first.Quantity)

	sectors := map[string]int{}
	for _, h := range holdings {
		sectors[h.Sector]++
	}
	assert.Len(t, sectors, 5)
}

func TestLoadHoldingsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "holdings.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[[holdings]]
id = "a"
name = "Infosys Ltd"
symbol = "INFY"
nse_code = "INFY"
sector = "Technology"
purchase_price = 1450
quantity = 25
`), 0o600))

	holdings, err := LoadHoldings(path)
	require.NoError(t, err)
	require.Len(t, holdings, 1)
	assert.Equal(t, 1450.0, holdings[0].PurchasePrice)

	got, err := holdings.Holdings(context.Background())
	require.NoError(t, err)
	got[0].Quantity = 999
	assert.Equal(t, int64(25), holdings[0].Quantity, "provider hands out copies")
}

func TestLoadHoldingsMissingFile(t *testing.T) {
	_, err := LoadHoldings(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestParseHoldingsValidation(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"empty", ``, "no holdings"},
		{"zero quantity", `[[holdings]]
id = "1"
symbol = "TCS"
sector = "Tech"
purchase_price = 1
quantity = 0`, "quantity must be positive"},
		{"negative price", `[[holdings]]
id = "1"
symbol = "TCS"
sector = "Tech"
purchase_price = -1
quantity = 1`, "cannot be negative"},
		{"duplicate id", `[[holdings]]
id = "1"
symbol = "TCS"
sector = "Tech"
quantity = 1
[[holdings]]
id = "1"
symbol = "INFY"
sector = "Tech"
quantity = 1`, "duplicate id"},
		{"missing sector", `[[holdings]]
id = "1"
symbol = "TCS"
quantity = 1`, "sector is required"},
		{"unknown field", `[[holdings]]
id = "1"
symbol = "TCS"
sector = "Tech"
quantity = 1
qty = 2`, "failed to decode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseHoldings([]byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
