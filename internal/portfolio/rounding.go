package portfolio

import "github.com/shopspring/decimal"

// RoundToDecimals rounds half away from zero on the shortest decimal form of v,
// so 2.005 becomes 2.01 even though its binary value is slightly below.
func RoundToDecimals(v float64, places int32) float64 {
	return present(decimal.NewFromFloat(v), places)
}

func present(d decimal.Decimal, places int32) float64 {
	f, _ := d.Round(places).Float64()
	return f
}

// money rounds a computed amount to paise for presentation
func money(d decimal.Decimal) float64 {
	return present(d, 2)
}

func optionalMoney(d *decimal.Decimal) *float64 {
	if d == nil {
		return nil
	}
	v := money(*d)
	return &v
}

// percentOf returns part / whole × 100, or zero when whole is zero
func percentOf(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred)
}

var hundred = decimal.NewFromInt(100)
