// Package money rounds monetary quantities to a fixed number of decimals.
package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// MaxScale is the largest supported number of monetary decimals.
const MaxScale int32 = 4

// Rounder rounds half away from zero at Scale decimals. The zero value rounds
// to whole units, which matches CLP.
type Rounder struct {
	Scale int32
}

func NewRounder(scale int32) (Rounder, error) {
	if scale < 0 || scale > MaxScale {
		return Rounder{}, fmt.Errorf("monetary scale must be between 0 and %d, got %d", MaxScale, scale)
	}
	return Rounder{Scale: scale}, nil
}

// Round is idempotent: Round(Round(x)) == Round(x).
func (r Rounder) Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(r.Scale)
}

// Equal compares two amounts after rounding both.
func (r Rounder) Equal(a, b decimal.Decimal) bool {
	return r.Round(a).Equal(r.Round(b))
}

// Unit is the smallest representable amount at this scale.
func (r Rounder) Unit() decimal.Decimal {
	return decimal.New(1, -r.Scale)
}

// Sum adds already rounded amounts and rounds the result once more.
func (r Rounder) Sum(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(r.Round(v))
	}
	return r.Round(total)
}

// Parse reads a decimal amount, accepting a comma as decimal separator.
func Parse(value string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}
	if !strings.Contains(trimmed, ".") {
		trimmed = strings.Replace(trimmed, ",", ".", 1)
	}
	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse amount %q: %w", value, err)
	}
	return d, nil
}

// FromFloat converts at the boundary where callers only have a float.
func FromFloat(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}
