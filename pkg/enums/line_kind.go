package enums

import (
	"fmt"
	"strings"
)

// LineKind distinguishes purchase lines from sale lines.
type LineKind string

const (
	LineKindPurchase LineKind = "purchase"
	LineKindSale     LineKind = "sale"
)

// String implements fmt.Stringer.
func (k LineKind) String() string {
	return string(k)
}

// IsValid reports whether the value is a known LineKind.
func (k LineKind) IsValid() bool {
	return k == LineKindPurchase || k == LineKindSale
}

// StockSign is +1 for purchases and -1 for sales.
func (k LineKind) StockSign() int {
	if k == LineKindSale {
		return -1
	}
	return 1
}

// ParseLineKind converts raw input into a LineKind.
func ParseLineKind(value string) (LineKind, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "purchase", "purchases", "compra", "compras":
		return LineKindPurchase, nil
	case "sale", "sales", "venta", "ventas":
		return LineKindSale, nil
	}
	return "", fmt.Errorf("invalid line kind %q", value)
}
