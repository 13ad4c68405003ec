package enums

import (
	"fmt"
	"strings"
)

// InvoiceDirection tells whether the counterparty owes us or we owe them.
type InvoiceDirection string

const (
	InvoiceDirectionCustomer InvoiceDirection = "cliente"
	InvoiceDirectionSupplier InvoiceDirection = "proveedor"
)

// String implements fmt.Stringer.
func (d InvoiceDirection) String() string {
	return string(d)
}

// IsValid reports whether the value is a known InvoiceDirection.
func (d InvoiceDirection) IsValid() bool {
	return d == InvoiceDirectionCustomer || d == InvoiceDirectionSupplier
}

// ParseInvoiceDirection converts raw input into an InvoiceDirection.
func ParseInvoiceDirection(value string) (InvoiceDirection, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "cliente", "customer":
		return InvoiceDirectionCustomer, nil
	case "proveedor", "supplier":
		return InvoiceDirectionSupplier, nil
	}
	return "", fmt.Errorf("invalid invoice direction %q", value)
}
