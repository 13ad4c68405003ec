package enums

import (
	"fmt"
	"strings"
)

// InvoiceStatus tracks the lifecycle of an invoice or receivable.
type InvoiceStatus string

const (
	InvoiceStatusIssued  InvoiceStatus = "emitida"
	InvoiceStatusPending InvoiceStatus = "pendiente"
	InvoiceStatusPaid    InvoiceStatus = "pagada"
	InvoiceStatusOverdue InvoiceStatus = "vencida"
)

var validInvoiceStatuses = []InvoiceStatus{
	InvoiceStatusIssued,
	InvoiceStatusPending,
	InvoiceStatusPaid,
	InvoiceStatusOverdue,
}

var invoiceTransitions = map[InvoiceStatus][]InvoiceStatus{
	InvoiceStatusIssued:  {InvoiceStatusPending, InvoiceStatusPaid, InvoiceStatusOverdue},
	InvoiceStatusPending: {InvoiceStatusPaid, InvoiceStatusOverdue},
	InvoiceStatusOverdue: {InvoiceStatusPaid},
}

// String implements fmt.Stringer.
func (s InvoiceStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known InvoiceStatus.
func (s InvoiceStatus) IsValid() bool {
	for _, candidate := range validInvoiceStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is allowed.
func (s InvoiceStatus) IsTerminal() bool {
	return s == InvoiceStatusPaid
}

// CanTransitionTo reports whether moving from s to next is allowed. Staying
// in the same status is always allowed.
func (s InvoiceStatus) CanTransitionTo(next InvoiceStatus) bool {
	if s == next {
		return true
	}
	for _, candidate := range invoiceTransitions[s] {
		if candidate == next {
			return true
		}
	}
	return false
}

// ParseInvoiceStatus converts raw input into an InvoiceStatus. English
// aliases are accepted for API callers.
func ParseInvoiceStatus(value string) (InvoiceStatus, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	switch normalized {
	case "issued":
		return InvoiceStatusIssued, nil
	case "pending":
		return InvoiceStatusPending, nil
	case "paid":
		return InvoiceStatusPaid, nil
	case "overdue":
		return InvoiceStatusOverdue, nil
	}
	for _, candidate := range validInvoiceStatuses {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid invoice status %q", value)
}
