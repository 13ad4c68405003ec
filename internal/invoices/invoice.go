package invoices

import (
	"github.com/angelmondragon/fiscal-ledger/internal/fiscal"
	"github.com/angelmondragon/fiscal-ledger/pkg/enums"
	"github.com/angelmondragon/fiscal-ledger/pkg/pagination"
	"github.com/angelmondragon/fiscal-ledger/pkg/types"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Invoice is a receivable (customer direction) or payable (supplier
// direction) document.
type Invoice struct {
	ID           int64                  `json:"id"`
	Layout       enums.SchemaLayout     `json:"layout"`
	Number       string                 `json:"number"`
	Counterparty string                 `json:"counterparty"`
	Direction    enums.InvoiceDirection `json:"direction"`
	Status       enums.InvoiceStatus    `json:"status"`
	IssuedOn     types.Date             `json:"issued_on"`
	DueOn        *types.Date            `json:"due_on,omitempty"`
	DocType      *enums.DocType         `json:"doc_type,omitempty"`
	// Amount is the single stored total. Breakdown is nil when the store has
	// no fiscal columns.
	Amount    decimal.Decimal   `json:"amount"`
	Breakdown *fiscal.Breakdown `json:"breakdown,omitempty"`
}

// CreateFromNetInput creates an invoice whose tax and withholding are
// computed from the net amount and document type.
type CreateFromNetInput struct {
	Number       string
	Counterparty string
	Direction    enums.InvoiceDirection
	Net          decimal.Decimal
	DocType      *enums.DocType
	IssuedOn     *types.Date
	// PaymentDays overrides the configured payment term when positive.
	PaymentDays int
	// Status defaults to issued.
	Status enums.InvoiceStatus
}

// CreateWithAmountsInput stores amounts computed elsewhere.
type CreateWithAmountsInput struct {
	Number       string
	Counterparty string
	Direction    enums.InvoiceDirection
	DocType      *enums.DocType
	Net          decimal.Decimal
	Tax          decimal.Decimal
	Withholding  decimal.Decimal
	Total        decimal.Decimal
	IssuedOn     *types.Date
	DueOn        *types.Date
	// Status defaults to pending.
	Status enums.InvoiceStatus
}

// CreateLegacyInput stores a single total with no breakdown.
type CreateLegacyInput struct {
	Number       string
	Counterparty string
	Direction    enums.InvoiceDirection
	Amount       decimal.Decimal
	IssuedOn     *types.Date
}

// ListFilter narrows List results. Zero values are ignored.
type ListFilter struct {
	Direction    enums.InvoiceDirection
	Status       enums.InvoiceStatus
	Counterparty string
	Limit        int
	Offset       int
}

func (f ListFilter) scope(q *gorm.DB) *gorm.DB {
	if f.Direction != "" {
		q = q.Where("direction = ?", f.Direction)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Counterparty != "" {
		q = q.Where("counterparty = ?", f.Counterparty)
	}
	q = pagination.Params{Limit: f.Limit, Offset: f.Offset}.Apply(q)
	return q
}

type invoiceRecord struct {
	Number       string
	Counterparty string
	Direction    enums.InvoiceDirection
	Status       enums.InvoiceStatus
	IssuedOn     types.Date
	DueOn        *types.Date
	DocType      *enums.DocType
	Breakdown    fiscal.Breakdown
}
