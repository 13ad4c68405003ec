package ledger

import (
	"github.com/angelmondragon/fiscal-ledger/internal/fiscal"
	"github.com/angelmondragon/fiscal-ledger/pkg/enums"
	"github.com/angelmondragon/fiscal-ledger/pkg/types"
	"github.com/shopspring/decimal"
)

// Line is a persisted purchase or sale line. Counterparty and Product are
// display names copied at write time; renaming either later does not touch
// existing lines.
type Line struct {
	ID           int64              `json:"id"`
	Kind         enums.LineKind     `json:"kind"`
	Layout       enums.SchemaLayout `json:"layout"`
	Counterparty string             `json:"counterparty"`
	Product      string             `json:"product"`
	Quantity     int                `json:"quantity"`
	UnitPrice    decimal.Decimal    `json:"unit_price"`
	DocType      *enums.DocType     `json:"doc_type,omitempty"`
	TaxRate      decimal.Decimal    `json:"tax_rate"`
	// Breakdown is nil for rows stored without fiscal columns.
	Breakdown *fiscal.Breakdown `json:"breakdown,omitempty"`
	Total     decimal.Decimal   `json:"total"`
	IssuedOn  types.Date        `json:"issued_on"`
	DueOn     *types.Date       `json:"due_on,omitempty"`
}

// StockEffect is the signed change this line applied to its product.
func (l Line) StockEffect() int {
	return l.Kind.StockSign() * l.Quantity
}

// CreateLineInput describes a line priced by document type.
type CreateLineInput struct {
	Counterparty string
	Product      string
	Quantity     int
	UnitPrice    decimal.Decimal
	DocType      *enums.DocType
	// IssuedOn defaults to today.
	IssuedOn *types.Date
	// DueOn defaults to IssuedOn plus the payment term. Purchases only.
	DueOn *types.Date
}

// EditLineInput replaces every editable field of an existing line.
type EditLineInput = CreateLineInput

// LegacyLineInput describes a line priced with an explicit VAT rate, given
// either as a percentage (19) or a fraction (0.19).
type LegacyLineInput struct {
	Counterparty string
	Product      string
	Quantity     int
	UnitPrice    decimal.Decimal
	TaxRate      decimal.Decimal
	IssuedOn     *types.Date
}

// ListFilter narrows List results. Zero values are ignored.
type ListFilter struct {
	Product      string
	Counterparty string
	From         *types.Date
	To           *types.Date
	Limit        int
	Offset       int
}

// lineRecord is a fully computed line ready to be written by a LineStore.
type lineRecord struct {
	Counterparty string
	Product      string
	Quantity     int
	UnitPrice    decimal.Decimal
	DocType      *enums.DocType
	TaxRate      decimal.Decimal
	Breakdown    fiscal.Breakdown
	IssuedOn     types.Date
	DueOn        *types.Date
}
