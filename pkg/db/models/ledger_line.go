package models

import (
	"github.com/angelmondragon/fiscal-ledger/pkg/enums"
	"github.com/angelmondragon/fiscal-ledger/pkg/types"
	"github.com/shopspring/decimal"
)

// LedgerLine holds the columns present in both purchase_lines and sale_lines
// under every layout. In this layout TaxRate is the only tax information.
// The table is chosen by the caller.
type LedgerLine struct {
	ID           int64           `gorm:"column:id;primaryKey"`
	Counterparty string          `gorm:"column:counterparty;not null"`
	Product      string          `gorm:"column:product;not null"`
	Quantity     int             `gorm:"column:quantity;not null"`
	UnitPrice    decimal.Decimal `gorm:"column:unit_price;type:numeric;not null"`
	TaxRate      decimal.Decimal `gorm:"column:tax_rate;type:numeric;not null"`
	Total        decimal.Decimal `gorm:"column:total;type:numeric;not null"`
	IssuedOn     types.Date      `gorm:"column:issued_on;not null"`
}

// ExtendedLedgerLine adds the fiscal breakdown. DueOn only exists on
// purchase_lines and must be omitted when writing sale_lines.
type ExtendedLedgerLine struct {
	LedgerLine  `gorm:"embedded"`
	DocType     *enums.DocType  `gorm:"column:doc_type"`
	Net         decimal.Decimal `gorm:"column:net;type:numeric;not null"`
	Tax         decimal.Decimal `gorm:"column:tax;type:numeric;not null"`
	Withholding decimal.Decimal `gorm:"column:withholding;type:numeric;not null"`
	DueOn       types.NullDate  `gorm:"column:due_on"`
}
