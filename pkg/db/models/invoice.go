package models

import (
	"github.com/angelmondragon/fiscal-ledger/pkg/enums"
	"github.com/angelmondragon/fiscal-ledger/pkg/types"
	"github.com/shopspring/decimal"
)

// Invoice is the legacy invoices row: a single Amount and no due date.
type Invoice struct {
	ID           int64                  `gorm:"column:id;primaryKey"`
	Number       string                 `gorm:"column:number;not null"`
	Counterparty string                 `gorm:"column:counterparty;not null"`
	Amount       decimal.Decimal        `gorm:"column:amount;type:numeric;not null"`
	Status       enums.InvoiceStatus    `gorm:"column:status;not null"`
	IssuedOn     types.Date             `gorm:"column:issued_on;not null"`
	Direction    enums.InvoiceDirection `gorm:"column:direction;not null"`
}

func (Invoice) TableName() string { return "invoices" }

// ExtendedInvoice carries the fiscal breakdown and due date. Amount mirrors
// Total so legacy readers keep working.
type ExtendedInvoice struct {
	Invoice     `gorm:"embedded"`
	DocType     *enums.DocType  `gorm:"column:doc_type"`
	Net         decimal.Decimal `gorm:"column:net;type:numeric;not null"`
	Tax         decimal.Decimal `gorm:"column:tax;type:numeric;not null"`
	Withholding decimal.Decimal `gorm:"column:withholding;type:numeric;not null"`
	Total       decimal.Decimal `gorm:"column:total;type:numeric;not null"`
	DueOn       types.NullDate  `gorm:"column:due_on"`
}

func (ExtendedInvoice) TableName() string { return "invoices" }
