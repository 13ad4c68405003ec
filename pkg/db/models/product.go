package models

import (
	"github.com/angelmondragon/fiscal-ledger/pkg/types"
	"github.com/shopspring/decimal"
)

// Product is a catalog item. OnHand is only changed inside ledger or
// inventory transactions.
type Product struct {
	ID            int64           `gorm:"column:id;primaryKey"`
	Name          string          `gorm:"column:name;not null;uniqueIndex"`
	Category      string          `gorm:"column:category;not null;default:''"`
	PurchasePrice decimal.Decimal `gorm:"column:purchase_price;type:numeric;not null;default:0"`
	SalePrice     decimal.Decimal `gorm:"column:sale_price;type:numeric;not null;default:0"`
	OnHand        int             `gorm:"column:on_hand;not null;default:0"`
	InternalCode  *string         `gorm:"column:internal_code;uniqueIndex"`
	ExternalCode  *string         `gorm:"column:external_code"`
	TaxRate       decimal.Decimal `gorm:"column:tax_rate;type:numeric;not null"`
	Location      string          `gorm:"column:location;not null;default:''"`
	ExpiryDate    types.NullDate  `gorm:"column:expiry_date"`
}

func (Product) TableName() string { return "products" }
