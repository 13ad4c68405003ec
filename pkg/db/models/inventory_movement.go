package models

import (
	"time"

	"github.com/angelmondragon/fiscal-ledger/pkg/enums"
)

// InventoryMovement records a manual stock adjustment by internal code.
type InventoryMovement struct {
	ID          int64              `gorm:"column:id;primaryKey"`
	ProductCode string             `gorm:"column:product_code;not null"`
	Movement    enums.MovementType `gorm:"column:movement;not null"`
	Quantity    int                `gorm:"column:quantity;not null"`
	Location    string             `gorm:"column:location;not null;default:''"`
	Method      string             `gorm:"column:method;not null;default:''"`
	OccurredAt  time.Time          `gorm:"column:occurred_at;not null"`
}

func (InventoryMovement) TableName() string { return "inventory_movements" }
