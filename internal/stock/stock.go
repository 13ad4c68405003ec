// Package stock applies on-hand changes to products. Every caller that moves
// units goes through Adjust, so the count can never drop below zero.
package stock

import (
	"context"
	"errors"
	"fmt"

	"github.com/angelmondragon/fiscal-ledger/pkg/db/models"
	pkgerrors "github.com/angelmondragon/fiscal-ledger/pkg/errors"
	"gorm.io/gorm"
)

// Key is the products column a caller identifies the row by.
type Key string

const (
	// ByName matches ledger lines, which reference products by display name.
	ByName Key = "name"
	// ByInternalCode matches manual adjustments keyed by the internal code.
	ByInternalCode Key = "internal_code"
)

func (k Key) valid() bool {
	return k == ByName || k == ByInternalCode
}

// Adjust adds delta to the on-hand count of the product where key = value.
// Decrements only apply when enough units are on hand; otherwise it reports
// INSUFFICIENT_STOCK and leaves the row untouched.
func Adjust(ctx context.Context, tx *gorm.DB, key Key, value string, delta int) error {
	if !key.valid() {
		return pkgerrors.New(pkgerrors.CodeInternal, fmt.Sprintf("unsupported stock key %q", key))
	}
	if delta == 0 {
		return nil
	}

	var res *gorm.DB
	if delta > 0 {
		res = tx.WithContext(ctx).Exec(
			fmt.Sprintf(`UPDATE products SET on_hand = on_hand + ? WHERE %s = ?`, key),
			delta, value)
	} else {
		res = tx.WithContext(ctx).Exec(
			fmt.Sprintf(`UPDATE products SET on_hand = on_hand - ? WHERE %s = ? AND on_hand >= ?`, key),
			-delta, value, -delta)
	}
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "adjust stock")
	}
	if res.RowsAffected > 0 {
		return nil
	}

	var current models.Product
	err := tx.WithContext(ctx).
		Select("name", "on_hand").
		Where(fmt.Sprintf("%s = ?", key), value).
		Take(&current).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NotFound(key, value)
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product stock")
	}
	return Insufficient(current.Name, -delta, current.OnHand)
}

// NotFound reports a missing product under the given key.
func NotFound(key Key, value string) error {
	if key == ByInternalCode {
		return pkgerrors.New(pkgerrors.CodeProductNotFound, fmt.Sprintf("no product with internal code %q", value)).
			WithDetails(map[string]any{"code": value})
	}
	return pkgerrors.New(pkgerrors.CodeProductNotFound, fmt.Sprintf("product %q not found", value)).
		WithDetails(map[string]any{"product": value})
}

// Insufficient reports a request for more units than are on hand.
func Insufficient(product string, requested, onHand int) error {
	return pkgerrors.New(pkgerrors.CodeInsufficientStock, fmt.Sprintf("product %q has %d units, %d requested", product, onHand, requested)).
		WithDetails(map[string]any{"product": product, "requested": requested, "on_hand": onHand})
}
